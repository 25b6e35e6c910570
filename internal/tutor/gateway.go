package tutor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/linguava/linguava/internal/metrics"
	"github.com/linguava/linguava/pkg/logger"
)

// Gateway upgrades /ws/tutor requests and runs one read loop per
// connection. Per-message failures are reported as ERROR frames on the
// open connection; only read errors and close frames end it.
type Gateway struct {
	responder Responder
	log       *slog.Logger
	timeout   time.Duration
	clients   atomic.Int64
}

// NewGateway builds the gateway. timeout bounds one responder call; zero
// means no bound.
func NewGateway(responder Responder, log *slog.Logger, timeout time.Duration) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		responder: responder,
		log:       log.With(slog.String("component", "tutor")),
		timeout:   timeout,
	}
}

// ServeHTTP upgrades the connection and hands it to a dedicated goroutine.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		g.log.WarnContext(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	// ServeHTTP returns right away and the request context dies with it;
	// keep its values (request id) but not its cancellation.
	go g.serve(context.WithoutCancel(r.Context()), conn)
}

func (g *Gateway) serve(ctx context.Context, conn net.Conn) {
	total := g.clients.Add(1)
	metrics.TutorConnections.Inc()
	g.log.InfoContext(ctx, "client connected", slog.Int64("total_clients", total))

	defer func() {
		conn.Close()
		total := g.clients.Add(-1)
		metrics.TutorConnections.Dec()
		g.log.InfoContext(ctx, "client disconnected", slog.Int64("total_clients", total))
	}()

	var writeMu sync.Mutex
	write := func(frame []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return wsutil.WriteServerMessage(conn, ws.OpText, frame)
	}

	for {
		data, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) && !errors.Is(err, io.EOF) {
				g.log.WarnContext(ctx, "read failed", logger.Error(err))
			}
			return
		}
		if op != ws.OpText {
			continue
		}
		if frame := g.handleMessage(ctx, data); frame != nil {
			if err := write(frame); err != nil {
				g.log.WarnContext(ctx, "write failed", logger.Error(err))
				return
			}
		}
	}
}

// handleMessage processes one inbound frame and returns the reply frame,
// or nil when no reply is due. It never signals a fatal error: anything
// wrong with the message becomes an ERROR frame.
func (g *Gateway) handleMessage(ctx context.Context, data []byte) []byte {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return encodeError("Invalid JSON format")
	}

	switch msg.Type {
	case TypePing:
		return encodePong()
	case TypePlayerAction:
		return g.handlePlayerAction(ctx, msg)
	default:
		// Unknown types are ignored, matching the game mod's expectation
		// that it can add frame types without breaking older servers.
		return nil
	}
}

func (g *Gateway) handlePlayerAction(ctx context.Context, msg ClientMessage) []byte {
	if msg.AudioChunk == "" {
		return encodeError("No audio data received")
	}
	pcm, err := base64.StdEncoding.DecodeString(msg.AudioChunk)
	if err != nil {
		return encodeError("Audio chunk is not valid base64")
	}

	prompt := buildPrompt(msg.GameState)
	wav := pcmToWAV(pcm)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.responder.Respond(ctx, prompt, wav)
	if err != nil {
		// The player gets an apology instead of a dead connection.
		g.log.ErrorContext(ctx, "responder failed", logger.Error(err))
		metrics.TutorResponses.WithLabelValues("error").Inc()
		return encodeAIResponse(apologyText, msg.Timestamp)
	}

	metrics.TutorResponses.WithLabelValues("ok").Inc()
	return encodeAIResponse(text, msg.Timestamp)
}
