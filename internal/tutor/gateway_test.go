package tutor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedResponder struct {
	text string
	err  error

	gotPrompt string
	gotWAV    []byte
}

func (r *scriptedResponder) Respond(_ context.Context, prompt string, wav []byte) (string, error) {
	r.gotPrompt = prompt
	r.gotWAV = wav
	return r.text, r.err
}

func newTestGateway(r Responder) *Gateway {
	return NewGateway(r, slog.New(slog.DiscardHandler), time.Second)
}

func decodeFrame(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(frame, &out))
	return out
}

func TestHandleMessage_PlayerAction(t *testing.T) {
	t.Parallel()

	responder := &scriptedResponder{text: "¡Muy bien!"}
	g := newTestGateway(responder)

	pcm := []byte{1, 2, 3, 4}
	req, err := json.Marshal(ClientMessage{
		Type:       TypePlayerAction,
		AudioChunk: base64.StdEncoding.EncodeToString(pcm),
		GameState:  GameState{World: WorldState{Biome: "desert"}},
		Timestamp:  42,
	})
	require.NoError(t, err)

	frame := g.handleMessage(context.Background(), req)
	got := decodeFrame(t, frame)
	assert.Equal(t, TypeAIResponse, got["type"])
	assert.Equal(t, "¡Muy bien!", got["text"])
	assert.Equal(t, float64(42), got["timestamp"])

	// The responder received a WAV container around the PCM and a prompt
	// carrying the game context.
	assert.Equal(t, pcmToWAV(pcm), responder.gotWAV)
	assert.Contains(t, responder.gotPrompt, "desert")
}

func TestHandleMessage_Ping(t *testing.T) {
	t.Parallel()

	g := newTestGateway(&scriptedResponder{})
	frame := g.handleMessage(context.Background(), []byte(`{"type":"PING"}`))
	assert.Equal(t, TypePong, decodeFrame(t, frame)["type"])
}

func TestHandleMessage_Errors(t *testing.T) {
	t.Parallel()

	g := newTestGateway(&scriptedResponder{text: "unused"})

	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"invalid json", `{not json`, "Invalid JSON format"},
		{"missing audio", `{"type":"PLAYER_ACTION_WITH_AUDIO"}`, "No audio data received"},
		{"bad base64", `{"type":"PLAYER_ACTION_WITH_AUDIO","audioChunk":"%%%"}`, "Audio chunk is not valid base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			frame := g.handleMessage(context.Background(), []byte(tt.payload))
			got := decodeFrame(t, frame)
			assert.Equal(t, TypeError, got["type"])
			assert.Equal(t, tt.message, got["message"])
		})
	}
}

func TestHandleMessage_ResponderFailureApologizes(t *testing.T) {
	t.Parallel()

	g := newTestGateway(&scriptedResponder{err: errors.New("model unavailable")})
	req, err := json.Marshal(ClientMessage{
		Type:       TypePlayerAction,
		AudioChunk: base64.StdEncoding.EncodeToString([]byte{0, 0}),
		Timestamp:  7,
	})
	require.NoError(t, err)

	got := decodeFrame(t, g.handleMessage(context.Background(), req))
	assert.Equal(t, TypeAIResponse, got["type"], "failures answer, they do not error the stream")
	assert.Equal(t, apologyText, got["text"])
	assert.Equal(t, float64(7), got["timestamp"])
}

func TestHandleMessage_UnknownTypeIgnored(t *testing.T) {
	t.Parallel()

	g := newTestGateway(&scriptedResponder{})
	assert.Nil(t, g.handleMessage(context.Background(), []byte(`{"type":"TELEMETRY"}`)))
}

func TestDevResponder(t *testing.T) {
	t.Parallel()

	text, err := NewDevResponder().Respond(context.Background(), buildPrompt(GameState{World: WorldState{Biome: "taiga"}}), []byte{1, 2})
	require.NoError(t, err)
	assert.Contains(t, text, "taiga")
}
