package tutor

import (
	"context"
	"fmt"
	"strings"
)

// apologyText is returned to the player when the responder fails; per-
// utterance failures must never surface as broken connections.
const apologyText = "Sorry, I couldn't process that. Could you try again?"

// Responder turns a context prompt plus a WAV utterance into tutor text.
// Implementations wrap whichever model backend is configured.
type Responder interface {
	Respond(ctx context.Context, prompt string, wavAudio []byte) (string, error)
}

// DevResponder is the in-repo responder for local development and tests.
// It answers with a canned line that proves the game context reached the
// prompt builder, without any model call.
type DevResponder struct{}

func NewDevResponder() *DevResponder {
	return &DevResponder{}
}

func (DevResponder) Respond(_ context.Context, prompt string, wavAudio []byte) (string, error) {
	setting := "your adventure"
	for _, line := range strings.Split(prompt, "\n") {
		if biome, ok := strings.CutPrefix(line, "- Biome: "); ok && biome != "unknown" {
			setting = "the " + biome
			break
		}
	}
	return fmt.Sprintf("I heard %d bytes of you speaking out in %s. Let's practice: how would you describe what you see around you?",
		len(wavAudio), setting), nil
}
