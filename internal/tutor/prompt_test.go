package tutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	health := 17.0
	gs := GameState{
		Player: PlayerState{
			Position: &Position{X: 100, Y: 64, Z: -200},
			Health:   &health,
			HeldItem: "minecraft:torch",
		},
		Target: TargetState{ID: "minecraft:zombie", Type: "entity"},
		World:  WorldState{Biome: "plains", TimeOfDay: 14000},
	}

	prompt := buildPrompt(gs)
	assert.Contains(t, prompt, "- Player position: (100, 64, -200)")
	assert.Contains(t, prompt, "- Health: 17/20")
	assert.Contains(t, prompt, "- Held item: minecraft:torch")
	assert.Contains(t, prompt, "- Looking at: minecraft:zombie (entity)")
	assert.Contains(t, prompt, "- Biome: plains")
	assert.Contains(t, prompt, "- Time: night")
	assert.Contains(t, prompt, "language tutor")
}

func TestBuildPrompt_Defaults(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(GameState{})
	assert.Contains(t, prompt, "- Player position: unknown")
	assert.Contains(t, prompt, "- Health: unknown/20")
	assert.Contains(t, prompt, "- Held item: none")
	assert.Contains(t, prompt, "- Looking at: nothing (none)")
	assert.Contains(t, prompt, "- Biome: unknown")
	assert.Contains(t, prompt, "- Time: day")
}

func TestBuildPrompt_DayNightBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tick int64
		want string
	}{
		{0, "day"},
		{13000, "day"},
		{13001, "night"},
		{23999, "night"},
	}
	for _, tt := range tests {
		prompt := buildPrompt(GameState{World: WorldState{TimeOfDay: tt.tick}})
		assert.Contains(t, prompt, "- Time: "+tt.want, "tick %d", tt.tick)
	}
}
