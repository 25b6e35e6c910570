package tutor

import (
	"fmt"
	"strings"
)

// nightfallTick is the in-game tick after which the world counts as night.
const nightfallTick = 13000

// buildPrompt renders the game-state snapshot into the tutor's system
// prompt. Missing fields degrade to "unknown"/"none" rather than being
// omitted, so the model always sees the same shape.
func buildPrompt(gs GameState) string {
	position := "unknown"
	if p := gs.Player.Position; p != nil {
		position = fmt.Sprintf("(%.0f, %.0f, %.0f)", p.X, p.Y, p.Z)
	}
	health := "unknown"
	if h := gs.Player.Health; h != nil {
		health = fmt.Sprintf("%g", *h)
	}
	heldItem := gs.Player.HeldItem
	if heldItem == "" {
		heldItem = "none"
	}
	targetID := gs.Target.ID
	if targetID == "" {
		targetID = "nothing"
	}
	targetType := gs.Target.Type
	if targetType == "" {
		targetType = "none"
	}
	biome := gs.World.Biome
	if biome == "" {
		biome = "unknown"
	}
	timeOfDay := "day"
	if gs.World.TimeOfDay > nightfallTick {
		timeOfDay = "night"
	}

	var b strings.Builder
	b.WriteString(`You are a helpful language tutor in Minecraft. The player is learning and you should:
1. Respond naturally and conversationally
2. Help with language learning related to what they're doing in the game
3. Keep responses concise but helpful
4. Use the game context to make learning relevant

Current context:
`)
	fmt.Fprintf(&b, "- Player position: %s\n", position)
	fmt.Fprintf(&b, "- Health: %s/20\n", health)
	fmt.Fprintf(&b, "- Held item: %s\n", heldItem)
	fmt.Fprintf(&b, "- Looking at: %s (%s)\n", targetID, targetType)
	fmt.Fprintf(&b, "- Biome: %s\n", biome)
	fmt.Fprintf(&b, "- Time: %s\n\n", timeOfDay)
	b.WriteString("Respond naturally to what the player says while incorporating this game context.")

	return b.String()
}
