// Package tutor bridges game clients to the AI language tutor over a
// WebSocket. Clients stream spoken audio with a snapshot of their game
// state; the tutor answers with text grounded in that context.
package tutor

import "encoding/json"

// Client-to-server and server-to-client frame types. The wire names are
// fixed by the game mod.
const (
	TypePlayerAction = "PLAYER_ACTION_WITH_AUDIO"
	TypePing         = "PING"
	TypePong         = "PONG"
	TypeAIResponse   = "AI_RESPONSE"
	TypeError        = "ERROR"
)

// ClientMessage is any inbound frame. AudioChunk carries base64-encoded
// raw PCM, 16 kHz mono signed 16-bit little-endian.
type ClientMessage struct {
	Type       string    `json:"type"`
	AudioChunk string    `json:"audioChunk,omitempty"`
	GameState  GameState `json:"gameState,omitempty"`
	Timestamp  int64     `json:"timestamp,omitempty"`
}

// GameState is the client's world snapshot at the moment of speaking.
type GameState struct {
	Player PlayerState `json:"player"`
	Target TargetState `json:"target"`
	World  WorldState  `json:"world"`
}

// PlayerState describes the speaking player. Pointer fields distinguish
// "not reported" from zero values.
type PlayerState struct {
	Position *Position `json:"position,omitempty"`
	Health   *float64  `json:"health,omitempty"`
	HeldItem string    `json:"heldItem,omitempty"`
}

// Position is a world coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TargetState is whatever the player is looking at.
type TargetState struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// WorldState carries environment context. Ticks above nightfallTick count
// as night.
type WorldState struct {
	Biome     string `json:"biome,omitempty"`
	TimeOfDay int64  `json:"timeOfDay"`
}

// aiResponse is the tutor's reply. The timestamp echoes the request so the
// client can correlate answers with utterances.
type aiResponse struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// errorFrame reports a recoverable per-message failure. The connection
// stays open.
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// pongFrame answers a PING.
type pongFrame struct {
	Type string `json:"type"`
}

func encodeAIResponse(text string, timestamp int64) []byte {
	b, _ := json.Marshal(aiResponse{Type: TypeAIResponse, Text: text, Timestamp: timestamp})
	return b
}

func encodeError(message string) []byte {
	b, _ := json.Marshal(errorFrame{Type: TypeError, Message: message})
	return b
}

func encodePong() []byte {
	b, _ := json.Marshal(pongFrame{Type: TypePong})
	return b
}
