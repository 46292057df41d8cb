package main

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Messages coming from clients
type ClientMessage struct {
	Type   string          `json:"type"`             // "create-room", "join-room", "start-round", "submit-answer"
	Code   string          `json:"code,omitempty"`   // join-room / start-round / submit-answer
	Name   string          `json:"name,omitempty"`   // join-room
	Choice json.RawMessage `json:"choice,omitempty"` // submit-answer
}

// RoomCreatedMessage acks room creation to the host only.
type RoomCreatedMessage struct {
	Type string `json:"type"` // "room-created"
	Code string `json:"code"`
}

// JoinedRoomMessage acks a successful join to the joining player only.
type JoinedRoomMessage struct {
	Type string `json:"type"` // "joined-room"
	Code string `json:"code"`
	Name string `json:"name"`
}

// LobbyStateMessage carries the current membership, in arrival order.
type LobbyStateMessage struct {
	Type    string   `json:"type"` // "lobby-state"
	Players []string `json:"players"`
}

// ErrorMessage is for user-facing failures ("Room not found.", etc.)
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// NewQuestionMessage starts a round for everyone in the room.
type NewQuestionMessage struct {
	Type      string   `json:"type"` // "new-question"
	Statement string   `json:"statement"`
	Choices   []string `json:"choices"`
	Seconds   int      `json:"seconds"` // answering window
}

// AnswerReceivedMessage is sent only to the player whose answer was recorded.
type AnswerReceivedMessage struct {
	Type string `json:"type"` // "answer-received"
}

type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RoundResultMessage reveals the correct choice and the ranked scoreboard.
type RoundResultMessage struct {
	Type       string       `json:"type"` // "round-result"
	Correct    int          `json:"correct"`
	Scoreboard []ScoreEntry `json:"scoreboard"`
}

// parseChoice accepts a choice index as either a JSON number or a numeric
// string. Anything else is dropped without feedback.
func parseChoice(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
