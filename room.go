package main

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseQuestion Phase = "question"
	PhaseResult   Phase = "result"
)

const defaultPlayerName = "Player"

// Participant is one joined player. Arrival order is the order of the
// Room.participants slice.
type Participant struct {
	ID    string
	Name  string
	Score int
}

// Room is a single trivia session. The code never changes, and neither does
// the host identity; everything else is guarded by mu.
type Room struct {
	mu sync.Mutex

	code   string
	hostID string

	phase        Phase
	round        int // increments on every started round; stale timers check it
	question     *Question
	participants []*Participant
	answers      map[string]int // participant ID -> chosen index, first write wins
}

func newRoom(code, hostID string) *Room {
	return &Room{
		code:    code,
		hostID:  hostID,
		phase:   PhaseLobby,
		answers: make(map[string]int),
	}
}

func (room *Room) findParticipantLocked(id string) *Participant {
	for _, p := range room.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// removeParticipantLocked is idempotent; it reports whether anything changed.
func (room *Room) removeParticipantLocked(id string) bool {
	for i, p := range room.participants {
		if p.ID == id {
			room.participants = append(room.participants[:i], room.participants[i+1:]...)
			delete(room.answers, id)
			return true
		}
	}
	return false
}

func (room *Room) playerNamesLocked() []string {
	return lo.Map(room.participants, func(p *Participant, _ int) string {
		return p.Name
	})
}

// scoreboardLocked ranks all participants by descending score. The sort is
// stable, so equal scores keep arrival order.
func (room *Room) scoreboardLocked() []ScoreEntry {
	ranked := make([]*Participant, len(room.participants))
	copy(ranked, room.participants)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return lo.Map(ranked, func(p *Participant, _ int) ScoreEntry {
		return ScoreEntry{
			Name:  p.Name,
			Score: p.Score,
		}
	})
}
