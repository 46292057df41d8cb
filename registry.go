package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// Notifier is the transport capability the registry drives: targeted sends,
// room-wide broadcasts, and broadcast-group membership keyed by room code.
type Notifier interface {
	Send(identity string, msg any)
	Broadcast(code string, msg any)
	Join(identity, code string)
	Leave(identity, code string)
	DropRoom(code string)
}

// Room codes skip I, L and O, which read like digits when shouted across a
// living room.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ"
	codeLength   = 4
)

// Registry owns the code -> Room mapping. All room mutation funnels through
// its methods; rooms are independent of each other.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg       *Config
	notifier  Notifier
	questions []Question
}

func newRegistry(cfg *Config, notifier Notifier, questions []Question) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		cfg:       cfg,
		notifier:  notifier,
		questions: questions,
	}
}

// newRoomCodeLocked generates a crypto-random code and ensures it doesn't
// collide with a live room. Assumes reg.mu is held.
func (reg *Registry) newRoomCodeLocked() string {
	for {
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, codeLength)
		for i := range out {
			out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// CreateRoom opens a fresh lobby owned by hostID and acks the code back to
// the host. It cannot fail.
func (reg *Registry) CreateRoom(hostID string) string {
	reg.mu.Lock()
	code := reg.newRoomCodeLocked()
	reg.rooms[code] = newRoom(code, hostID)
	reg.mu.Unlock()

	reg.notifier.Join(hostID, code)
	reg.notifier.Send(hostID, RoomCreatedMessage{
		Type: "room-created",
		Code: code,
	})

	logf(reg.cfg, "ROOMS: Room %s created by %s", code, hostID)

	return code
}

// Lookup returns the room for code, if any.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	return room, ok
}

// JoinRoom adds a player to a lobby. Joining mid-round is refused; the player
// has to wait for the next lobby window.
func (reg *Registry) JoinRoom(code, identity, name string) {
	room, ok := reg.Lookup(code)
	if !ok {
		reg.notifier.Send(identity, ErrorMessage{
			Type:    "error",
			Message: "Room not found.",
		})
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != PhaseLobby {
		reg.notifier.Send(identity, ErrorMessage{
			Type:    "error",
			Message: "Game already started. Wait for the next round.",
		})
		return
	}

	if name == "" {
		name = defaultPlayerName
	}

	if room.findParticipantLocked(identity) == nil {
		room.participants = append(room.participants, &Participant{
			ID:   identity,
			Name: name,
		})
	}

	reg.notifier.Join(identity, code)
	reg.notifier.Send(identity, JoinedRoomMessage{
		Type: "joined-room",
		Code: code,
		Name: name,
	})
	reg.broadcastLobbyLocked(room)

	logf(reg.cfg, "ROOMS: Player %q joined %s", name, code)
}

// StartRound begins a question round. Only the host may start one, and only
// from the lobby; anything else is silently ignored as stale client state.
func (reg *Registry) StartRound(code, identity string) {
	room, ok := reg.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if identity != room.hostID || room.phase != PhaseLobby {
		return
	}

	room.round++
	round := room.round

	question := reg.questions[(round-1)%len(reg.questions)]
	room.question = &question
	room.answers = make(map[string]int)
	room.phase = PhaseQuestion

	reg.notifier.Broadcast(code, NewQuestionMessage{
		Type:      "new-question",
		Statement: question.Statement,
		Choices:   question.Choices,
		Seconds:   int(reg.cfg.roundDuration.Seconds()),
	})

	// The server decides when the round ends.
	time.AfterFunc(reg.cfg.roundDuration, func() {
		reg.finalizeRound(code, round)
	})

	logf(reg.cfg, "ROOMS: Round %d started in %s", round, code)
}

// SubmitAnswer records a player's first answer of the round and acks it
// privately. Later submissions from the same player are ignored.
func (reg *Registry) SubmitAnswer(code, identity string, choice int) {
	room, ok := reg.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != PhaseQuestion {
		return
	}
	if room.findParticipantLocked(identity) == nil {
		return
	}

	if _, answered := room.answers[identity]; answered {
		return
	}
	room.answers[identity] = choice

	reg.notifier.Send(identity, AnswerReceivedMessage{
		Type: "answer-received",
	})
}

// finalizeRound fires when the round timer expires: score the recorded
// answers, reveal the correct choice and the ranked scoreboard, then head
// back to the lobby after a short pause. The round stamp keeps a stale timer
// from touching a later round.
func (reg *Registry) finalizeRound(code string, round int) {
	room, ok := reg.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != PhaseQuestion || room.round != round {
		return
	}

	room.phase = PhaseResult

	for identity, choice := range room.answers {
		if choice != room.question.Correct {
			continue
		}
		if p := room.findParticipantLocked(identity); p != nil {
			p.Score++
		}
	}

	reg.notifier.Broadcast(code, RoundResultMessage{
		Type:       "round-result",
		Correct:    room.question.Correct,
		Scoreboard: room.scoreboardLocked(),
	})

	time.AfterFunc(reg.cfg.resultDelay, func() {
		reg.returnToLobby(code, round)
	})

	logf(reg.cfg, "ROOMS: Round %d finished in %s", round, code)
}

// returnToLobby reopens the lobby once the scoreboard has been on screen
// long enough.
func (reg *Registry) returnToLobby(code string, round int) {
	room, ok := reg.Lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.phase != PhaseResult || room.round != round {
		return
	}

	room.phase = PhaseLobby
	reg.broadcastLobbyLocked(room)
}

// Disconnect handles a dropped connection. A departing host ends their room;
// a departing player just shrinks the lobby, even mid-round. There is no
// reverse index, so every room is checked.
func (reg *Registry) Disconnect(identity string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, room := range reg.rooms {
		room.mu.Lock()

		if room.hostID == identity {
			reg.notifier.Broadcast(code, ErrorMessage{
				Type:    "error",
				Message: "Host left. Room closed.",
			})
			reg.notifier.DropRoom(code)
			delete(reg.rooms, code)
			room.mu.Unlock()

			logf(reg.cfg, "ROOMS: Room %s closed (host left)", code)
			continue
		}

		if room.removeParticipantLocked(identity) {
			reg.notifier.Leave(identity, code)
			reg.broadcastLobbyLocked(room)

			logf(reg.cfg, "ROOMS: Player %s left %s", identity, code)
		}

		room.mu.Unlock()
	}
}

// broadcastLobbyLocked assumes room.mu is already held.
func (reg *Registry) broadcastLobbyLocked(room *Room) {
	reg.notifier.Broadcast(room.code, LobbyStateMessage{
		Type:    "lobby-state",
		Players: room.playerNamesLocked(),
	})
}
