package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

func TestHubGroups(t *testing.T) {
	req := require.New(t)
	hub := newHub()

	a := &Client{send: make(chan any, 8), identity: "a"}
	b := &Client{send: make(chan any, 8), identity: "b"}
	c := &Client{send: make(chan any, 8), identity: "c"}
	hub.addClient(a)
	hub.addClient(b)
	hub.addClient(c)

	hub.Join("a", "WXYZ")
	hub.Join("b", "WXYZ")
	hub.Join("c", "QRST")

	hub.Broadcast("WXYZ", "hello")
	req.Len(a.send, 1)
	req.Len(b.send, 1)
	req.Empty(c.send, "other rooms must not hear the broadcast")

	hub.Leave("b", "WXYZ")
	hub.Broadcast("WXYZ", "again")
	req.Len(a.send, 2)
	req.Len(b.send, 1)

	hub.DropRoom("WXYZ")
	hub.Broadcast("WXYZ", "silence")
	req.Len(a.send, 2)

	// Sends to unknown identities and empty groups are no-ops.
	hub.Send("nobody", "lost")
	hub.Broadcast("ZZZZ", "lost")
}

func TestHubSlowClientEvicted(t *testing.T) {
	req := require.New(t)
	hub := newHub()

	slow := &Client{send: make(chan any, 1), identity: "slow"}
	hub.addClient(slow)

	hub.Send("slow", "one")
	hub.Send("slow", "two") // queue full, client gets dropped

	hub.mu.Lock()
	_, ok := hub.conns["slow"]
	hub.mu.Unlock()
	req.False(ok)

	// The send channel was closed as part of eviction.
	req.Equal("one", <-slow.send)
	_, open := <-slow.send
	req.False(open)

	// removeClient after eviction must not close the channel twice.
	hub.removeClient(slow)
}

func newQuizServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()

	mux := httprouter.New()
	require.NoError(t, registerQuizGame(cfg, "/quiz", mux))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func dialQuiz(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestGameOverWebsocket(t *testing.T) {
	req := require.New(t)

	cfg := &Config{
		roundDuration: 500 * time.Millisecond,
		resultDelay:   150 * time.Millisecond,
	}
	srv := newQuizServer(t, cfg)

	host := dialQuiz(t, srv)

	// Unknown event types are ignored without killing the connection.
	req.NoError(host.WriteJSON(map[string]any{"type": "bogus"}))

	req.NoError(host.WriteJSON(map[string]any{"type": "create-room"}))
	created := readEvent(t, host)
	req.Equal("room-created", created["type"])

	code, _ := created["code"].(string)
	req.Len(code, codeLength)

	// The room has a landing page and a QR code to share.
	resp, err := http.Get(srv.URL + "/quiz/" + code)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/quiz/" + code + "/qr")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/quiz/XXXX")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)

	// Bea joins; both sides see the new lobby.
	player := dialQuiz(t, srv)
	req.NoError(player.WriteJSON(map[string]any{"type": "join-room", "code": strings.ToLower(code), "name": "Bea"}))

	joined := readEvent(t, player)
	req.Equal("joined-room", joined["type"])
	req.Equal(code, joined["code"])
	req.Equal("Bea", joined["name"])

	lobby := readEvent(t, player)
	req.Equal("lobby-state", lobby["type"])
	req.Equal([]any{"Bea"}, lobby["players"])

	lobby = readEvent(t, host)
	req.Equal("lobby-state", lobby["type"])

	// Only the host can start; Bea's attempt changes nothing.
	req.NoError(player.WriteJSON(map[string]any{"type": "start-round", "code": code}))
	req.NoError(host.WriteJSON(map[string]any{"type": "start-round", "code": code}))

	question := readEvent(t, host)
	req.Equal("new-question", question["type"])
	req.Equal(builtinQuestions()[0].Statement, question["statement"])

	question = readEvent(t, player)
	req.Equal("new-question", question["type"])

	// Bea answers with a numeric string; only she gets the ack.
	req.NoError(player.WriteJSON(map[string]any{"type": "submit-answer", "code": code, "choice": "1"}))
	ack := readEvent(t, player)
	req.Equal("answer-received", ack["type"])

	// A second answer changes nothing and earns no second ack.
	req.NoError(player.WriteJSON(map[string]any{"type": "submit-answer", "code": code, "choice": "0"}))

	// The server ends the round on its own.
	result := readEvent(t, player)
	req.Equal("round-result", result["type"])
	req.Equal(float64(builtinQuestions()[0].Correct), result["correct"])

	scoreboard, _ := result["scoreboard"].([]any)
	req.Len(scoreboard, 1)
	first, _ := scoreboard[0].(map[string]any)
	req.Equal("Bea", first["name"])
	req.Equal(float64(1), first["score"])

	result = readEvent(t, host)
	req.Equal("round-result", result["type"])

	// Both connections return to the lobby after the scoreboard pause.
	lobby = readEvent(t, player)
	req.Equal("lobby-state", lobby["type"])
	lobby = readEvent(t, host)
	req.Equal("lobby-state", lobby["type"])

	// The host leaving closes the room for everyone.
	req.NoError(host.Close())

	notice := readEvent(t, player)
	req.Equal("error", notice["type"])
	req.Contains(notice["message"], "Host left")

	req.Eventually(func() bool {
		resp, err := http.Get(srv.URL + "/quiz/" + code)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPlayerDisconnectOverWebsocket(t *testing.T) {
	req := require.New(t)

	cfg := &Config{
		roundDuration: time.Minute,
		resultDelay:   time.Minute,
	}
	srv := newQuizServer(t, cfg)

	host := dialQuiz(t, srv)
	req.NoError(host.WriteJSON(map[string]any{"type": "create-room"}))
	created := readEvent(t, host)
	code, _ := created["code"].(string)

	// A player joining with no name gets a default one.
	player := dialQuiz(t, srv)
	req.NoError(player.WriteJSON(map[string]any{"type": "join-room", "code": code}))

	joined := readEvent(t, player)
	req.Equal(defaultPlayerName, joined["name"])

	lobby := readEvent(t, host)
	req.Equal([]any{defaultPlayerName}, lobby["players"])

	// Their departure shrinks the lobby but leaves the room running.
	req.NoError(player.Close())

	lobby = readEvent(t, host)
	req.Equal("lobby-state", lobby["type"])
	req.Equal([]any{}, lobby["players"])

	resp, err := http.Get(srv.URL + "/quiz/" + code)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}
