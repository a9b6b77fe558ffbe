package internal

import (
	"encoding/json"
	"testing"

	"github.com/barquiz/trivia-server/internal/common"
)

func newTestClient(id uint64) *Client {
	return &Client{
		id:   id,
		send: make(chan []byte, 16),
	}
}

// nextFrame pops the client's next queued frame, failing if there is none.
func nextFrame(t *testing.T, c *Client) common.Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env common.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("could not decode frame %s: %v", raw, err)
		}
		return env
	default:
		t.Fatal("expected a queued frame")
		return common.Envelope{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame %s", raw)
	default:
	}
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	rooms := InitRooms()
	a := newTestClient(1)
	b := newTestClient(2)
	outsider := newTestClient(3)

	rooms.Join(a, "game-4217")
	rooms.Join(b, "game-4217")
	rooms.Join(outsider, "game-9999")

	rooms.Broadcast("game-4217", common.EventGameStarted, map[string]int{"n": 1})

	for _, c := range []*Client{a, b} {
		env := nextFrame(t, c)
		if env.Event != common.EventGameStarted {
			t.Errorf("expected %s, got %s", common.EventGameStarted, env.Event)
		}
		if env.Ack != nil {
			t.Error("broadcasts must not carry an ack")
		}
	}
	assertNoFrame(t, outsider)
}

func TestLeaveStopsDelivery(t *testing.T) {
	rooms := InitRooms()
	c := newTestClient(1)
	rooms.Join(c, "host-4217")
	rooms.Leave(c, "host-4217")

	rooms.Broadcast("host-4217", common.EventTeamJoined, nil)
	assertNoFrame(t, c)
}

func TestRemoveClientLeavesEveryRoom(t *testing.T) {
	rooms := InitRooms()
	c := newTestClient(1)
	rooms.Join(c, "game-4217")
	rooms.Join(c, "host-4217")

	rooms.RemoveClient(c)

	rooms.Broadcast("game-4217", common.EventGameEnded, nil)
	rooms.Broadcast("host-4217", common.EventGameEnded, nil)
	assertNoFrame(t, c)
}

func TestReplyCarriesAck(t *testing.T) {
	rooms := InitRooms()
	c := newTestClient(1)

	rooms.Reply(c, common.EventHostCreateGame, 17, common.StartGameReply{Success: true})

	env := nextFrame(t, c)
	if env.Event != common.EventHostCreateGame {
		t.Errorf("unexpected event %s", env.Event)
	}
	ack, ok := env.Ack.(float64)
	if !ok || ack != 17 {
		t.Errorf("expected ack 17, got %v", env.Ack)
	}
}

func TestEnqueueAfterCloseIsSafe(t *testing.T) {
	c := newTestClient(1)
	c.closeSend()
	c.closeSend() // double close must not panic

	if c.enqueue([]byte("{}")) {
		t.Error("enqueue succeeded on a closed client")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	c := &Client{id: 1, send: make(chan []byte, 1)}
	if !c.enqueue([]byte("{}")) {
		t.Fatal("first enqueue failed")
	}
	if c.enqueue([]byte("{}")) {
		t.Error("expected the second enqueue to drop")
	}
}
