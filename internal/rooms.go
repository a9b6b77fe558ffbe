package internal

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/barquiz/trivia-server/internal/common"
)

func GameRoom(pin string) string { return "game-" + pin }
func HostRoom(pin string) string { return "host-" + pin }

// Rooms maps room names to the connections that joined them. The router does
// not interpret room names; game-<pin> and host-<pin> are dispatcher policy.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func InitRooms() *Rooms {
	return &Rooms{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (r *Rooms) Join(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (r *Rooms) Leave(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// RemoveClient drops the connection from every room it joined.
func (r *Rooms) RemoveClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room, members := range r.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

func (r *Rooms) members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]*Client, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		members = append(members, c)
	}
	return members
}

// Broadcast delivers the event to every live connection in the room. The
// payload is marshaled once; sends never block the caller.
func (r *Rooms) Broadcast(room, event string, data interface{}) {
	encoded, err := marshalEnvelope(event, nil, data)
	if err != nil {
		log.Printf("error encoding %s broadcast for room %s: %v", event, room, err)
		return
	}
	for _, c := range r.members(room) {
		c.enqueue(encoded)
	}
}

// EmitTo unicasts an event to a single connection.
func (r *Rooms) EmitTo(c *Client, event string, data interface{}) {
	encoded, err := marshalEnvelope(event, nil, data)
	if err != nil {
		log.Printf("error encoding %s event: %v", event, err)
		return
	}
	c.enqueue(encoded)
}

// Reply sends an acknowledgement carrying the caller's correlation id.
func (r *Rooms) Reply(c *Client, event string, ack interface{}, data interface{}) {
	encoded, err := marshalEnvelope(event, ack, data)
	if err != nil {
		log.Printf("error encoding %s reply: %v", event, err)
		return
	}
	c.enqueue(encoded)
}

func marshalEnvelope(event string, ack interface{}, data interface{}) ([]byte, error) {
	return json.Marshal(common.Envelope{
		Event: event,
		Data:  data,
		Ack:   ack,
	})
}
