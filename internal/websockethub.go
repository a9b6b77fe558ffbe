// Adapted from https://github.com/gorilla/websocket/blob/master/examples/chat/hub.go
// Copyright 2013 The Gorilla WebSocket Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"log"

	"github.com/barquiz/trivia-server/internal/shutdown"
)

type inboundFrame struct {
	client  *Client
	payload []byte
}

// Hub maintains the set of active clients and feeds inbound frames to the
// dispatcher. Each frame is handled in its own goroutine; ordering within a
// game comes from the game's lock, ordering towards any single client from
// its send queue.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound frames from the clients.
	incoming chan inboundFrame

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	rooms *Rooms

	dispatcher *Dispatcher

	clientURL string
}

func NewHub(games *Games, clientURL string) *Hub {
	rooms := InitRooms()
	return &Hub{
		incoming:   make(chan inboundFrame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      rooms,
		dispatcher: InitDispatcher(games, rooms),
		clientURL:  clientURL,
	}
}

func (h *Hub) Run() {
	ctx := shutdown.Context()
	defer shutdown.NotifyShutdownComplete()

	for {
		select {
		case <-ctx.Done():
			log.Print("websockethub received shutdown signal, exiting")
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			h.deregisterClient(client)

		case frame := <-h.incoming:
			go h.dispatcher.Dispatch(frame.client, frame.payload)
		}
	}
}

func (h *Hub) deregisterClient(client *Client) {
	if client == nil {
		return
	}
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closeSend()
	h.rooms.RemoveClient(client)
	log.Printf("cleaned up client %d", client.id)

	go h.dispatcher.ClientDisconnected(client.id)
}
