package service

import (
	"log/slog"

	"baraholka/internal/metrics"
)

var hub = NewHub()

type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func GetHub() *Hub {
	return hub
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			metrics.ClientConnected()
			slog.Info("User connected", "telegram_id", client.id)

		case client := <-h.unregister:
			if h.clients[client.id] == client {
				delete(h.clients, client.id)
			}
			metrics.ClientDisconnected()
			slog.Info("User disconnected", "telegram_id", client.id)
		}
	}
}
