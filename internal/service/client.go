package service

import (
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	id       string
	conn     *websocket.Conn
	outboard <-chan *redis.Message
	hub      *Hub
}

func NewClient(telegramID string, conn *websocket.Conn, hub *Hub) *Client {
	client := &Client{
		id:   telegramID,
		conn: conn,
		hub:  hub,
	}

	hub.register <- client
	return client
}
