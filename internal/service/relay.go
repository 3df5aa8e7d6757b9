package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"baraholka/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// RelayService drives one websocket connection: it subscribes the client to
// its personal channel, lets it join/leave chat channels, and forwards
// published events. Delivery is best-effort, a disconnected client misses
// the push and reconciles on the next full chat fetch.
type RelayService struct {
	relayRepo RelayRepoIn
}

func NewRelayService(relayRepo RelayRepoIn) RelayServiceIn {
	return &RelayService{
		relayRepo: relayRepo,
	}
}

func (rs *RelayService) HandleConn(ctx context.Context, client *Client) {
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pubSub := rs.relayRepo.Subscribe(ctx, client.id)
	client.outboard = pubSub.Channel()

	defer func() {
		client.hub.unregister <- client
		client.conn.Close()
		pubSub.Close()
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rs.read(ctx, client, pubSub)
	})

	g.Go(func() error {
		return rs.write(ctx, client)
	})

	err := g.Wait()
	if err != nil && err != context.Canceled {
		slog.Error("Error during handle conn", "telegram_id", client.id, "error", err)
	}
}

func (rs *RelayService) read(ctx context.Context, client *Client, pubSub *redis.PubSub) error {
	client.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			var req ChannelRequest
			if err := client.conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNoStatusReceived,
					websocket.CloseNormalClosure) {
					slog.Error("Websocket close error", "error", err)
				}
				return context.Canceled
			}

			switch req.Type {
			case domain.JoinChatType:
				if err := pubSub.Subscribe(ctx, ChatChannel(req.ChatID)); err != nil {
					slog.Error("Failed to join chat channel",
						"telegram_id", client.id,
						"chat_id", req.ChatID,
						"error", err,
					)
					continue
				}
				slog.Info("Client joined chat channel", "telegram_id", client.id, "chat_id", req.ChatID)

			case domain.LeaveChatType:
				if err := pubSub.Unsubscribe(ctx, ChatChannel(req.ChatID)); err != nil {
					slog.Error("Failed to leave chat channel",
						"telegram_id", client.id,
						"chat_id", req.ChatID,
						"error", err,
					)
				}

			default:
				slog.Warn("Unknown inbound type", "type", req.Type)
			}
		}
	}
}

func (rs *RelayService) write(ctx context.Context, client *Client) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Error("Failed to write ping message", "error", err)
				return err
			}
		case msg, ok := <-client.outboard:
			if !ok {
				return nil
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Error("Failed to unmarshal outboard event", "error", err)
				return err
			}

			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(&event); err != nil {
				slog.Error("Failed to writeJSON", "error", err)
				return err
			}
		}
	}
}
