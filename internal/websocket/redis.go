package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the Redis channel envelopes travel on between instances.
const DefaultChannel = "stringify:events"

// Publisher delivers a payload to every subscriber of a destination.
type Publisher interface {
	Publish(ctx context.Context, destination string, payload any) error
}

// RedisBridge publishes envelopes through Redis so that clients connected to
// any instance receive them. Every instance runs Listen and hands incoming
// envelopes to its local Hub.
type RedisBridge struct {
	client  *redis.Client
	hub     *Hub
	channel string
	log     *slog.Logger
}

func NewRedisBridge(client *redis.Client, hub *Hub, channel string, log *slog.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{client: client, hub: hub, channel: channel, log: log}
}

func (b *RedisBridge) Publish(ctx context.Context, destination string, payload any) error {
	data, err := encodeEnvelope(destination, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Listen forwards envelopes from Redis to the hub until ctx is done. ready,
// when not nil, is closed once the subscription is confirmed.
func (b *RedisBridge) Listen(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var envelope Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.log.Warn("Dropping undecodable envelope", "error", err)
				continue
			}
			b.hub.Deliver(envelope.Destination, []byte(msg.Payload))
		}
	}
}
