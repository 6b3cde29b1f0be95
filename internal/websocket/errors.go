package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client is closed")
	ErrInvalidFrame    = errors.New("invalid frame")
	ErrHubStopped      = errors.New("hub stopped")
)
