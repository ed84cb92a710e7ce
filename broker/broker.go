package broker

import (
	"context"
	"encoding/json"
)

type Scope string

const (
	ScopeRoom   Scope = "room"
	ScopeLobby  Scope = "lobby"
	ScopePlayer Scope = "player"
)

// Envelope carries one encoded outbound frame to every process. Each process
// writes it to the local connections matching the scope.
type Envelope struct {
	Origin         string          `json:"origin"`
	Scope          Scope           `json:"scope"`
	RoomID         string          `json:"roomId,omitempty"`
	PlayerID       string          `json:"playerId,omitempty"`
	ExceptPlayerID string          `json:"exceptPlayerId,omitempty"`
	Kind           string          `json:"kind"`
	Frame          json.RawMessage `json:"frame"`
}

type Handler func(Envelope)

type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe registers h for every envelope published by any process,
	// this one included. Delivery stops when ctx is done.
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}
