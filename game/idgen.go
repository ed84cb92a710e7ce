package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

type UniqueIdGenerator interface {
	RoomID() string
	PlayerID() string
	MessageID() string
}

const roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const roomIDSize = 6

type idGen struct{}

func NewIdGen() UniqueIdGenerator {
	return idGen{}
}

// RoomID returns a short shareable code. Uniqueness is checked against the
// store by the caller.
func (idGen) RoomID() string {
	b := make([]byte, roomIDSize)
	for i := range b {
		b[i] = roomIDAlphabet[rand.IntN(len(roomIDAlphabet))]
	}
	return string(b)
}

func (idGen) PlayerID() string {
	return "player_" + uuid.NewString()
}

func (idGen) MessageID() string {
	return uuid.NewString()
}
