package domain

import "errors"

// GameError is a user-facing rejection. Code is stable and sent to clients
// next to the readable message.
type GameError struct {
	Code    string
	Message string
}

func (e *GameError) Error() string {
	return e.Code
}

var (
	ErrRoomNotFound        = &GameError{"room-not-found", "Room not found"}
	ErrGameInProgress      = &GameError{"game-in-progress", "Game already in progress"}
	ErrRoomFull            = &GameError{"room-full", "Room is full"}
	ErrAlreadyInRoom       = &GameError{"already-in-room", "You are already in a room"}
	ErrNotInRoom           = &GameError{"not-in-room", "You are not in a room"}
	ErrNotAdmin            = &GameError{"not-admin", "Only the admin can do that"}
	ErrNotEnoughPlayers    = &GameError{"not-enough-players", "Need at least 2 players to start"}
	ErrCountdownInProgress = &GameError{"countdown-in-progress", "Game start countdown already in progress"}
	ErrNotDrawer           = &GameError{"not-drawer", "Only the drawer can do that"}
	ErrWrongPhase          = &GameError{"wrong-phase", "Not allowed at this stage of the game"}
	ErrInvalidWord         = &GameError{"invalid-word", "That word is not one of the options"}
	ErrDrawerCannotGuess   = &GameError{"drawer-cannot-guess", "The drawer cannot send messages while drawing"}
	ErrCannotKickAdmin     = &GameError{"cannot-kick-admin", "Cannot kick the admin"}
	ErrPlayerNotFound      = &GameError{"player-not-found", "Player not found"}
	ErrRoomGone            = &GameError{"room-gone", "Room no longer exists"}
	ErrGameEnded           = &GameError{"game-ended", "Game has already ended"}
	ErrAlreadyPresent      = &GameError{"already-present", "Player already in room"}
	ErrInvalidEvent        = &GameError{"invalid-event", "Malformed event"}
	ErrServiceUnavailable  = &GameError{"service-unavailable", "Service temporarily unavailable"}
)

var (
	ErrStoreUnavailable = errors.New("store-unavailable")
	ErrLockTimeout      = errors.New("lock-timeout")
)

// AsGameError unwraps err into a GameError when it carries one.
func AsGameError(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
