package game

import (
	"context"
	"errors"
	"strings"

	"pictobattle/domain"
)

const roomIDAttempts = 10

func (c *Coordinator) newRoomID(ctx context.Context) (string, error) {
	for range roomIDAttempts {
		id := c.ids.RoomID()
		exists, err := c.store.RoomExists(ctx, id)
		if err != nil {
			c.log.Error().Err(err).Msg("room id check failed")
			return "", domain.ErrServiceUnavailable
		}
		if !exists {
			return id, nil
		}
	}
	c.log.Error().Msg("could not find a free room id")
	return "", domain.ErrServiceUnavailable
}

func publicPlayer(p *domain.Player) *domain.Player {
	cp := *p
	cp.ClientID = ""
	return &cp
}

func (c *Coordinator) bound(conn Conn) bool {
	s, ok := c.dir.Lookup(conn.ID())
	return ok && s.RoomID != ""
}

func (c *Coordinator) CreateRoom(ctx context.Context, conn Conn, p CreateRoom) error {
	if c.bound(conn) {
		return domain.ErrAlreadyInRoom
	}
	name := strings.TrimSpace(p.PlayerName)
	if name == "" {
		return domain.ErrInvalidEvent
	}

	roomID, err := c.newRoomID(ctx)
	if err != nil {
		return err
	}

	return c.submit(ctx, roomID, func(ctx context.Context, out *outbox) error {
		player := &domain.Player{
			ID:       c.ids.PlayerID(),
			Name:     name,
			Avatar:   p.PlayerAvatar,
			ClientID: p.ClientID,
		}
		room := domain.NewRoom(roomID, p.Settings(), player, c.machine.millis())
		if room.Name == "" {
			room.Name = name + "'s room"
		}
		if err := c.save(ctx, room); err != nil {
			return err
		}

		c.dir.Bind(conn.ID(), roomID, player.ID, player.ClientID)
		c.log.Info().Str("roomId", roomID).Str("playerId", player.ID).Msg("room created")

		out.toConn(conn, RoomCreatedEvent{RoomID: roomID, Room: room.ViewFor(player.ID), PlayerID: player.ID})
		out.listingChanged()
		return nil
	})
}

// JoinRoom seats the caller, or restores them when a live reconnection
// record matches their client id.
func (c *Coordinator) JoinRoom(ctx context.Context, conn Conn, p JoinRoom) error {
	if c.bound(conn) {
		return domain.ErrAlreadyInRoom
	}
	roomID := strings.ToUpper(strings.TrimSpace(p.RoomID))
	if roomID == "" {
		return domain.ErrRoomNotFound
	}

	return c.submit(ctx, roomID, func(ctx context.Context, out *outbox) error {
		room, loadErr := c.store.GetRoom(ctx, roomID)
		if loadErr != nil && !errors.Is(loadErr, domain.ErrRoomNotFound) {
			// Fail closed without touching any reconnection record.
			c.log.Warn().Err(loadErr).Str("roomId", roomID).Msg("room load failed")
			return domain.ErrRoomNotFound
		}

		if p.ClientID != "" {
			rec, err := c.store.GetDisconnected(ctx, roomID, p.ClientID)
			if err != nil {
				c.log.Warn().Err(err).Str("roomId", roomID).Msg("reconnection lookup failed")
			}
			if rec != nil {
				return c.reconnect(ctx, out, conn, roomID, room, rec, p.ClientID)
			}
		}

		if loadErr != nil {
			return domain.ErrRoomNotFound
		}
		if room.GameState != domain.StateLobby {
			return domain.ErrGameInProgress
		}
		if len(room.Players) >= room.MaxPlayers {
			return domain.ErrRoomFull
		}

		name := strings.TrimSpace(p.PlayerName)
		if name == "" {
			return domain.ErrInvalidEvent
		}
		player := &domain.Player{
			ID:       c.ids.PlayerID(),
			Name:     name,
			Avatar:   p.PlayerAvatar,
			ClientID: p.ClientID,
			IsAdmin:  len(room.Players) == 0,
		}
		room.Players = append(room.Players, player)
		room.NormalizeAdmin()
		if err := c.save(ctx, room); err != nil {
			return err
		}

		c.dir.Bind(conn.ID(), roomID, player.ID, player.ClientID)
		c.disarm(roomID, timerEviction)
		c.log.Info().Str("roomId", roomID).Str("playerId", player.ID).Msg("player joined")

		out.toConn(conn, RoomJoinedEvent{Room: room.ViewFor(player.ID), PlayerID: player.ID, Strokes: room.Strokes})
		out.toRoom(PlayerJoinedEvent{Player: publicPlayer(player)})
		out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
		out.listingChanged()
		return nil
	})
}

// reconnect restores a player from their reconnection record. room is nil
// when the room no longer exists. The first player back in a room that sat
// empty between rounds gets the intermission going again.
func (c *Coordinator) reconnect(ctx context.Context, out *outbox, conn Conn, roomID string, room *domain.Room, rec *domain.DisconnectedPlayer, clientID string) error {
	forget := func() {
		if err := c.store.DeleteDisconnected(ctx, roomID, clientID); err != nil {
			c.log.Warn().Err(err).Str("roomId", roomID).Msg("reconnection record cleanup failed")
		}
	}

	if room == nil {
		forget()
		return domain.ErrRoomGone
	}
	if room.GameState == domain.StateGameEnd {
		forget()
		return domain.ErrGameEnded
	}
	if room.FindPlayer(rec.Player.ID) != nil {
		return domain.ErrAlreadyPresent
	}
	if len(room.Players) >= room.MaxPlayers {
		return domain.ErrRoomFull
	}

	player := rec.Player
	player.ClientID = clientID
	player.IsDrawing = false
	if room.GameState != domain.StateDrawing || room.CurrentRound != rec.Round {
		player.HasGuessed = false
	}
	if room.GameState == domain.StateLobby {
		player.Score = 0
	}
	wasEmpty := len(room.Players) == 0
	room.Players = append(room.Players, &player)
	room.NormalizeAdmin()
	if err := c.save(ctx, room); err != nil {
		return err
	}
	forget()

	c.dir.Bind(conn.ID(), roomID, player.ID, clientID)
	c.disarm(roomID, timerEviction)
	if wasEmpty && room.GameState == domain.StateRoundEnd {
		c.armIntermission(room)
	}
	c.log.Info().Str("roomId", roomID).Str("playerId", player.ID).Msg("player reconnected")

	out.toConn(conn, RoomJoinedEvent{Room: room.ViewFor(player.ID), PlayerID: player.ID, Reconnected: true, Strokes: room.Strokes})
	if room.GameState == domain.StateDrawing && room.CurrentWord != "" {
		out.toConn(conn, WordSelectedEvent{
			Word:       hintWord(room.CurrentWord, room.Revealed(player.ID)),
			WordLength: wordLength(room.CurrentWord),
		})
	}
	out.toRoom(PlayerReconnectedEvent{Player: publicPlayer(&player)})
	out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
	out.listingChanged()
	return nil
}

// LeaveRoom detaches the caller. It is a no-op for a connection outside
// any room. The connection stays bound when the room could not be saved,
// so the player can try again.
func (c *Coordinator) LeaveRoom(ctx context.Context, conn Conn) error {
	s, ok := c.dir.Lookup(conn.ID())
	if !ok || s.RoomID == "" {
		return nil
	}

	return c.submit(ctx, s.RoomID, func(ctx context.Context, out *outbox) error {
		room, err := c.store.GetRoom(ctx, s.RoomID)
		if errors.Is(err, domain.ErrRoomNotFound) {
			c.dir.Unbind(conn.ID())
			return nil
		}
		if err != nil {
			c.log.Warn().Err(err).Str("roomId", s.RoomID).Msg("room load failed")
			return domain.ErrServiceUnavailable
		}
		if !c.removePlayer(out, room, s.PlayerID) {
			c.dir.Unbind(conn.ID())
			return nil
		}
		if err := c.save(ctx, room); err != nil {
			return err
		}
		c.dir.Unbind(conn.ID())
		c.log.Info().Str("roomId", room.ID).Str("playerId", s.PlayerID).Msg("player left")
		return nil
	})
}

// Disconnect handles a dropped connection. Unless the game is over, the
// player gets a reconnection record before the normal leave flow runs.
func (c *Coordinator) Disconnect(ctx context.Context, conn Conn) {
	s, ok := c.dir.Lookup(conn.ID())
	c.dir.Unregister(conn.ID())
	if !ok || s.RoomID == "" {
		return
	}

	err := c.submit(ctx, s.RoomID, func(ctx context.Context, out *outbox) error {
		room, err := c.loadRoom(ctx, s.RoomID)
		if err != nil {
			return nil
		}
		player := room.FindPlayer(s.PlayerID)
		if player == nil {
			return nil
		}

		if room.GameState != domain.StateGameEnd && s.ClientID != "" {
			rec := domain.DisconnectedPlayer{
				Player:         *player,
				RoomID:         room.ID,
				DisconnectedAt: c.machine.millis(),
				Round:          room.CurrentRound,
			}
			if err := c.store.SaveDisconnected(ctx, s.ClientID, rec, c.timings.ReconnectWindow); err != nil {
				c.log.Warn().Err(err).Str("roomId", room.ID).Msg("reconnection record not saved")
			}
		}

		c.removePlayer(out, room, player.ID)
		c.log.Info().Str("roomId", room.ID).Str("playerId", player.ID).Msg("player disconnected")
		return c.save(ctx, room)
	})
	if err != nil {
		c.log.Error().Err(err).Str("roomId", s.RoomID).Msg("disconnect cleanup failed")
	}
}

func (c *Coordinator) KickPlayer(ctx context.Context, conn Conn, targetID string) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsAdmin {
			return domain.ErrNotAdmin
		}
		target := room.FindPlayer(targetID)
		if target == nil {
			return domain.ErrPlayerNotFound
		}
		if target.IsAdmin {
			return domain.ErrCannotKickAdmin
		}

		out.toPlayer(target.ID, PlayerKickedEvent{Message: "You have been kicked from the room"})
		c.removePlayer(out, room, target.ID)
		c.log.Info().Str("roomId", room.ID).Str("playerId", target.ID).Msg("player kicked")
		return c.save(ctx, room)
	})
}

// removePlayer takes a player out of a loaded room and queues the resulting
// events. A room left empty keeps its game and scores but has its game
// timers stopped and is scheduled for eviction. Losing the drawer ends the
// round, as does losing the last player who had not guessed yet.
func (c *Coordinator) removePlayer(out *outbox, room *domain.Room, playerID string) bool {
	removed := room.RemovePlayer(playerID)
	if removed == nil {
		return false
	}
	out.toRoom(PlayerLeftEvent{PlayerID: playerID})
	out.listingChanged()

	if len(room.Players) == 0 {
		c.disarm(room.ID, gameTimers...)
		room.CountdownEndsAt = 0
		if room.GameState == domain.StateWordSelection || room.GameState == domain.StateDrawing {
			c.machine.endRound(room)
		}
		c.armEviction(room.ID)
		return true
	}

	room.NormalizeAdmin()
	switch {
	case removed.IsDrawing && (room.GameState == domain.StateWordSelection || room.GameState == domain.StateDrawing):
		c.endRound(out, room)
	case room.GameState == domain.StateDrawing && room.AllGuessed():
		c.endRound(out, room)
	}
	out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
	return true
}

// armEviction deletes the room once it has stayed empty for the eviction
// delay.
func (c *Coordinator) armEviction(roomID string) {
	c.arm(roomID, timerEviction, c.timings.EvictionDelay, func(ctx context.Context, out *outbox) error {
		room, err := c.store.GetRoom(ctx, roomID)
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(room.Players) > 0 {
			return nil
		}
		c.disarm(roomID, gameTimers...)
		if err := c.store.DeleteRoom(ctx, roomID); err != nil {
			return err
		}
		c.log.Info().Str("roomId", roomID).Msg("empty room evicted")
		out.listingChanged()
		return nil
	})
}
