package game

import (
	"context"
	"time"

	"pictobattle/domain"
)

func (c *Coordinator) StartGame(ctx context.Context, conn Conn) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsAdmin {
			return domain.ErrNotAdmin
		}
		if room.GameState != domain.StateLobby {
			return domain.ErrGameInProgress
		}
		if c.countdownActive(room.ID) || room.CountdownEndsAt > c.machine.millis() {
			return domain.ErrCountdownInProgress
		}

		unready := room.Unready()
		if len(unready) > 0 {
			room.CountdownEndsAt = c.machine.millis() + c.timings.Countdown.Milliseconds()
			if err := c.save(ctx, room); err != nil {
				return err
			}
			c.startCountdown(out, room, len(unready))
			return nil
		}
		if err := c.beginGame(out, room); err != nil {
			return err
		}
		return c.save(ctx, room)
	})
}

// ForceStartGame skips the countdown: unready players are kicked right away.
func (c *Coordinator) ForceStartGame(ctx context.Context, conn Conn) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsAdmin {
			return domain.ErrNotAdmin
		}
		if room.GameState != domain.StateLobby {
			return domain.ErrGameInProgress
		}
		c.disarm(room.ID, timerCountdown)
		return c.kickUnreadyAndStart(ctx, out, room)
	})
}

func (c *Coordinator) startCountdown(out *outbox, room *domain.Room, unready int) {
	seconds := int(c.timings.Countdown / time.Second)
	c.setCountdown(room.ID, seconds)
	out.toRoom(GameStartCountdownEvent{SecondsRemaining: seconds, UnreadyCount: unready})
	c.arm(room.ID, timerCountdown, c.timings.CountdownTick, c.countdownTick(room.ID))
	c.log.Info().Str("roomId", room.ID).Int("unready", unready).Msg("start countdown begun")
}

func (c *Coordinator) countdownTick(roomID string) timerFunc {
	return func(ctx context.Context, out *outbox) error {
		room, err := c.loadRoom(ctx, roomID)
		if err != nil || room.GameState != domain.StateLobby {
			c.disarm(roomID, timerCountdown)
			return nil
		}

		remaining := c.tickCountdown(roomID)
		unready := room.Unready()
		switch {
		case len(unready) == 0:
			c.disarm(roomID, timerCountdown)
			c.tryBeginGame(out, room)
			return c.save(ctx, room)
		case remaining <= 0:
			c.disarm(roomID, timerCountdown)
			return c.kickUnreadyAndStart(ctx, out, room)
		}

		out.toRoom(GameStartCountdownEvent{SecondsRemaining: remaining, UnreadyCount: len(unready)})
		c.arm(roomID, timerCountdown, c.timings.CountdownTick, c.countdownTick(roomID))
		return nil
	}
}

func (c *Coordinator) kickUnreadyAndStart(ctx context.Context, out *outbox, room *domain.Room) error {
	for _, p := range room.Unready() {
		out.toPlayer(p.ID, PlayerKickedEvent{Message: "You were kicked for not being ready"})
		c.removePlayer(out, room, p.ID)
		c.log.Info().Str("roomId", room.ID).Str("playerId", p.ID).Msg("unready player kicked")
	}
	c.tryBeginGame(out, room)
	return c.save(ctx, room)
}

// tryBeginGame ends the countdown and starts the game, or tells the admin
// why it could not.
func (c *Coordinator) tryBeginGame(out *outbox, room *domain.Room) {
	room.CountdownEndsAt = 0
	err := c.beginGame(out, room)
	if err == nil {
		return
	}
	ge, ok := domain.AsGameError(err)
	if !ok {
		ge = domain.ErrServiceUnavailable
	}
	if admin := room.Admin(); admin != nil {
		out.toPlayer(admin.ID, errorEvent(ge))
	}
}

func (c *Coordinator) beginGame(out *outbox, room *domain.Room) error {
	if err := c.machine.startGame(room); err != nil {
		return err
	}
	c.log.Info().Str("roomId", room.ID).Int("players", len(room.Players)).Msg("game started")
	out.toRoom(GameStartedEvent{Room: room.PublicView()})
	c.announceRound(out, room)
	out.listingChanged()
	return nil
}

// announceRound sends round-start; only the drawer's copy carries the word
// options.
func (c *Coordinator) announceRound(out *outbox, room *domain.Room) {
	drawer := room.DrawingPlayerID
	out.toRoomExcept(drawer, RoundStartEvent{Room: room.PublicView()})
	out.toPlayer(drawer, RoundStartEvent{Room: room.ViewFor(drawer)})
}

func (c *Coordinator) SelectWord(ctx context.Context, conn Conn, word string) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if err := c.machine.selectWord(room, player.ID, word); err != nil {
			return err
		}
		if err := c.save(ctx, room); err != nil {
			return err
		}

		out.toConn(conn, WordSelectedEvent{Word: room.CurrentWord, WordLength: wordLength(room.CurrentWord)})
		out.toRoomExcept(player.ID, WordSelectedEvent{Word: maskWord(room.CurrentWord), WordLength: wordLength(room.CurrentWord)})
		out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
		c.armRound(room)
		return nil
	})
}

// armRound ends the drawing phase when the round duration runs out, unless
// the round it was armed for is already over.
func (c *Coordinator) armRound(room *domain.Room) {
	roomID, round, started := room.ID, room.CurrentRound, room.RoundStartTime
	c.arm(roomID, timerRound, time.Duration(room.RoundDuration)*time.Second, func(ctx context.Context, out *outbox) error {
		room, err := c.loadRoom(ctx, roomID)
		if err != nil {
			return nil
		}
		if room.GameState != domain.StateDrawing || room.CurrentRound != round || room.RoundStartTime != started {
			return nil
		}
		c.endRound(out, room)
		return c.save(ctx, room)
	})
}

// endRound closes the round on the loaded room and schedules what comes
// after the intermission. The caller saves the room.
func (c *Coordinator) endRound(out *outbox, room *domain.Room) {
	c.disarm(room.ID, timerRound)
	word := room.CurrentWord
	c.machine.endRound(room)
	out.toRoom(RoundEndEvent{Word: word, Scores: room.Ranking()})
	c.log.Info().Str("roomId", room.ID).Int("round", room.CurrentRound).Msg("round ended")
	c.armIntermission(room)
}

// armIntermission opens the next round, or finishes the game, once the
// round-end pause is over.
func (c *Coordinator) armIntermission(room *domain.Room) {
	roomID, round := room.ID, room.CurrentRound
	c.arm(roomID, timerIntermission, c.timings.RoundEndDelay, func(ctx context.Context, out *outbox) error {
		room, err := c.loadRoom(ctx, roomID)
		if err != nil {
			return nil
		}
		if room.GameState != domain.StateRoundEnd || room.CurrentRound != round {
			return nil
		}
		if c.machine.nextRound(room) {
			c.finishGame(ctx, out, room)
		} else {
			c.announceRound(out, room)
		}
		return c.save(ctx, room)
	})
}

// finishGame ranks the players and records the results. Leaderboard and
// archive failures are logged; the room still reaches game-end.
func (c *Coordinator) finishGame(ctx context.Context, out *outbox, room *domain.Room) {
	ranking := c.machine.finishGame(room)
	out.toRoom(GameEndEvent{Scores: ranking})
	out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
	c.log.Info().Str("roomId", room.ID).Msg("game ended")

	var scores []domain.HighScore
	for _, e := range ranking {
		if e.Score > 0 {
			scores = append(scores, domain.HighScore{Name: e.Name, Score: e.Score})
		}
	}
	if err := c.store.AddHighScores(ctx, scores); err != nil {
		c.log.Warn().Err(err).Str("roomId", room.ID).Msg("high scores not recorded")
	}
	if c.archive != nil {
		if err := c.archive.RecordGame(ctx, room.ID, ranking, c.machine.now()); err != nil {
			c.log.Warn().Err(err).Str("roomId", room.ID).Msg("game not archived")
		}
	}
}

func (c *Coordinator) RestartGame(ctx context.Context, conn Conn) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsAdmin {
			return domain.ErrNotAdmin
		}
		c.disarm(room.ID, gameTimers...)
		c.machine.restart(room)
		if err := c.save(ctx, room); err != nil {
			return err
		}
		c.log.Info().Str("roomId", room.ID).Msg("game restarted")
		out.toRoom(RestartGameEvent{})
		out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
		out.listingChanged()
		return nil
	})
}

func (c *Coordinator) TogglePlayerReady(ctx context.Context, conn Conn) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if room.GameState != domain.StateLobby {
			return domain.ErrWrongPhase
		}
		player.IsReady = !player.IsReady
		if err := c.save(ctx, room); err != nil {
			return err
		}
		out.toRoom(PlayerReadyEvent{PlayerID: player.ID, IsReady: player.IsReady})
		out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
		return nil
	})
}
