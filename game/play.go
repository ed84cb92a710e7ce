package game

import (
	"context"
	"fmt"

	"pictobattle/domain"
)

// Draw relays a finished stroke from the drawer. Nothing is stored and
// strokes from anyone else are dropped.
func (c *Coordinator) Draw(ctx context.Context, conn Conn, stroke domain.Stroke) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsDrawing {
			return nil
		}
		out.toRoomExcept(player.ID, DrawUpdateEvent{Stroke: stroke})
		return nil
	})
}

// DrawSegment appends a live segment to the round's stroke history, which
// is replayed to reconnecting players, and relays it.
func (c *Coordinator) DrawSegment(ctx context.Context, conn Conn, stroke domain.Stroke) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsDrawing || room.GameState != domain.StateDrawing {
			return nil
		}
		room.Strokes = append(room.Strokes, stroke)
		if err := c.save(ctx, room); err != nil {
			return err
		}
		out.toRoomExcept(player.ID, DrawUpdateEvent{Stroke: stroke})
		return nil
	})
}

func (c *Coordinator) ClearCanvas(ctx context.Context, conn Conn) error {
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		if !player.IsDrawing {
			return domain.ErrNotDrawer
		}
		room.Strokes = nil
		if err := c.save(ctx, room); err != nil {
			return err
		}
		out.toRoom(CanvasClearedEvent{})
		return nil
	})
}

// SendMessage treats every chat line as a possible guess. Correct guesses
// are announced without their content; everything else is broadcast as chat
// after any private hint or close-guess notice.
func (c *Coordinator) SendMessage(ctx context.Context, conn Conn, content string) error {
	if isBlank(content) {
		return nil
	}
	return c.inRoom(ctx, conn, func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error {
		res, err := c.machine.guess(room, player.ID, content)
		if err != nil {
			return err
		}

		if res.correct {
			out.toRoom(CorrectGuessEvent{
				PlayerID:     player.ID,
				PlayerName:   player.Name,
				Points:       res.points,
				IsFirstGuess: res.firstGuess,
			})
			out.toRoom(RoomUpdatedEvent{Room: room.PublicView()})
			if res.roundOver {
				c.endRound(out, room)
			}
			return c.save(ctx, room)
		}

		if res.hintDirty {
			if err := c.save(ctx, room); err != nil {
				return err
			}
			out.toConn(conn, WordHintUpdateEvent{
				PlayerID:          player.ID,
				RevealedPositions: res.revealed,
				HintWord:          hintWord(room.CurrentWord, res.revealed),
			})
		}
		if res.close {
			out.toConn(conn, CloseGuessEvent{Message: fmt.Sprintf("'%s' is close!", content)})
		}
		out.toRoom(NewMessageEvent{Message: res.message})
		return nil
	})
}
