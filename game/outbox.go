package game

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"pictobattle/broker"
	"pictobattle/domain"
)

type outItem struct {
	conn Conn
	env  broker.Envelope
	ev   Outbound
}

// outbox collects the events of one room job. They are sent only once the
// job succeeded, in the order they were queued.
type outbox struct {
	c            *Coordinator
	roomID       string
	items        []outItem
	roomsChanged bool
}

func (c *Coordinator) newOutbox(roomID string) *outbox {
	return &outbox{c: c, roomID: roomID}
}

func (o *outbox) toConn(conn Conn, ev Outbound) {
	o.items = append(o.items, outItem{conn: conn, ev: ev})
}

func (o *outbox) toPlayer(playerID string, ev Outbound) {
	o.items = append(o.items, outItem{ev: ev, env: broker.Envelope{
		Scope:    broker.ScopePlayer,
		RoomID:   o.roomID,
		PlayerID: playerID,
	}})
}

func (o *outbox) toRoom(ev Outbound) {
	o.toRoomExcept("", ev)
}

func (o *outbox) toRoomExcept(playerID string, ev Outbound) {
	o.items = append(o.items, outItem{ev: ev, env: broker.Envelope{
		Scope:          broker.ScopeRoom,
		RoomID:         o.roomID,
		ExceptPlayerID: playerID,
	}})
}

// listingChanged marks the public room list for a lobby broadcast.
func (o *outbox) listingChanged() {
	o.roomsChanged = true
}

func (o *outbox) flush(ctx context.Context) {
	if o.roomsChanged {
		rooms, err := o.c.PublicRooms(ctx)
		if err != nil {
			o.c.log.Warn().Err(err).Msg("room list broadcast skipped")
		} else {
			o.items = append(o.items, outItem{ev: RoomsListEvent{Rooms: rooms}, env: broker.Envelope{Scope: broker.ScopeLobby}})
		}
	}

	for _, item := range o.items {
		frame, err := EncodeOutbound(item.ev)
		if err != nil {
			o.c.log.Error().Err(err).Str("event", string(item.ev.Kind())).Msg("encode failed")
			continue
		}
		if item.conn != nil {
			o.c.send(item.conn, frame)
			continue
		}
		env := item.env
		env.Origin = o.c.origin
		env.Kind = string(item.ev.Kind())
		env.Frame = frame
		if err := o.c.bus.Publish(ctx, env); err != nil {
			o.c.log.Error().Err(err).Str("roomId", env.RoomID).Str("event", env.Kind).Msg("publish failed")
		}
	}
	o.items = nil
}

// PublicRooms lists the public rooms still in the lobby, oldest first.
func (c *Coordinator) PublicRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	rooms, err := c.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rooms, func(a, b *domain.Room) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	summaries := make([]domain.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if r.IsPublic && r.GameState == domain.StateLobby {
			summaries = append(summaries, r.Summary())
		}
	}
	return summaries, nil
}
