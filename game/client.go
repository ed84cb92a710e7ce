package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"pictobattle/domain"
)

var ErrClientClosed = errors.New("client-closed")

const (
	clientInboxSize = 256
	eventsPerSecond = 60
	eventsBurst     = 120
)

// EventHandler receives the decoded events of a client, in order.
type EventHandler interface {
	Handle(ctx context.Context, conn Conn, ev Inbound)
	Disconnect(ctx context.Context, conn Conn)
}

// client is one websocket peer. ReadPump decodes and dispatches its events,
// WritePump drains its inbox and keeps it alive with pings.
type client struct {
	id          string
	socket      WebsocketConnection
	inbox       chan []byte
	rateLimiter *rate.Limiter
	ctx         context.Context
	cancelCtx   context.CancelFunc
	closeOnce   sync.Once
}

func NewClient(id string, socket WebsocketConnection) *client {
	ctx, cancel := context.WithCancel(context.Background())
	return &client{
		id:          id,
		socket:      socket,
		inbox:       make(chan []byte, clientInboxSize),
		rateLimiter: rate.NewLimiter(eventsPerSecond, eventsBurst),
		ctx:         ctx,
		cancelCtx:   cancel,
	}
}

func (cl *client) ID() string {
	return cl.id
}

// Send queues a frame. A client that lets its inbox fill up is dropped.
func (cl *client) Send(frame []byte) error {
	select {
	case <-cl.ctx.Done():
		return ErrClientClosed
	default:
	}
	select {
	case cl.inbox <- frame:
		return nil
	default:
		log.Warn().Str("conn", cl.id).Msg("client inbox full, closing")
		cl.close("slow-consumer")
		return ErrClientClosed
	}
}

func (cl *client) close(code string) {
	cl.closeOnce.Do(func() {
		cl.cancelCtx()
		cl.socket.Close(code)
	})
}

func (cl *client) ReadPump(h EventHandler) {
	defer func() {
		cl.close("")
		h.Disconnect(context.Background(), cl)
	}()

	for {
		data, err := cl.socket.Read()
		if err != nil {
			return
		}
		if !cl.rateLimiter.Allow() {
			log.Debug().Str("conn", cl.id).Msg("event dropped by rate limit")
			continue
		}
		ev, err := DecodeInbound(data)
		if err != nil {
			log.Debug().Err(err).Str("conn", cl.id).Msg("undecodable event")
			if frame, encErr := EncodeOutbound(errorEvent(domain.ErrInvalidEvent)); encErr == nil {
				cl.Send(frame)
			}
			continue
		}
		h.Handle(cl.ctx, cl, ev)
	}
}

func (cl *client) WritePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cl.close("")

	for {
		select {
		case <-cl.ctx.Done():
			return
		case data := <-cl.inbox:
			if err := cl.socket.Write(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := cl.socket.Ping(); err != nil {
				return
			}
		}
	}
}
