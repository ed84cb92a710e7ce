package game

import (
	"context"
	"time"
)

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func NewScheduler() Scheduler {
	return clockScheduler{}
}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type timerKind string

const (
	timerRound        timerKind = "round"
	timerIntermission timerKind = "intermission"
	timerCountdown    timerKind = "countdown"
	timerEviction     timerKind = "eviction"
)

var gameTimers = []timerKind{timerRound, timerIntermission, timerCountdown}

type timerKey struct {
	roomID string
	kind   timerKind
}

type armedTimer struct {
	timer Timer
	gen   uint64
}

type timerFunc func(ctx context.Context, out *outbox) error

// arm schedules fire on the room's mailbox, replacing any timer of the same
// kind. A replaced or disarmed timer that still fires is discarded by its
// generation. fire must re-check the room it loads before acting.
func (c *Coordinator) arm(roomID string, kind timerKind, d time.Duration, fire timerFunc) {
	key := timerKey{roomID: roomID, kind: kind}

	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	if prev, ok := c.timers[key]; ok {
		prev.timer.Stop()
	}
	c.timerGen++
	gen := c.timerGen
	t := c.sched.AfterFunc(d, func() {
		err := c.submit(c.baseCtx, roomID, func(ctx context.Context, out *outbox) error {
			if !c.claim(key, gen) {
				return nil
			}
			return fire(ctx, out)
		})
		if err != nil {
			c.log.Error().Err(err).Str("roomId", roomID).Str("timer", string(kind)).Msg("timer failed")
		}
	})
	c.timers[key] = armedTimer{timer: t, gen: gen}
}

func (c *Coordinator) claim(key timerKey, gen uint64) bool {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	armed, ok := c.timers[key]
	if !ok || armed.gen != gen {
		return false
	}
	delete(c.timers, key)
	return true
}

func (c *Coordinator) disarm(roomID string, kinds ...timerKind) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	for _, kind := range kinds {
		key := timerKey{roomID: roomID, kind: kind}
		if armed, ok := c.timers[key]; ok {
			armed.timer.Stop()
			delete(c.timers, key)
		}
		if kind == timerCountdown {
			delete(c.countdowns, roomID)
		}
	}
}

func (c *Coordinator) disarmAll() {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	for key, armed := range c.timers {
		armed.timer.Stop()
		delete(c.timers, key)
	}
	clear(c.countdowns)
}

func (c *Coordinator) armed(roomID string, kind timerKind) bool {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	_, ok := c.timers[timerKey{roomID: roomID, kind: kind}]
	return ok
}

// countdown bookkeeping lives next to the timers it drives.

func (c *Coordinator) countdownActive(roomID string) bool {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	_, ok := c.countdowns[roomID]
	return ok
}

func (c *Coordinator) setCountdown(roomID string, seconds int) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	c.countdowns[roomID] = seconds
}

func (c *Coordinator) tickCountdown(roomID string) int {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	c.countdowns[roomID]--
	return c.countdowns[roomID]
}
