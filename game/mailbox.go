package game

import (
	"context"
	"fmt"

	"pictobattle/domain"
)

type jobFunc func(ctx context.Context, out *outbox) error

type job struct {
	ctx  context.Context
	run  jobFunc
	err  error
	done chan struct{}
}

// mailbox serializes the jobs of one room. It lives while at least one
// submitter waits on it.
type mailbox struct {
	jobs chan *job
	refs int
}

func (c *Coordinator) acquireMailbox(roomID string) *mailbox {
	c.mailboxMu.Lock()
	defer c.mailboxMu.Unlock()
	mb, ok := c.mailboxes[roomID]
	if !ok {
		mb = &mailbox{jobs: make(chan *job, 64)}
		c.mailboxes[roomID] = mb
		go c.drain(roomID, mb)
	}
	mb.refs++
	return mb
}

func (c *Coordinator) releaseMailbox(roomID string, mb *mailbox) {
	c.mailboxMu.Lock()
	defer c.mailboxMu.Unlock()
	mb.refs--
	if mb.refs == 0 {
		delete(c.mailboxes, roomID)
		close(mb.jobs)
	}
}

// submit runs fn on the room's mailbox and waits for it. Jobs must never
// submit to a mailbox themselves.
func (c *Coordinator) submit(ctx context.Context, roomID string, fn jobFunc) error {
	j := &job{ctx: ctx, run: fn, done: make(chan struct{})}
	mb := c.acquireMailbox(roomID)
	defer c.releaseMailbox(roomID, mb)

	mb.jobs <- j
	<-j.done
	return j.err
}

func (c *Coordinator) drain(roomID string, mb *mailbox) {
	for j := range mb.jobs {
		j.err = c.runJob(roomID, j)
		close(j.done)
	}
}

// runJob holds the room lock across the job and the flush of its events so
// that processes sharing the store apply room changes one at a time.
func (c *Coordinator) runJob(roomID string, j *job) (err error) {
	ctx := context.WithoutCancel(j.ctx)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("roomId", roomID).Str("panic", fmt.Sprint(r)).Msg("room job panicked")
			err = domain.ErrServiceUnavailable
		}
	}()

	unlock, err := c.locker.LockRoom(ctx, roomID)
	if err != nil {
		c.log.Warn().Err(err).Str("roomId", roomID).Msg("room lock unavailable")
		return domain.ErrServiceUnavailable
	}
	defer unlock()

	out := c.newOutbox(roomID)
	if err := j.run(ctx, out); err != nil {
		return err
	}
	out.flush(ctx)
	return nil
}
