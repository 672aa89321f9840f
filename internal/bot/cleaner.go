package bot

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// Message retention for finished game panels.
const (
	MessageDeleteInterval = 30 * time.Minute
	cleanerSweepInterval  = 5 * time.Minute
)

type deleter interface {
	Delete(msg tele.Editable) error
}

type trackedMessage struct {
	msg    *tele.Message
	sentAt time.Time
}

// MessageCleaner deletes tracked bot messages once they are older than maxAge.
type MessageCleaner struct {
	api    deleter
	clock  quartz.Clock
	maxAge time.Duration

	mu      sync.Mutex
	tracked []trackedMessage
}

// NewMessageCleaner creates a cleaner.
func NewMessageCleaner(api deleter, clock quartz.Clock, maxAge time.Duration) *MessageCleaner {
	return &MessageCleaner{api: api, clock: clock, maxAge: maxAge}
}

// Track schedules msg for deletion.
func (c *MessageCleaner) Track(msg *tele.Message) {
	if msg == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked = append(c.tracked, trackedMessage{msg: msg, sentAt: c.clock.Now()})
}

// Pending returns the number of messages waiting for deletion.
func (c *MessageCleaner) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracked)
}

// Sweep deletes every message older than maxAge.
func (c *MessageCleaner) Sweep() {
	now := c.clock.Now()

	c.mu.Lock()
	var expired []*tele.Message
	remaining := c.tracked[:0]
	for _, t := range c.tracked {
		if now.Sub(t.sentAt) >= c.maxAge {
			expired = append(expired, t.msg)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.tracked = remaining
	c.mu.Unlock()

	for _, msg := range expired {
		if err := c.api.Delete(msg); err != nil {
			log.Debug().Err(err).Int("msg_id", msg.ID).Msg("Failed to delete old message")
		}
	}
}

// Run sweeps periodically until ctx is cancelled.
func (c *MessageCleaner) Run(ctx context.Context) error {
	w := c.clock.TickerFunc(ctx, cleanerSweepInterval, func() error {
		c.Sweep()
		return nil
	}, "cleaner")
	return w.Wait()
}
