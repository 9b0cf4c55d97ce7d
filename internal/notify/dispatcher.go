// File: internal/notify/dispatcher.go
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

const (
	defaultQueueSize   = 64
	channelSendTimeout = 20 * time.Second
)

// ErrDispatcherStopped is returned by Notify after Stop has been called.
var ErrDispatcherStopped = errors.New("notification dispatcher is stopped")

// Dispatcher is the asynchronous escalation sink. Notify enqueues and
// returns immediately; a single worker drains the queue and fans each
// notification out to every channel that accepts its priority. When the
// queue is full the notification is dropped, not blocked on.
type Dispatcher struct {
	queue    chan schemas.Notification
	channels []Channel
	logger   *zap.Logger

	// mu serializes enqueues against Stop closing the queue, so a late
	// Notify returns ErrDispatcherStopped instead of sending on a closed
	// channel.
	mu      sync.RWMutex
	stopped bool
	stop    sync.Once
	done    chan struct{}
}

// NewDispatcher builds the dispatcher with the channels enabled in cfg and
// starts its worker. Callers must Stop it to release the worker.
func NewDispatcher(cfg config.NotifyConfig, logger *zap.Logger) (*Dispatcher, error) {
	var channels []Channel
	if cfg.Telegram.Enabled {
		ch, err := NewTelegramChannel(cfg.Telegram, logger)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	if cfg.Email.Enabled {
		ch, err := NewEmailChannel(cfg.Email, logger)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return newDispatcher(cfg.QueueSize, channels, logger), nil
}

func newDispatcher(queueSize int, channels []Channel, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		queue:    make(chan schemas.Notification, queueSize),
		channels: channels,
		logger:   logger.Named("notify"),
		done:     make(chan struct{}),
	}
	go d.worker()
	return d
}

// Notify implements schemas.Notifier. It never blocks on delivery.
func (d *Dispatcher) Notify(_ context.Context, n schemas.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- n:
		return nil
	default:
		d.logger.Warn("Notification queue full, dropping",
			zap.String("event", string(n.Event)),
			zap.String("sender", n.Sender))
		return nil
	}
}

// Stop drains already-enqueued notifications and waits for the worker to
// exit. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stop.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()
		<-d.done
	})
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for n := range d.queue {
		d.dispatch(n)
	}
}

func (d *Dispatcher) dispatch(n schemas.Notification) {
	for _, ch := range d.channels {
		if !ch.Accepts(n.Priority) {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), channelSendTimeout)
		err := ch.Send(ctx, n)
		cancel()
		if err != nil {
			d.logger.Warn("Notification delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("event", string(n.Event)),
				zap.Error(err))
		}
	}
}
