package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindB2B   Kind = "b2b"
	KindOrder Kind = "order"
)

// Sender is satisfied by Client; tests substitute their own.
type Sender interface {
	SendB2BOrderEmail(ctx context.Context, msg OrderEmail) error
	SendOrderEmail(ctx context.Context, msg OrderEmail) error
}

type Message struct {
	Kind  Kind
	Email OrderEmail
}

// Outbox decouples order creation from email delivery. Enqueue never blocks
// and never returns an error: a full queue drops the message with a warning,
// and send failures are logged by the worker. Losing a notification is
// acceptable; failing an order is not.
type Outbox struct {
	queue chan Message
	log   *slog.Logger
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewOutbox(sender Sender, size int, log *slog.Logger) *Outbox {
	o := &Outbox{
		queue: make(chan Message, size),
		log:   log,
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for msg := range o.queue {
			o.deliver(sender, msg)
		}
	}()

	return o
}

func (o *Outbox) Enqueue(msg Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		o.log.Warn("notification queue closed, dropping message",
			"order_number", msg.Email.OrderNumber,
			"recipient", msg.Email.RecipientEmail,
		)
		return
	}
	select {
	case o.queue <- msg:
	default:
		o.log.Warn("notification queue full, dropping message",
			"order_number", msg.Email.OrderNumber,
			"recipient", msg.Email.RecipientEmail,
		)
	}
}

// Close stops accepting messages and waits for the worker to drain the queue.
// Safe to call more than once.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.queue)
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Outbox) deliver(sender Sender, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	switch msg.Kind {
	case KindOrder:
		err = sender.SendOrderEmail(ctx, msg.Email)
	default:
		err = sender.SendB2BOrderEmail(ctx, msg.Email)
	}
	if err != nil {
		o.log.Warn("order notification failed",
			"order_number", msg.Email.OrderNumber,
			"recipient", msg.Email.RecipientEmail,
			"error", err,
		)
		return
	}
	o.log.Info("order notification sent",
		"order_number", msg.Email.OrderNumber,
		"recipient", msg.Email.RecipientEmail,
	)
}
