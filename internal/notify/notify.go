// Package notify publishes state-transition notices to downstream consumers.
// Delivery is best-effort: a failed notice is logged and never fails the
// operation that produced it.
package notify

import (
	"context"
	"sync"

	"admitgate/entity"
)

type Notifier interface {
	Notify(ctx context.Context, n *entity.Notice)
}

// Multi fans a notice out to every non-nil notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n *entity.Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

type Nop struct{}

func (Nop) Notify(context.Context, *entity.Notice) {}

// Recorder keeps notices in memory; handy for tests and local runs.
type Recorder struct {
	mu      sync.Mutex
	Notices []*entity.Notice
}

func (r *Recorder) Notify(_ context.Context, n *entity.Notice) {
	c := *n
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, &c)
}

func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, 0, len(r.Notices))
	for _, n := range r.Notices {
		topics = append(topics, n.Topic)
	}
	return topics
}
