// Package notifytest provides a recording notify.Mailer for tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/msomdec/fraudshield/internal/notify"
)

// Recorder keeps every message it is asked to send. When Err is set, Send
// records nothing and returns it.
type Recorder struct {
	Err error

	mu   sync.Mutex
	sent []notify.Message
}

func (r *Recorder) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns the delivered messages in order.
func (r *Recorder) Sent() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.sent...)
}
