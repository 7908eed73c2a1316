package mail

import (
	"context"
	"sync"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// Recorder is a Mailer that keeps every message in memory. It is used when no
// SMTP relay is configured.
type Recorder struct {
	mu   sync.Mutex
	sent []storefront.Mail
	err  error
}

var _ storefront.Mailer = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent sends return err. Pass nil to recover.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Send(ctx context.Context, mail storefront.Mail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	mail.To = append([]string(nil), mail.To...)
	r.sent = append(r.sent, mail)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []storefront.Mail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storefront.Mail(nil), r.sent...)
}
