package services

import (
	"context"
	"errors"
	"sync"
)

var errSinkDown = errors.New("sink down")

type sentMessage struct {
	recipient string
	text      string
}

// fakeNotifier records deliveries; when failing is set every delivery errors.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failing bool
}

var _ Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) Deliver(_ context.Context, recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errSinkDown
	}
	f.sent = append(f.sent, sentMessage{recipient: recipient, text: text})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}
