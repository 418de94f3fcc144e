package editor

import (
	"context"
	"sync"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a toast shown to the dashboard user.
type Notice struct {
	Level Level
	Title string
	Body  string
}

// Success builds a confirmation notice.
func Success(title, body string) Notice {
	return Notice{Level: LevelSuccess, Title: title, Body: body}
}

// Failure builds an error notice whose body is the error text.
func Failure(title string, err error) Notice {
	n := Notice{Level: LevelError, Title: title}
	if err != nil {
		n.Body = err.Error()
	}
	return n
}

// Notifier receives notices.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

func (f NotifierFunc) Notify(ctx context.Context, notice Notice) { f(ctx, notice) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(context.Context, Notice) {})

// Inbox queues notices until the next response drains them.
type Inbox struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *Inbox) Notify(_ context.Context, notice Notice) {
	b.mu.Lock()
	b.notices = append(b.notices, notice)
	b.mu.Unlock()
}

// Drain returns the queued notices and empties the inbox.
func (b *Inbox) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}
