package renderengine

import (
	"context"
	"sync"
)

// FakeEngine records render calls and returns canned output. Used by tests
// and by local runs without a Chromium install.
type FakeEngine struct {
	mu    sync.Mutex
	PDF   []byte
	PNG   []byte
	Err   error
	calls []string
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		PDF: []byte("%PDF-1.4 fake"),
		PNG: []byte("\x89PNG fake"),
	}
}

func (f *FakeEngine) Render(ctx context.Context, html string) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, html)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, nil, f.Err
	}
	return f.PDF, f.PNG, nil
}

// Calls returns the markup documents rendered so far.
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
