package vision

import (
	"context"
	"sync/atomic"
)

// FakeClient is a scriptable Client for tests and offline runs.
type FakeClient struct {
	Reply string
	Err   error

	// OnDescribe, when set, overrides Reply/Err.
	OnDescribe func(ctx context.Context, prompt string, img Image) (string, error)

	calls atomic.Int64
}

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

// Calls reports how many times Describe was invoked.
func (f *FakeClient) CallCount() int { return int(f.calls.Load()) }

func (f *FakeClient) Describe(ctx context.Context, prompt string, img Image) (string, error) {
	f.calls.Add(1)
	if f.OnDescribe != nil {
		return f.OnDescribe(ctx, prompt, img)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}
