package testutil

import (
	"context"
	"sync"
	"time"
	"unicode"

	"flowtrack/internal/filefield"
)

// SDKCall records one call made against FakeSDK.
type SDKCall struct {
	Op        string // mount, unmount, update, clear
	ElementID string
	FieldKey  string
	Files     []filefield.File
}

// FakeSDK is an in-memory filefield.SDK that records every call.
type FakeSDK struct {
	mu          sync.Mutex
	calls       []SDKCall
	conversions int

	// NoFileField makes FileField return nil.
	NoFileField bool

	// Error injection for testing
	MountErr   error
	UnmountErr error
	UpdateErr  error
	ClearErr   error
}

// NewFakeSDK creates an empty FakeSDK.
func NewFakeSDK() *FakeSDK {
	return &FakeSDK{}
}

// Locator returns a locator that reports the SDK as missing for the first
// `after` lookups. A negative value never loads it.
func (s *FakeSDK) Locator(after int) filefield.Locator {
	var mu sync.Mutex
	lookups := 0
	return func() filefield.SDK {
		mu.Lock()
		defer mu.Unlock()
		lookups++
		if after < 0 || lookups <= after {
			return nil
		}
		return s
	}
}

// Calls returns a copy of the recorded calls.
func (s *FakeSDK) Calls() []SDKCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SDKCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// Conversions returns how many times ToUIFormat was called.
func (s *FakeSDK) Conversions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversions
}

// FileField implements filefield.SDK.
func (s *FakeSDK) FileField() filefield.FileField {
	if s.NoFileField {
		return nil
	}
	return (*fakeFileField)(s)
}

// ToUIFormat implements filefield.SDK by lower-casing the first letter of
// every key.
func (s *FakeSDK) ToUIFormat(files []filefield.File) []filefield.File {
	s.mu.Lock()
	s.conversions++
	s.mu.Unlock()

	out := make([]filefield.File, 0, len(files))
	for _, f := range files {
		c := make(filefield.File, len(f))
		for k, v := range f {
			c[lowerFirst(k)] = v
		}
		out = append(out, c)
	}
	return out
}

func (s *FakeSDK) record(call SDKCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

type fakeFileField FakeSDK

func (f *fakeFileField) Mount(ctx context.Context, elementID string, cfg filefield.Config) error {
	s := (*FakeSDK)(f)
	if s.MountErr != nil {
		return s.MountErr
	}
	s.record(SDKCall{Op: "mount", ElementID: elementID, FieldKey: cfg.FieldKey, Files: cfg.ExistingFiles})
	return nil
}

func (f *fakeFileField) Unmount(ctx context.Context, elementID string) error {
	s := (*FakeSDK)(f)
	s.record(SDKCall{Op: "unmount", ElementID: elementID})
	return s.UnmountErr
}

func (f *fakeFileField) UpdateFiles(ctx context.Context, fieldKey string, files []filefield.File) error {
	s := (*FakeSDK)(f)
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.record(SDKCall{Op: "update", FieldKey: fieldKey, Files: files})
	return nil
}

func (f *fakeFileField) ClearField(ctx context.Context, fieldKey string) error {
	s := (*FakeSDK)(f)
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.record(SDKCall{Op: "clear", FieldKey: fieldKey})
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// FakeTimer is a backoff timer that fires immediately and records the
// durations it was started with.
type FakeTimer struct {
	mu     sync.Mutex
	starts []time.Duration
	c      chan time.Time
}

// NewFakeTimer creates a FakeTimer.
func NewFakeTimer() *FakeTimer {
	return &FakeTimer{c: make(chan time.Time, 1)}
}

// Start implements backoff.Timer.
func (t *FakeTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.starts = append(t.starts, d)
	t.mu.Unlock()
	t.c <- time.Time{}
}

// Stop implements backoff.Timer.
func (t *FakeTimer) Stop() {}

// C implements backoff.Timer.
func (t *FakeTimer) C() <-chan time.Time {
	return t.c
}

// Starts returns the recorded wait durations.
func (t *FakeTimer) Starts() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Duration, len(t.starts))
	copy(out, t.starts)
	return out
}
