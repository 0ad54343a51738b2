package filefield

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ElementPrefix is prepended to the caller's element id to form the id
// the widget is mounted under.
const ElementPrefix = "file-uploader-"

// State is the lifecycle state of a Field.
type State int

const (
	Uninitialized State = iota
	WaitingForSDK
	Mounted
	Updating
	Unmounted
	Errored
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case WaitingForSDK:
		return "waiting-for-sdk"
	case Mounted:
		return "mounted"
	case Updating:
		return "updating"
	case Unmounted:
		return "unmounted"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// identity is the part of the configuration that makes a field a
// different field. Any change to it forces a full remount.
type identity struct {
	elementID string
	fieldKey  string
	tableName string
	projectID string
	publicKey string
}

// Field mounts one file field into the SDK and keeps it synchronised.
// Calls on a Field are serialized.
type Field struct {
	elementID string
	locate    Locator
	log       zerolog.Logger
	interval  time.Duration
	maxWaits  int
	newTimer  func() backoff.Timer

	mu        sync.Mutex
	state     State
	id        identity
	hasID     bool
	sdk       SDK
	mounted   bool
	mountedID string
	applied   []File
	err       string
}

// Option configures a Field.
type Option func(*Field)

// WithLogger sets the logger for lifecycle failures.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Field) { f.log = l }
}

// WithTimer replaces the wall-clock timer used between SDK lookups.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(f *Field) { f.newTimer = newTimer }
}

// WithWait overrides the poll interval and the maximum number of waits.
func WithWait(interval time.Duration, maxWaits int) Option {
	return func(f *Field) {
		f.interval = interval
		f.maxWaits = maxWaits
	}
}

// New returns an unmounted Field for the given element id.
func New(elementID string, locate Locator, opts ...Option) *Field {
	f := &Field{
		elementID: elementID,
		locate:    locate,
		log:       zerolog.Nop(),
		interval:  PollInterval,
		maxWaits:  MaxWaits,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply brings the SDK in line with cfg. On the first call, or when the
// field identity changed, the previous mount is torn down and the field is
// mounted again. Otherwise the file list is synchronised.
//
// Failures never escape Apply; they move the field to Errored and are
// reported through Err.
func (f *Field) Apply(ctx context.Context, cfg Config) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := identity{
		elementID: f.elementID,
		fieldKey:  cfg.FieldKey,
		tableName: cfg.TableName,
		projectID: cfg.ProjectID,
		publicKey: cfg.PublicKey,
	}

	if !f.hasID || next != f.id {
		if f.hasID {
			f.teardown(ctx)
		}
		f.id = next
		f.hasID = true
		f.mount(ctx, cfg)
		return
	}

	f.sync(ctx, cfg.FieldKey, cfg.ExistingFiles)
}

// Close unmounts the field if a mount succeeded. Local tracking state is
// cleared even when the SDK fails to unmount.
func (f *Field) Close(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.teardown(ctx)
	f.hasID = false
	f.state = Unmounted
}

// State returns the current lifecycle state.
func (f *Field) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Ready reports whether the field is mounted and usable.
func (f *Field) Ready() bool {
	return f.State() == Mounted
}

// Err returns the display error, or "" when there is none.
func (f *Field) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// ElementID returns the id the widget is mounted under, or "" if unmounted.
func (f *Field) ElementID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mountedID
}

func (f *Field) mount(ctx context.Context, cfg Config) {
	f.state = WaitingForSDK

	var timer backoff.Timer
	if f.newTimer != nil {
		timer = f.newTimer()
	}

	sdk, err := waitForSDK(ctx, f.locate, f.interval, f.maxWaits, timer)
	if err != nil {
		f.fail("Mount", err)
		return
	}
	ff := sdk.FileField()
	if ff == nil {
		f.fail("Mount", ErrNoFileField)
		return
	}

	files := cloneFiles(cfg.ExistingFiles)
	elementID := ElementPrefix + f.elementID
	mountCfg := cfg
	mountCfg.ExistingFiles = files

	if err := ff.Mount(ctx, elementID, mountCfg); err != nil {
		f.fail("Mount", err)
		return
	}

	f.sdk = sdk
	f.mounted = true
	f.mountedID = elementID
	f.applied = files
	f.state = Mounted
	f.err = ""
	f.log.Debug().Str("element", elementID).Int("files", len(files)).Msg("file field mounted")
}

func (f *Field) sync(ctx context.Context, fieldKey string, incoming []File) {
	if f.state != Mounted || f.sdk == nil || fieldKey == "" {
		return
	}
	ff := f.sdk.FileField()
	if ff == nil {
		return
	}

	if incoming == nil {
		incoming = []File{}
	}

	same, err := sameFiles(incoming, f.applied)
	if err != nil {
		f.fail("Update", err)
		return
	}
	if same {
		return
	}

	f.state = Updating

	toSend := incoming
	if len(toSend) > 0 && toSend[0].IsAPIFormat() {
		toSend = f.sdk.ToUIFormat(toSend)
	}

	if len(toSend) > 0 {
		err = ff.UpdateFiles(ctx, fieldKey, toSend)
	} else {
		err = ff.ClearField(ctx, fieldKey)
	}
	if err != nil {
		f.fail("Update", err)
		return
	}

	f.applied = cloneFiles(incoming)
	f.state = Mounted
	f.log.Debug().Str("field", fieldKey).Int("files", len(toSend)).Msg("file field updated")
}

func (f *Field) teardown(ctx context.Context) {
	if f.mounted && f.sdk != nil {
		if ff := f.sdk.FileField(); ff != nil {
			if err := ff.Unmount(ctx, f.mountedID); err != nil {
				f.log.Error().Err(err).Str("element", f.mountedID).Msg("file field unmount error")
			}
		}
	}
	f.mounted = false
	f.mountedID = ""
	f.applied = nil
	f.sdk = nil
	f.err = ""
	f.state = Uninitialized
}

func (f *Field) fail(phase string, err error) {
	f.state = Errored
	f.err = fmt.Sprintf("%s error: %s", phase, err.Error())
	f.log.Error().Err(err).Str("element", f.elementID).Str("phase", phase).Msg("file field error")
}

// sameFiles compares two lists by their JSON serialization.
func sameFiles(a, b []File) (bool, error) {
	if a == nil {
		a = []File{}
	}
	if b == nil {
		b = []File{}
	}
	ja, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ja, jb), nil
}

func cloneFiles(files []File) []File {
	out := make([]File, 0, len(files))
	for _, file := range files {
		c := make(File, len(file))
		for k, v := range file {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}
