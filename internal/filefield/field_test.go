package filefield_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"flowtrack/internal/filefield"
	"flowtrack/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func baseConfig(files ...filefield.File) filefield.Config {
	return filefield.Config{
		FieldKey:      "attachments_c",
		TableName:     "task_c",
		ProjectID:     "proj-1",
		PublicKey:     "pk-1",
		ExistingFiles: files,
	}
}

func newField(t *testing.T, sdk *testutil.FakeSDK, after int) (*filefield.Field, *testutil.FakeTimer) {
	t.Helper()
	timer := testutil.NewFakeTimer()
	f := filefield.New("task-7", sdk.Locator(after),
		filefield.WithTimer(func() backoff.Timer { return timer }),
	)
	return f, timer
}

func mountedField(t *testing.T, sdk *testutil.FakeSDK, files ...filefield.File) *filefield.Field {
	t.Helper()
	f, _ := newField(t, sdk, 0)
	f.Apply(context.Background(), baseConfig(files...))
	require.Equal(t, filefield.Mounted, f.State(), "mount failed: %s", f.Err())
	return f
}

func opsOf(calls []testutil.SDKCall) []string {
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

func TestApply_SDKNeverLoads(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f, timer := newField(t, sdk, -1)

	f.Apply(context.Background(), baseConfig())

	assert.Equal(t, filefield.Errored, f.State())
	assert.False(t, f.Ready())
	assert.Contains(t, f.Err(), "ApperSDK not loaded")
	assert.Contains(t, f.Err(), "Mount error: ")

	starts := timer.Starts()
	require.Len(t, starts, filefield.MaxWaits)
	for _, d := range starts {
		assert.Equal(t, 100*time.Millisecond, d)
	}
	assert.Empty(t, sdk.Calls())
}

func TestApply_SDKLoadsAfterWaiting(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f, timer := newField(t, sdk, 3)

	files := []filefield.File{{"id": 1.0, "name": "a.txt"}}
	f.Apply(context.Background(), baseConfig(files...))

	require.Equal(t, filefield.Mounted, f.State())
	assert.True(t, f.Ready())
	assert.Empty(t, f.Err())
	assert.Len(t, timer.Starts(), 3)
	assert.Equal(t, "file-uploader-task-7", f.ElementID())

	calls := sdk.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "mount", calls[0].Op)
	assert.Equal(t, "file-uploader-task-7", calls[0].ElementID)
	assert.Equal(t, "attachments_c", calls[0].FieldKey)
	assert.Equal(t, files, calls[0].Files)
}

func TestApply_MissingFileFieldCapability(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	sdk.NoFileField = true
	f, _ := newField(t, sdk, 0)

	f.Apply(context.Background(), baseConfig())

	assert.Equal(t, filefield.Errored, f.State())
	assert.Equal(t, "Mount error: ApperFileUploader not available in ApperSDK.", f.Err())
}

func TestApply_MountFailure(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	sdk.MountErr = errors.New("element not found")
	f, _ := newField(t, sdk, 0)

	f.Apply(context.Background(), baseConfig())

	assert.Equal(t, filefield.Errored, f.State())
	assert.Equal(t, "Mount error: element not found", f.Err())
	assert.Empty(t, f.ElementID())

	// Errored is terminal for the same field: no retry on the next Apply.
	sdk.MountErr = nil
	f.Apply(context.Background(), baseConfig())
	assert.Equal(t, filefield.Errored, f.State())
	assert.Empty(t, sdk.Calls())

	// Nothing was mounted, so nothing is unmounted.
	f.Close(context.Background())
	assert.Empty(t, sdk.Calls())
}

func TestApply_CancelledWhileWaiting(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := filefield.New("task-7", sdk.Locator(-1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Apply(ctx, baseConfig())

	assert.Equal(t, filefield.Errored, f.State())
	assert.Contains(t, f.Err(), "context canceled")
}

func TestApply_SameContentIsNoop(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk, filefield.File{"id": 1.0, "name": "a.txt"})

	// New objects, same content, different key order.
	f.Apply(context.Background(), baseConfig(filefield.File{"name": "a.txt", "id": 1.0}))

	assert.Equal(t, []string{"mount"}, opsOf(sdk.Calls()))
	assert.Equal(t, filefield.Mounted, f.State())
}

func TestApply_UpdatesChangedFiles(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk, filefield.File{"id": 1.0})

	next := []filefield.File{{"id": 1.0}, {"id": 2.0}}
	f.Apply(context.Background(), baseConfig(next...))

	calls := sdk.Calls()
	require.Equal(t, []string{"mount", "update"}, opsOf(calls))
	assert.Equal(t, "attachments_c", calls[1].FieldKey)
	assert.Equal(t, next, calls[1].Files)
	assert.Equal(t, 0, sdk.Conversions())

	// Applying the same list again is acknowledged already.
	f.Apply(context.Background(), baseConfig(next...))
	assert.Len(t, sdk.Calls(), 2)
}

func TestApply_ZeroIDIsNotConverted(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk)

	next := []filefield.File{{"Id": 0.0, "Name": "scratch.txt"}}
	f.Apply(context.Background(), baseConfig(next...))

	calls := sdk.Calls()
	require.Equal(t, []string{"mount", "update"}, opsOf(calls))
	assert.Equal(t, 0, sdk.Conversions())
	assert.Equal(t, next, calls[1].Files)
}

func TestApply_ConvertsAPIFormat(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk)

	f.Apply(context.Background(), baseConfig(
		filefield.File{"Id": 5.0, "Name": "report.pdf"},
		filefield.File{"Id": 6.0, "Name": "notes.md"},
	))

	calls := sdk.Calls()
	require.Equal(t, []string{"mount", "update"}, opsOf(calls))
	assert.Equal(t, 1, sdk.Conversions())
	assert.Equal(t, []filefield.File{
		{"id": 5.0, "name": "report.pdf"},
		{"id": 6.0, "name": "notes.md"},
	}, calls[1].Files)

	// The acknowledged list is the incoming one, so re-applying it is a no-op.
	f.Apply(context.Background(), baseConfig(
		filefield.File{"Id": 5.0, "Name": "report.pdf"},
		filefield.File{"Id": 6.0, "Name": "notes.md"},
	))
	assert.Len(t, sdk.Calls(), 2)
}

func TestApply_EmptyListClearsField(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk, filefield.File{"id": 1.0})

	f.Apply(context.Background(), baseConfig())

	calls := sdk.Calls()
	require.Equal(t, []string{"mount", "clear"}, opsOf(calls))
	assert.Equal(t, "attachments_c", calls[1].FieldKey)
}

func TestApply_EmptyToEmptyIsNoop(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk)

	cfg := baseConfig()
	cfg.ExistingFiles = []filefield.File{}
	f.Apply(context.Background(), cfg)

	assert.Equal(t, []string{"mount"}, opsOf(sdk.Calls()))
}

func TestApply_UpdateFailureIsTerminal(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk)

	sdk.UpdateErr = errors.New("quota exceeded")
	f.Apply(context.Background(), baseConfig(filefield.File{"id": 1.0}))

	assert.Equal(t, filefield.Errored, f.State())
	assert.Equal(t, "Update error: quota exceeded", f.Err())

	sdk.UpdateErr = nil
	f.Apply(context.Background(), baseConfig(filefield.File{"id": 2.0}))
	assert.Equal(t, []string{"mount"}, opsOf(sdk.Calls()))

	// The mount succeeded, so teardown still unmounts.
	f.Close(context.Background())
	assert.Equal(t, []string{"mount", "unmount"}, opsOf(sdk.Calls()))
}

func TestApply_IdentityChangeRemounts(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk)

	cfg := baseConfig()
	cfg.TableName = "project_c"
	f.Apply(context.Background(), cfg)

	calls := sdk.Calls()
	require.Equal(t, []string{"mount", "unmount", "mount"}, opsOf(calls))
	assert.Equal(t, "file-uploader-task-7", calls[1].ElementID)
	assert.Equal(t, filefield.Mounted, f.State())
}

func TestApply_IdentityChangeAfterErrorRemounts(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	sdk.MountErr = errors.New("boom")
	f, _ := newField(t, sdk, 0)

	f.Apply(context.Background(), baseConfig())
	require.Equal(t, filefield.Errored, f.State())

	sdk.MountErr = nil
	cfg := baseConfig()
	cfg.PublicKey = "pk-2"
	f.Apply(context.Background(), cfg)

	assert.Equal(t, filefield.Mounted, f.State())
	assert.Empty(t, f.Err())
}

func TestClose_UnmountsAndClears(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk, filefield.File{"id": 1.0})

	f.Close(context.Background())

	calls := sdk.Calls()
	require.Equal(t, []string{"mount", "unmount"}, opsOf(calls))
	assert.Equal(t, "file-uploader-task-7", calls[1].ElementID)
	assert.Equal(t, filefield.Unmounted, f.State())
	assert.Empty(t, f.ElementID())
}

func TestClose_UnmountFailureStillClears(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := mountedField(t, sdk)
	sdk.UnmountErr = errors.New("already gone")

	f.Close(context.Background())

	assert.Equal(t, filefield.Unmounted, f.State())
	assert.Empty(t, f.Err())
	assert.Empty(t, f.ElementID())

	// A second Close has nothing to unmount.
	f.Close(context.Background())
	assert.Equal(t, []string{"mount", "unmount"}, opsOf(sdk.Calls()))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "waiting-for-sdk", filefield.WaitingForSDK.String())
	assert.Equal(t, "errored", filefield.Errored.String())
	assert.Equal(t, "state(42)", filefield.State(42).String())
}

func TestField_ConcurrentApply(t *testing.T) {
	sdk := testutil.NewFakeSDK()
	f := filefield.New("7", sdk.Locator(0))
	ctx := context.Background()
	f.Apply(ctx, baseConfig())
	require.True(t, f.Ready())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			f.Apply(ctx, baseConfig(filefield.File{"id": float64(n % 2)}))
			_ = f.State()
		}(i)
	}
	wg.Wait()
	f.Close(ctx)

	assert.Equal(t, filefield.Unmounted, f.State())
	mounts := 0
	for _, c := range sdk.Calls() {
		if c.Op == "mount" {
			mounts++
		}
	}
	assert.Equal(t, 1, mounts, "content changes never remount")
}
