package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowtrack/internal/apper"
	"flowtrack/internal/filefield"
	"flowtrack/internal/service"
	"flowtrack/internal/testutil"
)

var _ service.Service = (*service.TaskService)(nil)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func newService(client apper.Client) (*service.TaskService, *testutil.RecordingNotifier) {
	n := &testutil.RecordingNotifier{}
	svc := service.NewTaskService(client,
		service.WithNotifier(n),
		service.WithClock(func() time.Time { return fixedNow }),
	)
	return svc, n
}

func TestNilClient(t *testing.T) {
	svc, notes := newService(nil)
	ctx := context.Background()

	tasks := svc.GetAll(ctx)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	_, ok := svc.GetByID(ctx, 1)
	assert.False(t, ok)

	_, err := svc.Create(ctx, service.Payload{"title": "A"})
	assert.ErrorIs(t, err, service.ErrClientUnavailable)

	_, err = svc.Update(ctx, 1, service.Payload{"title": "A"})
	assert.ErrorIs(t, err, service.ErrClientUnavailable)

	_, err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, service.ErrClientUnavailable)

	assert.Empty(t, notes.Messages())
}

func TestGetAll(t *testing.T) {
	client := testutil.NewFakeClient()
	client.AddRecord(service.TableName, apper.Record{"title_c": "old", "createdAt_c": "2025-01-01T00:00:00.000Z"})
	client.AddRecord(service.TableName, apper.Record{"title_c": "new", "createdAt_c": "2025-02-01T00:00:00.000Z", "status_c": "open"})
	svc, _ := newService(client)

	tasks := svc.GetAll(context.Background())

	require.Len(t, tasks, 2)
	assert.Equal(t, "new", tasks[0].Title)
	assert.Equal(t, "open", tasks[0].Status)
	assert.Equal(t, 2, tasks[0].ID)
	assert.Equal(t, "old", tasks[1].Title)

	require.Len(t, client.Fetches, 1)
	params := client.Fetches[0]
	assert.Equal(t, []apper.OrderBy{{FieldName: "createdAt_c", SortType: "DESC"}}, params.OrderBy)
	assert.Equal(t, &apper.PagingInfo{Limit: 100, Offset: 0}, params.PagingInfo)
	assert.Equal(t, "Id", params.Fields[0].Field.Name)
}

func TestGetAll_PageSize(t *testing.T) {
	client := testutil.NewFakeClient()
	for i := 0; i < 120; i++ {
		client.AddRecord(service.TableName, apper.Record{"title_c": "t"})
	}
	svc, _ := newService(client)

	assert.Len(t, svc.GetAll(context.Background()), service.PageSize)
}

func TestGetAll_Failures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		client := testutil.NewFakeClient()
		client.FetchErr = errors.New("connection refused")
		svc, notes := newService(client)

		assert.Empty(t, svc.GetAll(context.Background()))
		assert.Empty(t, notes.Messages())
	})

	t.Run("backend rejects", func(t *testing.T) {
		client := testutil.NewFakeClient()
		client.Reject["fetch"] = "table not found"
		svc, notes := newService(client)

		tasks := svc.GetAll(context.Background())
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
		assert.Equal(t, []string{"table not found"}, notes.Messages())
	})

	t.Run("no rows", func(t *testing.T) {
		svc, _ := newService(testutil.NewFakeClient())
		tasks := svc.GetAll(context.Background())
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})
}

func TestGetByID(t *testing.T) {
	client := testutil.NewFakeClient()
	id := client.AddRecord(service.TableName, apper.Record{
		"title_c":       "Write report",
		"attachments_c": []any{map[string]any{"Id": 9, "Name": "draft.pdf"}},
	})
	svc, _ := newService(client)

	task, ok := svc.GetByID(context.Background(), id)
	require.True(t, ok)
	assert.Equal(t, "Write report", task.Title)
	require.Len(t, task.Attachments, 1)
	assert.True(t, task.Attachments[0].IsAPIFormat())

	_, ok = svc.GetByID(context.Background(), 999)
	assert.False(t, ok)

	client.GetErr = errors.New("timeout")
	_, ok = svc.GetByID(context.Background(), id)
	assert.False(t, ok)
}

func TestCreate_StripsEmptyAttributes(t *testing.T) {
	client := testutil.NewFakeClient()
	svc, _ := newService(client)

	task, err := svc.Create(context.Background(), service.Payload{
		"title":       "A",
		"status":      "open",
		"description": "",
		"priority":    nil,
	})
	require.NoError(t, err)

	require.Len(t, client.Created, 1)
	assert.Equal(t, apper.Record{
		"title_c":     "A",
		"status_c":    "open",
		"createdAt_c": "2025-03-14T09:26:53.589Z",
	}, client.Created[0])

	assert.Equal(t, 1, task.ID)
	assert.Equal(t, "A", task.Title)
}

func TestCreate_NameResolution(t *testing.T) {
	client := testutil.NewFakeClient()
	svc, _ := newService(client)

	_, err := svc.Create(context.Background(), service.Payload{
		"title":       "legacy",
		"title_c":     "column",
		"priority":    "",
		"priority_c":  "high",
		"createdAt_c": "2024-12-31T00:00:00.000Z",
	})
	require.NoError(t, err)

	rec := client.Created[0]
	assert.Equal(t, "legacy", rec["title_c"], "non-empty legacy key wins on create")
	assert.Equal(t, "high", rec["priority_c"], "empty legacy key falls back to the column")
	assert.Equal(t, "2024-12-31T00:00:00.000Z", rec["createdAt_c"])
}

func TestCreate_RecordFailure(t *testing.T) {
	client := testutil.NewFakeClient()
	client.CreateFieldErrors = []apper.FieldError{
		{FieldLabel: "Title", Message: "is required"},
		{FieldLabel: "Status", Message: "is invalid"},
	}
	svc, notes := newService(client)

	_, err := svc.Create(context.Background(), service.Payload{"status": "bogus"})
	assert.ErrorIs(t, err, service.ErrNotCreated)
	assert.Equal(t, []string{"Title: is required", "Status: is invalid", "validation failed"}, notes.Messages())
}

func TestCreate_BackendRejects(t *testing.T) {
	client := testutil.NewFakeClient()
	client.Reject["create"] = "quota exceeded"
	svc, notes := newService(client)

	_, err := svc.Create(context.Background(), service.Payload{"title": "A"})

	var be *service.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "quota exceeded", be.Message)
	assert.Equal(t, []string{"quota exceeded"}, notes.Messages())
}

func TestCreate_TransportError(t *testing.T) {
	client := testutil.NewFakeClient()
	client.CreateErr = apper.ErrTimeout
	svc, _ := newService(client)

	_, err := svc.Create(context.Background(), service.Payload{"title": "A"})
	assert.ErrorIs(t, err, apper.ErrTimeout)
}

func TestUpdate_OnlyPresentAttributes(t *testing.T) {
	client := testutil.NewFakeClient()
	id := client.AddRecord(service.TableName, apper.Record{
		"title_c":       "A",
		"description_c": "keep me",
		"status_c":      "open",
	})
	svc, _ := newService(client)

	task, err := svc.Update(context.Background(), id, service.Payload{
		"status":        "completed",
		"completedAt_c": "2025-03-14T10:00:00.000Z",
	})
	require.NoError(t, err)

	assert.Equal(t, []apper.Record{{
		"Id":            id,
		"status_c":      "completed",
		"completedAt_c": "2025-03-14T10:00:00.000Z",
	}}, client.Updated)

	assert.Equal(t, "A", task.Title)
	assert.Equal(t, "keep me", task.Description)
	assert.Equal(t, "completed", task.Status)
}

func TestUpdate_ColumnNameWins(t *testing.T) {
	client := testutil.NewFakeClient()
	id := client.AddRecord(service.TableName, apper.Record{"title_c": "A"})
	svc, _ := newService(client)

	_, err := svc.Update(context.Background(), id, service.Payload{
		"title":       "legacy",
		"title_c":     "column",
		"description": "",
	})
	require.NoError(t, err)

	rec := client.Updated[0]
	assert.Equal(t, "column", rec["title_c"])
	assert.Equal(t, "", rec["description_c"], "explicitly present empty values are sent on update")
	assert.NotContains(t, rec, "priority_c")
}

func TestUpdate_Failures(t *testing.T) {
	client := testutil.NewFakeClient()
	id := client.AddRecord(service.TableName, apper.Record{"title_c": "A"})
	client.FailRecords[id] = "record is locked"
	svc, notes := newService(client)

	_, err := svc.Update(context.Background(), id, service.Payload{"title": "B"})
	assert.ErrorIs(t, err, service.ErrNotUpdated)
	assert.Equal(t, []string{"record is locked"}, notes.Messages())
}

func TestDelete_PartialFailure(t *testing.T) {
	client := testutil.NewFakeClient()
	for i := 1; i <= 3; i++ {
		client.AddRecord(service.TableName, apper.Record{"Id": i, "title_c": "t"})
	}
	client.FailRecords[2] = "cannot delete task 2"
	svc, notes := newService(client)

	ok, err := svc.Delete(context.Background(), 1, 2, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"cannot delete task 2"}, notes.Messages())
	assert.Equal(t, [][]int{{1, 2, 3}}, client.Deleted)

	_, exists := client.Record(service.TableName, 2)
	assert.True(t, exists)
	_, exists = client.Record(service.TableName, 1)
	assert.False(t, exists)
}

func TestDelete_AllFail(t *testing.T) {
	client := testutil.NewFakeClient()
	svc, notes := newService(client)

	ok, err := svc.Delete(context.Background(), 41, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, notes.Messages(), 2)
}

func TestDelete_TopLevelFailure(t *testing.T) {
	client := testutil.NewFakeClient()
	client.Reject["delete"] = "forbidden"
	svc, notes := newService(client)

	ok, err := svc.Delete(context.Background(), 1)
	assert.False(t, ok)
	var be *service.BackendError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"forbidden"}, notes.Messages())

	client = testutil.NewFakeClient()
	client.DeleteErr = errors.New("connection reset")
	svc, _ = newService(client)
	_, err = svc.Delete(context.Background(), 1)
	assert.ErrorContains(t, err, "connection reset")
}

func TestDelete_NoIDs(t *testing.T) {
	client := testutil.NewFakeClient()
	svc, _ := newService(client)

	ok, err := svc.Delete(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, client.Deleted)
}

func TestFiles(t *testing.T) {
	svc := service.NewTaskService(nil)
	assert.Nil(t, svc.Files())

	sdk := testutil.NewFakeSDK()
	svc = service.NewTaskService(nil, service.WithFiles(sdk.Locator(0)))
	require.NotNil(t, svc.Files())
	var got filefield.SDK = svc.Files()()
	assert.Same(t, sdk, got)
}

func TestValidValues(t *testing.T) {
	assert.True(t, service.ValidStatus("in-progress"))
	assert.False(t, service.ValidStatus("done"))
	assert.True(t, service.ValidPriority("high"))
	assert.False(t, service.ValidPriority("urgent"))
}
