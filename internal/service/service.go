package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"flowtrack/internal/apper"
	"flowtrack/internal/filefield"
)

// Service defines the task operations commands use.
// Commands never talk to the backend client directly.
type Service interface {
	// GetAll returns up to PageSize tasks, newest first.
	// Failures are logged and yield an empty slice.
	GetAll(ctx context.Context) []Task

	// GetByID returns the task, or false if it cannot be read.
	GetByID(ctx context.Context, id int) (Task, bool)

	// Create creates a task from the non-empty attributes in p.
	Create(ctx context.Context, p Payload) (Task, error)

	// Update changes only the attributes present in p.
	Update(ctx context.Context, id int, p Payload) (Task, error)

	// Delete deletes tasks. It reports whether at least one was deleted;
	// per-record failures are notified, not returned.
	Delete(ctx context.Context, ids ...int) (bool, error)

	// Files returns the locator of the backend's file SDK.
	Files() filefield.Locator
}

// Notifier shows messages to the user.
type Notifier interface {
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Error(string) {}

// TaskService implements Service against an apper.Client.
// A nil client means the backend is not configured.
type TaskService struct {
	client apper.Client
	files  filefield.Locator
	notify Notifier
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithNotifier sets where user-facing errors go.
func WithNotifier(n Notifier) Option {
	return func(s *TaskService) { s.notify = n }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *TaskService) { s.log = l }
}

// WithClock sets the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// WithFiles sets the file SDK locator.
func WithFiles(locate filefield.Locator) Option {
	return func(s *TaskService) { s.files = locate }
}

// NewTaskService creates a TaskService. client may be nil.
func NewTaskService(client apper.Client, opts ...Option) *TaskService {
	s := &TaskService{
		client: client,
		notify: nopNotifier{},
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Files implements Service.
func (s *TaskService) Files() filefield.Locator {
	return s.files
}

// GetAll implements Service.
func (s *TaskService) GetAll(ctx context.Context) []Task {
	if s.client == nil {
		s.log.Error().Msg(ErrClientUnavailable.Error())
		return []Task{}
	}

	resp, err := s.client.FetchRecords(ctx, TableName, apper.FetchParams{
		Fields:     apper.Fields(fetchFields...),
		OrderBy:    []apper.OrderBy{{FieldName: FieldCreatedAt, SortType: apper.SortDesc}},
		PagingInfo: &apper.PagingInfo{Limit: PageSize, Offset: 0},
	})
	if err != nil {
		s.log.Error().Err(err).Msg("error fetching tasks")
		return []Task{}
	}
	if !resp.Success {
		s.log.Error().Str("message", resp.Message).Msg("fetch tasks rejected")
		s.notify.Error(resp.Message)
		return []Task{}
	}

	var tasks []Task
	if err := decodeData(resp.Data, &tasks); err != nil {
		s.log.Error().Err(err).Msg("error decoding tasks")
		return []Task{}
	}
	if tasks == nil {
		return []Task{}
	}
	return tasks
}

// GetByID implements Service.
func (s *TaskService) GetByID(ctx context.Context, id int) (Task, bool) {
	if s.client == nil {
		s.log.Error().Msg(ErrClientUnavailable.Error())
		return Task{}, false
	}

	resp, err := s.client.GetRecordByID(ctx, TableName, id, apper.FetchParams{
		Fields: apper.Fields(fetchFields...),
	})
	if err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("error fetching task")
		return Task{}, false
	}
	if !resp.Success {
		s.log.Error().Int("id", id).Str("message", resp.Message).Msg("fetch task rejected")
		return Task{}, false
	}

	var task *Task
	if err := decodeData(resp.Data, &task); err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("error decoding task")
		return Task{}, false
	}
	if task == nil {
		return Task{}, false
	}
	return *task, true
}

// Create implements Service.
func (s *TaskService) Create(ctx context.Context, p Payload) (Task, error) {
	if s.client == nil {
		s.log.Error().Msg(ErrClientUnavailable.Error())
		return Task{}, ErrClientUnavailable
	}
	return s.write(ctx, "create", s.client.CreateRecord, s.createRecord(p), ErrNotCreated)
}

// Update implements Service.
func (s *TaskService) Update(ctx context.Context, id int, p Payload) (Task, error) {
	if s.client == nil {
		s.log.Error().Msg(ErrClientUnavailable.Error())
		return Task{}, ErrClientUnavailable
	}
	return s.write(ctx, "update", s.client.UpdateRecord, updateRecord(id, p), ErrNotUpdated)
}

// Delete implements Service.
func (s *TaskService) Delete(ctx context.Context, ids ...int) (bool, error) {
	if s.client == nil {
		s.log.Error().Msg(ErrClientUnavailable.Error())
		return false, ErrClientUnavailable
	}
	if len(ids) == 0 {
		return false, nil
	}

	resp, err := s.client.DeleteRecord(ctx, TableName, apper.DeleteParams{RecordIDs: ids})
	if err != nil {
		s.log.Error().Err(err).Ints("ids", ids).Msg("error deleting tasks")
		return false, fmt.Errorf("delete tasks: %w", err)
	}
	if !resp.Success {
		s.log.Error().Str("message", resp.Message).Msg("delete tasks rejected")
		s.notify.Error(resp.Message)
		return false, &BackendError{Op: "delete", Message: resp.Message}
	}

	if resp.Results == nil {
		return true, nil
	}

	succeeded, failed := splitResults(resp.Results)
	if len(failed) > 0 {
		s.log.Error().Int("failed", len(failed)).Msg("failed to delete tasks")
		for _, r := range failed {
			if r.Message != "" {
				s.notify.Error(r.Message)
			}
		}
	}
	return len(succeeded) > 0, nil
}

type writeFunc func(ctx context.Context, table string, params apper.RecordsParams) (*apper.Response, error)

// write submits one record and returns the first successful result.
func (s *TaskService) write(ctx context.Context, op string, call writeFunc, record apper.Record, errNone error) (Task, error) {
	resp, err := call(ctx, TableName, apper.RecordsParams{Records: []apper.Record{record}})
	if err != nil {
		s.log.Error().Err(err).Msgf("error on %s task", op)
		return Task{}, fmt.Errorf("%s task: %w", op, err)
	}
	if !resp.Success {
		s.log.Error().Str("message", resp.Message).Msgf("%s task rejected", op)
		s.notify.Error(resp.Message)
		return Task{}, &BackendError{Op: op, Message: resp.Message}
	}

	if resp.Results != nil {
		succeeded, failed := splitResults(resp.Results)
		if len(failed) > 0 {
			s.log.Error().Int("failed", len(failed)).Msgf("failed to %s tasks", op)
			for _, r := range failed {
				for _, fe := range r.Errors {
					s.notify.Error(fe.String())
				}
				if r.Message != "" {
					s.notify.Error(r.Message)
				}
			}
		}
		if len(succeeded) > 0 {
			var task Task
			if err := decodeData(succeeded[0].Data, &task); err != nil {
				s.log.Error().Err(err).Msgf("error decoding %sd task", op)
				return Task{}, fmt.Errorf("%s task: %w", op, err)
			}
			return task, nil
		}
	}

	return Task{}, errNone
}

// createRecord builds the record for Create. A non-empty legacy key wins
// over its column name; empty attributes are dropped.
func (s *TaskService) createRecord(p Payload) apper.Record {
	rec := apper.Record{}
	for _, a := range attributes {
		v := p[a.legacy]
		if isEmpty(v) {
			v = p[a.column]
		}
		if a.column == FieldCreatedAt && isEmpty(v) {
			v = s.now().UTC().Format("2006-01-02T15:04:05.000Z")
		}
		if !isEmpty(v) {
			rec[a.column] = v
		}
	}
	return rec
}

// updateRecord builds the record for Update from the keys present in p.
// A column name wins over its legacy key when both are present.
func updateRecord(id int, p Payload) apper.Record {
	rec := apper.Record{FieldID: id}
	for _, a := range attributes {
		if v, ok := p[a.legacy]; ok {
			rec[a.column] = v
		}
	}
	for _, a := range attributes {
		if v, ok := p[a.column]; ok {
			rec[a.column] = v
		}
	}
	return rec
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func splitResults(results []apper.Result) (succeeded, failed []apper.Result) {
	for _, r := range results {
		if r.Success {
			succeeded = append(succeeded, r)
		} else {
			failed = append(failed, r)
		}
	}
	return succeeded, failed
}

// decodeData unmarshals a response payload. Missing or null data leaves v
// untouched.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
