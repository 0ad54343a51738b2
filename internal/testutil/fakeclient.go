// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"flowtrack/internal/apper"
)

// FakeClient is an in-memory implementation of apper.Client for testing.
type FakeClient struct {
	mu      sync.RWMutex
	records map[string]map[int]apper.Record // table -> id -> record
	nextID  int

	// Submitted payloads, in call order.
	Fetches []apper.FetchParams
	Created []apper.Record
	Updated []apper.Record
	Deleted [][]int

	// Transport error injection
	FetchErr  error
	GetErr    error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Reject makes the named operation (fetch, get, create, update,
	// delete) answer success=false with the given message.
	Reject map[string]string

	// FailRecords makes per-record updates and deletes of these ids fail
	// with the given message.
	FailRecords map[int]string

	// CreateFieldErrors makes every created record fail with these errors.
	CreateFieldErrors []apper.FieldError
}

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		records:     make(map[string]map[int]apper.Record),
		nextID:      1,
		Reject:      make(map[string]string),
		FailRecords: make(map[int]string),
	}
}

// AddRecord stores rec in table and returns its id.
// An explicit "Id" in rec is kept.
func (f *FakeClient) AddRecord(table string, rec apper.Record) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(table, rec)
}

// Record returns a stored record.
func (f *FakeClient) Record(table string, id int) (apper.Record, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rec, ok := f.records[table][id]
	return copyRecord(rec), ok
}

func (f *FakeClient) insert(table string, rec apper.Record) int {
	id, ok := rec["Id"].(int)
	if !ok {
		id = f.nextID
	}
	if id >= f.nextID {
		f.nextID = id + 1
	}
	c := copyRecord(rec)
	c["Id"] = id
	if f.records[table] == nil {
		f.records[table] = make(map[int]apper.Record)
	}
	f.records[table][id] = c
	return id
}

func (f *FakeClient) rejected(op string) (*apper.Response, bool) {
	if msg, ok := f.Reject[op]; ok {
		return &apper.Response{Success: false, Message: msg}, true
	}
	return nil, false
}

// FetchRecords implements apper.Client. Records are sorted by the first
// OrderBy field and cut to the paging limit.
func (f *FakeClient) FetchRecords(ctx context.Context, table string, params apper.FetchParams) (*apper.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches = append(f.Fetches, params)

	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	if resp, ok := f.rejected("fetch"); ok {
		return resp, nil
	}

	rows := make([]apper.Record, 0, len(f.records[table]))
	for _, rec := range f.records[table] {
		rows = append(rows, copyRecord(rec))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i]["Id"].(int) < rows[j]["Id"].(int)
	})
	if len(params.OrderBy) > 0 {
		ob := params.OrderBy[0]
		sort.SliceStable(rows, func(i, j int) bool {
			a, _ := rows[i][ob.FieldName].(string)
			b, _ := rows[j][ob.FieldName].(string)
			if ob.SortType == apper.SortDesc {
				return a > b
			}
			return a < b
		})
	}
	if params.PagingInfo != nil {
		start := min(params.PagingInfo.Offset, len(rows))
		end := len(rows)
		if params.PagingInfo.Limit > 0 {
			end = min(start+params.PagingInfo.Limit, len(rows))
		}
		rows = rows[start:end]
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return &apper.Response{Success: true, Data: data}, nil
}

// GetRecordByID implements apper.Client. Missing records come back with
// no data.
func (f *FakeClient) GetRecordByID(ctx context.Context, table string, id int, params apper.FetchParams) (*apper.Response, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if resp, ok := f.rejected("get"); ok {
		return resp, nil
	}

	rec, ok := f.records[table][id]
	if !ok {
		return &apper.Response{Success: true}, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return &apper.Response{Success: true, Data: data}, nil
}

// CreateRecord implements apper.Client.
func (f *FakeClient) CreateRecord(ctx context.Context, table string, params apper.RecordsParams) (*apper.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, params.Records...)

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if resp, ok := f.rejected("create"); ok {
		return resp, nil
	}

	resp := &apper.Response{Success: true, Results: []apper.Result{}}
	for _, rec := range params.Records {
		if len(f.CreateFieldErrors) > 0 {
			resp.Results = append(resp.Results, apper.Result{
				Success: false,
				Message: "validation failed",
				Errors:  f.CreateFieldErrors,
			})
			continue
		}
		id := f.insert(table, rec)
		data, err := json.Marshal(f.records[table][id])
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, apper.Result{Success: true, Data: data})
	}
	return resp, nil
}

// UpdateRecord implements apper.Client.
func (f *FakeClient) UpdateRecord(ctx context.Context, table string, params apper.RecordsParams) (*apper.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updated = append(f.Updated, params.Records...)

	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	if resp, ok := f.rejected("update"); ok {
		return resp, nil
	}

	resp := &apper.Response{Success: true, Results: []apper.Result{}}
	for _, rec := range params.Records {
		id, _ := rec["Id"].(int)
		if msg, ok := f.FailRecords[id]; ok {
			resp.Results = append(resp.Results, apper.Result{Success: false, Message: msg})
			continue
		}
		stored, ok := f.records[table][id]
		if !ok {
			resp.Results = append(resp.Results, apper.Result{Success: false, Message: "record not found"})
			continue
		}
		for k, v := range rec {
			stored[k] = v
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, apper.Result{Success: true, Data: data})
	}
	return resp, nil
}

// DeleteRecord implements apper.Client.
func (f *FakeClient) DeleteRecord(ctx context.Context, table string, params apper.DeleteParams) (*apper.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, params.RecordIDs)

	if f.DeleteErr != nil {
		return nil, f.DeleteErr
	}
	if resp, ok := f.rejected("delete"); ok {
		return resp, nil
	}

	resp := &apper.Response{Success: true, Results: []apper.Result{}}
	for _, id := range params.RecordIDs {
		if msg, ok := f.FailRecords[id]; ok {
			resp.Results = append(resp.Results, apper.Result{Success: false, Message: msg})
			continue
		}
		if _, ok := f.records[table][id]; !ok {
			resp.Results = append(resp.Results, apper.Result{Success: false, Message: "record not found"})
			continue
		}
		delete(f.records[table], id)
		resp.Results = append(resp.Results, apper.Result{Success: true})
	}
	return resp, nil
}

func copyRecord(rec apper.Record) apper.Record {
	if rec == nil {
		return nil
	}
	c := make(apper.Record, len(rec))
	for k, v := range rec {
		c[k] = v
	}
	return c
}

// RecordingNotifier collects user-facing messages.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

// Error records msg.
func (n *RecordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

// Messages returns the recorded messages.
func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
