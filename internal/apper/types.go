// Package apper is the client for the Apper backend that stores FlowTrack
// records and files.
package apper

import (
	"context"
	"encoding/json"
)

// Client is the record API of the backend. Every call is a single round
// trip; failures reported by the backend come back in Response, transport
// failures as errors.
type Client interface {
	FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error)
	GetRecordByID(ctx context.Context, table string, id int, params FetchParams) (*Response, error)
	CreateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error)
	UpdateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error)
	DeleteRecord(ctx context.Context, table string, params DeleteParams) (*Response, error)
}

// FieldRef selects a column by name.
type FieldRef struct {
	Field FieldName `json:"field"`
}

// FieldName is the column name inside a FieldRef.
type FieldName struct {
	Name string `json:"Name"`
}

// Fields builds field references for the given column names.
func Fields(names ...string) []FieldRef {
	refs := make([]FieldRef, len(names))
	for i, n := range names {
		refs[i] = FieldRef{Field: FieldName{Name: n}}
	}
	return refs
}

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// OrderBy sorts fetched records.
type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

// PagingInfo limits fetched records.
type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FetchParams are the parameters of FetchRecords and GetRecordByID.
type FetchParams struct {
	Fields     []FieldRef  `json:"fields"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty"`
	PagingInfo *PagingInfo `json:"pagingInfo,omitempty"`
}

// Record is a row keyed by column name.
type Record map[string]any

// RecordsParams carries records to create or update.
type RecordsParams struct {
	Records []Record `json:"records"`
}

// DeleteParams lists the ids to delete.
type DeleteParams struct {
	RecordIDs []int `json:"RecordIds"`
}

// Response is the envelope every record call returns.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Results []Result        `json:"results,omitempty"`
}

// Result is the per-record outcome of a create, update or delete.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
}

// FieldError is a validation failure on one field of one record.
type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

func (e FieldError) String() string {
	return e.FieldLabel + ": " + e.Message
}
