// Package filefield mounts a file-attachment field into an external upload
// SDK and keeps the SDK's file list in step with the caller's.
package filefield

import (
	"context"
	"encoding/json"
)

// File is a single file reference as exchanged with the SDK.
// API-format references carry "Id"; UI-format references carry "id".
type File map[string]any

// IsAPIFormat reports whether the reference carries a set "Id". A zero,
// empty or false Id does not count.
func (f File) IsAPIFormat() bool {
	switch v := f["Id"].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case int32:
		return v != 0
	case json.Number:
		return v != "" && v != "0"
	default:
		return true
	}
}

// Config describes the field to mount.
type Config struct {
	FieldKey      string `json:"fieldKey"`
	TableName     string `json:"tableName"`
	ProjectID     string `json:"apperProjectId"`
	PublicKey     string `json:"apperPublicKey"`
	ExistingFiles []File `json:"existingFiles"`
}

// SDK is the external upload SDK.
type SDK interface {
	// FileField returns the file-field capability, or nil if the loaded
	// SDK does not provide one.
	FileField() FileField

	// ToUIFormat converts API-format references to UI format.
	ToUIFormat(files []File) []File
}

// FileField mounts upload widgets and manages their file lists.
type FileField interface {
	Mount(ctx context.Context, elementID string, cfg Config) error
	Unmount(ctx context.Context, elementID string) error
	UpdateFiles(ctx context.Context, fieldKey string, files []File) error
	ClearField(ctx context.Context, fieldKey string) error
}

// Locator returns the SDK if it has been loaded, nil otherwise.
// It is polled until the SDK appears or the wait bound is reached.
type Locator func() SDK
