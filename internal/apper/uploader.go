package apper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode"
	"unicode/utf8"

	"flowtrack/internal/filefield"
)

// Uploader is the backend's file-field SDK. It satisfies both
// filefield.SDK and filefield.FileField.
type Uploader struct {
	c *HTTPClient
}

// Uploader returns the file SDK sharing this client's transport.
func (c *HTTPClient) Uploader() *Uploader {
	return &Uploader{c: c}
}

// FileField implements filefield.SDK.
func (u *Uploader) FileField() filefield.FileField {
	return u
}

// ToUIFormat implements filefield.SDK. API references use capitalised keys
// (Id, Name, Size); UI references use the same keys starting lower case.
func (u *Uploader) ToUIFormat(files []filefield.File) []filefield.File {
	out := make([]filefield.File, 0, len(files))
	for _, f := range files {
		ui := make(filefield.File, len(f))
		for k, v := range f {
			ui[lowerFirst(k)] = v
		}
		out = append(out, ui)
	}
	return out
}

// Mount registers the widget for elementID with the full field config.
func (u *Uploader) Mount(ctx context.Context, elementID string, cfg filefield.Config) error {
	return u.call(ctx, http.MethodPost, u.fieldPath(elementID), cfg)
}

// Unmount releases the widget for elementID.
func (u *Uploader) Unmount(ctx context.Context, elementID string) error {
	return u.call(ctx, http.MethodDelete, u.fieldPath(elementID), nil)
}

// UpdateFiles replaces the file list of the field.
func (u *Uploader) UpdateFiles(ctx context.Context, fieldKey string, files []filefield.File) error {
	body := struct {
		Files []filefield.File `json:"files"`
	}{Files: files}
	return u.call(ctx, http.MethodPut, u.keyPath(fieldKey), body)
}

// ClearField removes every file from the field.
func (u *Uploader) ClearField(ctx context.Context, fieldKey string) error {
	return u.call(ctx, http.MethodDelete, u.keyPath(fieldKey), nil)
}

func (u *Uploader) fieldPath(elementID string) string {
	return joinPath(apiVersion, "projects", u.c.projectID, "files", "fields", elementID)
}

func (u *Uploader) keyPath(fieldKey string) string {
	return joinPath(apiVersion, "projects", u.c.projectID, "files", "keys", fieldKey, "files")
}

func (u *Uploader) call(ctx context.Context, method, path string, body any) error {
	resp, err := u.c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message == "" {
			return fmt.Errorf("file service rejected %s", method)
		}
		return errors.New(resp.Message)
	}
	return nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
