package catalog

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

var (
	ErrValidation    = errors.New("invalid product")
	ErrDuplicateCode = errors.New("product code already exists")
	ErrNotFound      = errors.New("product not found")
	ErrStorageRead   = errors.New("catalog storage read failed")
	ErrStorageWrite  = errors.New("catalog storage write failed")
)

// FieldError describes one failing field of a draft or patch.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param == "" {
		return fmt.Sprintf("%s(%s)", f.Field, f.Rule)
	}
	return fmt.Sprintf("%s(%s=%s)", f.Field, f.Rule, f.Param)
}

// ValidationError lists every field that failed, not only the first.
type ValidationError struct {
	Title  string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("product %q: invalid fields: %s", e.Title, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

const (
	opLoad = "load"
	opSave = "save"
)

// StorageError is returned when the backing snapshot could not be read or
// written. A failed save leaves the in-memory mutation in place.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "catalog " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	switch target {
	case ErrStorageRead:
		return e.Op == opLoad
	case ErrStorageWrite:
		return e.Op == opSave
	}
	return false
}
