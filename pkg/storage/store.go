package storage

import (
	"context"
	"io"
)

type errString string

func (e errString) Error() string { return string(e) }

const (
	// ErrNotFound is returned when a key has no object
	ErrNotFound errString = "not found"

	// ErrExists is returned by exclusive writes on an existing key
	ErrExists errString = "exists already"
)

// Store implementations know how to read and write blobs in a K/V model.
//
// Typically this is something file system-like. Implementations are assumed
// to be fairly simple; content addressing and dedup live one layer up, in
// the cas package.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
}
