package cas

import (
	"bufio"
	"bytes"
	"context"
	"io"

	units "github.com/docker/go-units"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/keystone-scm/keystone/pkg/storage"
	"go.uber.org/zap"
)

const bufferSize = 4 * units.MiB

// Fs is a content addressed store of blobs.
type Fs interface {
	// Put stores the bytes of the reader and returns their key. The second
	// return reports whether the object already existed: identical bytes are
	// never stored twice.
	Put(ctx context.Context, src io.Reader) (Key, bool, error)

	// Get opens the object stored under a key.
	Get(ctx context.Context, key Key) (io.ReadCloser, error)

	Has(ctx context.Context, key Key) (bool, error)
	Delete(ctx context.Context, key Key) error
	Keys(ctx context.Context) ([]Key, error)
}

// Option configures the content addressed store
type Option func(*defaultFs)

// Backend sets the underlying blob store
func Backend(store storage.Store) Option {
	return func(fs *defaultFs) {
		fs.blobs = store
	}
}

// Logger sets the zap logger
func Logger(logs *zap.Logger) Option {
	return func(fs *defaultFs) {
		fs.logs = logs
	}
}

// New creates a content addressed store over a blob backend
func New(opts ...Option) Fs {
	f := &defaultFs{
		logs: zap.NewNop(),
	}
	for _, apply := range opts {
		apply(f)
	}
	return f
}

type defaultFs struct {
	blobs storage.Store
	logs  *zap.Logger
}

func (d *defaultFs) Put(ctx context.Context, src io.Reader) (Key, bool, error) {
	// hashing requires a full pass over the data, so buffer through a
	// spooled read before deciding whether the backend already has it
	hasher := blake2b.New512()
	buffered := bufio.NewReaderSize(src, bufferSize)

	data, err := io.ReadAll(io.TeeReader(buffered, hasher))
	if err != nil {
		return Key{}, false, err
	}

	key := MustNewKey(hasher.Sum(nil))
	exists, err := d.blobs.Has(ctx, key.String())
	if err != nil {
		return Key{}, false, err
	}
	if exists {
		d.logs.Debug("cas put dedup", zap.Stringer("key", key))
		return key, true, nil
	}

	if err := d.blobs.Put(ctx, key.String(), bytes.NewReader(data)); err != nil {
		return Key{}, false, err
	}
	d.logs.Debug("cas put", zap.Stringer("key", key), zap.Int("size", len(data)))
	return key, false, nil
}

func (d *defaultFs) Get(ctx context.Context, key Key) (io.ReadCloser, error) {
	return d.blobs.Get(ctx, key.String())
}

func (d *defaultFs) Has(ctx context.Context, key Key) (bool, error) {
	return d.blobs.Has(ctx, key.String())
}

func (d *defaultFs) Delete(ctx context.Context, key Key) error {
	return d.blobs.Delete(ctx, key.String())
}

func (d *defaultFs) Keys(ctx context.Context) ([]Key, error) {
	names, err := d.blobs.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]Key, 0, len(names))
	for _, name := range names {
		k, err := KeyFromString(name)
		if err != nil {
			// not a content addressed object, skip
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}
