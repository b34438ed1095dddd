// Package bdgr implements the keystone metadata index on badger.
//
// All index tables live in a single badger database so that compound
// operations (commit append + head advance + lock release) commit in one
// transaction.
package bdgr

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"go.uber.org/zap"
)

const (
	maxRetries   = 5
	retryBackoff = 20 * time.Millisecond
)

var _ store.Index = &badgerIndex{}

// Option configures the index
type Option func(*badgerIndex)

// Logger sets the zap logger used by the index
func Logger(logs *zap.Logger) Option {
	return func(b *badgerIndex) {
		b.logs = logs
	}
}

// New creates a badger backed metadata index rooted at baseDir
func New(baseDir string, opts ...Option) store.Index {
	b := &badgerIndex{
		baseDir: baseDir,
		logs:    zap.NewNop(),
	}
	for _, configure := range opts {
		configure(b)
	}
	return b
}

type badgerIndex struct {
	baseDir string
	db      *badger.DB
	logs    *zap.Logger
	init    sync.Once
	close   sync.Once
}

func (b *badgerIndex) Initialize() error {
	var err error

	b.init.Do(func() {
		if err = os.MkdirAll(b.baseDir, 0700); err != nil {
			return
		}
		bopts := badger.DefaultOptions(b.baseDir)
		bopts.Logger = nil

		var db *badger.DB
		db, err = badger.Open(bopts)
		if err != nil {
			return
		}
		b.db = db
	})

	return err
}

func (b *badgerIndex) Close() error {
	var err error

	b.close.Do(func() {
		if b.db != nil {
			err = b.db.Close()
			if err == nil {
				b.db = nil
			}
		}
	})

	return err
}

func (b *badgerIndex) View(ctx context.Context, fn func(store.Tx) error) error {
	if b.db == nil {
		return fmt.Errorf("index not initialized: %w", model.ErrStorageFailure)
	}
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&indexTx{txn: txn})
	})
}

func (b *badgerIndex) Update(ctx context.Context, fn func(store.Tx) error) error {
	if b.db == nil {
		return fmt.Errorf("index not initialized: %w", model.ErrStorageFailure)
	}

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if e := ctx.Err(); e != nil {
			return e
		}
		err = b.db.Update(func(txn *badger.Txn) error {
			return fn(&indexTx{txn: txn})
		})
		if err != badger.ErrConflict {
			return err
		}
		b.logs.Debug("index transaction conflict, retrying",
			zap.Int("attempt", attempt+1))
		time.Sleep(retryBackoff << uint(attempt))
	}
	return fmt.Errorf("transaction retries exhausted: %v: %w", err, model.ErrStorageFailure)
}
