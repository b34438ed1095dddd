// Package store defines the persistence interfaces for the keystone
// metadata index: branches, commits, locks and pending merges.
//
// Implementations must serialize Update transactions so that lock grants,
// domain surgery and commit appends are linearizable per repository.
package store

import (
	"context"

	"github.com/keystone-scm/keystone/pkg/model"
)

// Tx exposes the index tables inside one transaction. Mutations performed
// through a Tx become visible atomically when the enclosing Update commits.
type Tx interface {
	GetBranch(name string) (*model.Branch, error)
	PutBranch(branch *model.Branch) error
	ListBranches() ([]model.Branch, error)
	BranchesInDomain(domainID string) ([]model.Branch, error)

	GetCommit(id string) (*model.Commit, error)
	PutCommit(commit *model.Commit) error

	// Locks returns every holder of a path in a domain. More than one
	// holder exists only when a merge policy sanctioned sharing.
	Locks(domainID, path string) ([]model.Lock, error)
	LocksInDomain(domainID string) ([]model.Lock, error)
	PutLock(lock *model.Lock) error
	DeleteLock(domainID, path, workspaceID string) error

	PutPendingMerge(pending *model.PendingMerge) error
	ListPendingMerges() ([]model.PendingMerge, error)
	DeletePendingMerge(target, source string) error
}

// An Index manages the repository metadata in a transactional store.
type Index interface {
	Initialize() error
	Close() error

	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error

	// Update runs fn in a read-write transaction. The transaction commits
	// atomically; on serialization conflicts the implementation retries fn
	// with bounded backoff before giving up.
	Update(ctx context.Context, fn func(Tx) error) error
}
