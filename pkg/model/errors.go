package model

import (
	"fmt"
	"strings"
)

type errorString string

func (e errorString) Error() string {
	return string(e)
}

const (
	// ErrUnknownBranch is returned for a reference to a branch that does not exist
	ErrUnknownBranch errorString = "unknown branch"

	// ErrUnknownDomain is returned for a reference to a lock domain that does not exist
	ErrUnknownDomain errorString = "unknown lock domain"

	// ErrUnknownPath is returned for a path absent from both the pending changes and the tree
	ErrUnknownPath errorString = "unknown path"

	// ErrCommitNotFound is returned when a commit id cannot be resolved
	ErrCommitNotFound errorString = "commit not found"

	// ErrBranchExists is returned when creating a branch that already exists
	ErrBranchExists errorString = "branch already exists"

	// ErrEmptyChangeSet is returned when committing a workspace with no pending changes
	ErrEmptyChangeSet errorString = "nothing to commit"

	// ErrLockNotHeld is returned when a commit finds a staged path with no
	// lock held by the committing workspace, e.g. after a detach left the
	// lock behind in the old domain
	ErrLockNotHeld errorString = "path not locked by this workspace"

	// ErrStorageFailure wraps collaborator I/O errors after retries are exhausted
	ErrStorageFailure errorString = "storage failure"
)

// ConflictError reports a lock acquisition denied by an existing holder.
type ConflictError struct {
	DomainID string
	Path     string
	Holder   Lock
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Conflict: %s locked in domain %s, held by workspace %s on branch %s",
		e.Path, e.DomainID, e.Holder.WorkspaceID, e.Holder.BranchName)
}

// LockCollisionError reports an attach refused because a path is locked by
// incompatible holders in both domains.
type LockCollisionError struct {
	Path         string
	SourceDomain string
	TargetDomain string
}

func (e *LockCollisionError) Error() string {
	return fmt.Sprintf("LockCollision: %s locked in both domain %s and domain %s",
		e.Path, e.SourceDomain, e.TargetDomain)
}

// StaleWorkspaceError reports a commit attempted against a non-head revision.
// The caller should sync and retry.
type StaleWorkspaceError struct {
	Branch   string
	Revision string
	Head     string
}

func (e *StaleWorkspaceError) Error() string {
	return fmt.Sprintf("StaleWorkspace: branch %s is at %s but workspace is at %s, sync first",
		e.Branch, e.Head, e.Revision)
}

// SyncConflictError reports pending edits colliding with the incoming
// revision delta. The workspace is left unchanged.
type SyncConflictError struct {
	Paths []string
}

func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("SyncConflict: pending changes collide with incoming revisions: %s",
		strings.Join(e.Paths, ", "))
}

// MergePendingError reports a cross-domain merge that was recorded for
// manual resolution instead of being applied.
type MergePendingError struct {
	Pending PendingMerge
}

func (e *MergePendingError) Error() string {
	return fmt.Sprintf("MergePending: merge of %s into %s needs resolution on: %s",
		e.Pending.Source, e.Pending.Target, strings.Join(e.Pending.Paths, ", "))
}
