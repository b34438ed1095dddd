package engine

import (
	"context"
	"fmt"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"go.uber.org/zap"
)

// Commit turns the workspace's pending changes into a commit on its branch.
//
// Blob uploads happen before the metadata transaction: the blob store is
// content addressed, so an upload for a commit that fails is harmless. The
// transaction then verifies the workspace revision is still the branch
// head, verifies the workspace still holds the lock on every touched path
// and that no foreign holder does, appends the commit, advances the head
// and releases the workspace's locks, all atomically. A head mismatch fails with model.StaleWorkspaceError and the
// workspace stays intact: sync and retry.
func (r *Repo) Commit(ctx context.Context, ws *Workspace, message string) (*model.Commit, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if len(ws.pending) == 0 {
		return nil, model.ErrEmptyChangeSet
	}

	changes := make(model.ChangeSet, len(ws.pending))
	copy(changes, ws.pending)
	for i, change := range changes {
		if change.Type == model.ChangeDelete {
			continue
		}
		src, err := ws.fs.Open(change.Path)
		if err != nil {
			return nil, err
		}
		key, _, err := r.objects.Put(ctx, src)
		src.Close()
		if err != nil {
			return nil, err
		}
		changes[i].Hash = key.String()
	}

	var commit *model.Commit
	err := r.index.Update(ctx, func(tx store.Tx) error {
		branch, err := tx.GetBranch(ws.spec.Branch)
		if err != nil {
			return err
		}
		if branch.Head != ws.spec.Revision {
			return &model.StaleWorkspaceError{
				Branch:   branch.Name,
				Revision: ws.spec.Revision,
				Head:     branch.Head,
			}
		}
		for _, change := range changes {
			holders, err := tx.Locks(branch.LockDomainID, change.Path)
			if err != nil {
				return err
			}
			held := false
			for _, holder := range holders {
				if holder.WorkspaceID == ws.spec.ID {
					held = true
					continue
				}
				return &model.ConflictError{
					DomainID: branch.LockDomainID,
					Path:     change.Path,
					Holder:   holder,
				}
			}
			// the stage left a lock behind, e.g. in a domain the branch
			// has since been detached from
			if !held {
				return fmt.Errorf("%s: %w", change.Path, model.ErrLockNotHeld)
			}
		}

		commit = model.NewCommit([]string{branch.Head}, branch.Name, r.author, message, changes)
		if err := tx.PutCommit(commit); err != nil {
			return err
		}
		branch.Head = commit.ID
		if err := tx.PutBranch(branch); err != nil {
			return err
		}
		for _, change := range changes {
			if err := tx.DeleteLock(branch.LockDomainID, change.Path, ws.spec.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ws.pending = nil
	ws.spec.Revision = commit.ID
	if err := ws.save(); err != nil {
		return nil, err
	}
	r.logs.Info("commit recorded",
		zap.String("branch", commit.Branch),
		zap.String("commit", commit.ID),
		zap.Int("changes", len(commit.Changes)))
	return commit, nil
}
