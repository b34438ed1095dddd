package engine

import (
	"context"
	"sort"
	"time"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"go.uber.org/zap"
)

// Merge folds the source branch's history into the target branch.
//
// When the target head is an ancestor of the source head the merge is a
// fast-forward: the target head simply moves. Otherwise the changes on
// both sides since their latest common ancestor are compared. Branches in
// one lock domain cannot have touched the same path with different results,
// so their merges always apply; across domains a path changed on both sides
// to different content is recorded as a model.PendingMerge for operator
// resolution and the merge returns a model.MergePendingError. Nothing moves
// in that case.
func (r *Repo) Merge(ctx context.Context, source, target string) (*model.Commit, error) {
	var (
		commit     *model.Commit
		pendingErr error
	)
	err := r.index.Update(ctx, func(tx store.Tx) error {
		pendingErr = nil
		src, err := tx.GetBranch(source)
		if err != nil {
			return err
		}
		dst, err := tx.GetBranch(target)
		if err != nil {
			return err
		}
		if src.Head == dst.Head {
			commit, err = tx.GetCommit(dst.Head)
			return err
		}

		// fast-forward when the target has not moved since the fork
		if _, reached, err := commitRange(tx, src.Head, dst.Head); err != nil {
			return err
		} else if reached {
			commit, err = tx.GetCommit(src.Head)
			if err != nil {
				return err
			}
			dst.Head = src.Head
			if err := tx.PutBranch(dst); err != nil {
				return err
			}
			r.logs.Info("merge fast-forwarded",
				zap.String("source", source),
				zap.String("target", target),
				zap.String("head", dst.Head))
			return nil
		}

		srcAncestors, err := ancestors(tx, src.Head)
		if err != nil {
			return err
		}
		srcAncestors[src.Head] = true
		ancestor, err := commonAncestor(tx, dst.Head, srcAncestors)
		if err != nil {
			return err
		}
		srcChanges, err := changesSince(tx, src.Head, ancestor)
		if err != nil {
			return err
		}
		dstChanges, err := changesSince(tx, dst.Head, ancestor)
		if err != nil {
			return err
		}

		var colliding []string
		for path, change := range srcChanges {
			other, ok := dstChanges[path]
			if !ok {
				continue
			}
			if change.Type == other.Type && change.Hash == other.Hash {
				// both sides converged on the same content
				continue
			}
			colliding = append(colliding, path)
		}
		if len(colliding) > 0 {
			sort.Strings(colliding)
			pending := model.PendingMerge{
				Source:     source,
				Target:     target,
				SourceHead: src.Head,
				TargetHead: dst.Head,
				Paths:      colliding,
				Recorded:   time.Now().UTC(),
			}
			if err := tx.PutPendingMerge(&pending); err != nil {
				return err
			}
			// the record must outlive this transaction, so the error
			// surfaces only after the commit
			pendingErr = &model.MergePendingError{Pending: pending}
			return nil
		}

		// the merge commit carries the source-side changes as its own
		// change set, so first-parent replay stays complete
		var changes model.ChangeSet
		for _, change := range srcChanges {
			changes = changes.Add(change)
		}
		commit = model.NewCommit([]string{dst.Head, src.Head}, dst.Name, r.author,
			"merge "+source+" into "+target, changes)
		if err := tx.PutCommit(commit); err != nil {
			return err
		}
		dst.Head = commit.ID
		if err := tx.PutBranch(dst); err != nil {
			return err
		}
		r.logs.Info("merge committed",
			zap.String("source", source),
			zap.String("target", target),
			zap.String("commit", commit.ID),
			zap.Int("changes", len(changes)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pendingErr != nil {
		return nil, pendingErr
	}
	return commit, nil
}

// MergesPending lists the merges recorded for operator resolution.
func (r *Repo) MergesPending(ctx context.Context) ([]model.PendingMerge, error) {
	var pending []model.PendingMerge
	err := r.index.View(ctx, func(tx store.Tx) error {
		var e error
		pending, e = tx.ListPendingMerges()
		return e
	})
	return pending, err
}

// ResolveMerge drops the pending merge record for a source and target
// pair, after the operator reconciled the colliding paths by hand.
func (r *Repo) ResolveMerge(ctx context.Context, source, target string) error {
	return r.index.Update(ctx, func(tx store.Tx) error {
		return tx.DeletePendingMerge(target, source)
	})
}
