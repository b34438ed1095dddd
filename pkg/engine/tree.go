package engine

import (
	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
)

// History helpers. Commits record complete change sets, and a merge commit
// carries the combined changes as its own change set, so the first-parent
// chain is sufficient to reconstruct any tree.

// treeAt reconstructs the path to blob hash mapping at a revision by
// replaying change sets backwards along the first-parent chain: the first
// change seen for a path wins.
func treeAt(tx store.Tx, revision string) (map[string]string, error) {
	tree := make(map[string]string)
	seen := make(map[string]bool)

	id := revision
	for id != "" {
		c, err := tx.GetCommit(id)
		if err != nil {
			return nil, err
		}
		for _, change := range c.Changes {
			if seen[change.Path] {
				continue
			}
			seen[change.Path] = true
			if change.Type != model.ChangeDelete {
				tree[change.Path] = change.Hash
			}
		}
		if len(c.Parents) == 0 {
			break
		}
		id = c.Parents[0]
	}
	return tree, nil
}

// pathHashAt resolves the blob hash of one path at a revision, or
// model.ErrUnknownPath when the path does not exist there.
func pathHashAt(tx store.Tx, revision, path string) (string, error) {
	id := revision
	for id != "" {
		c, err := tx.GetCommit(id)
		if err != nil {
			return "", err
		}
		if change, ok := c.Changes.Get(path); ok {
			if change.Type == model.ChangeDelete {
				return "", model.ErrUnknownPath
			}
			return change.Hash, nil
		}
		if len(c.Parents) == 0 {
			break
		}
		id = c.Parents[0]
	}
	return "", model.ErrUnknownPath
}

// commitRange walks the first-parent chain from head down to ancestor,
// newest first, excluding ancestor itself. It reports whether ancestor was
// reached.
func commitRange(tx store.Tx, head, ancestor string) ([]model.Commit, bool, error) {
	var commits []model.Commit
	id := head
	for id != "" {
		if id == ancestor {
			return commits, true, nil
		}
		c, err := tx.GetCommit(id)
		if err != nil {
			return nil, false, err
		}
		commits = append(commits, *c)
		if len(c.Parents) == 0 {
			break
		}
		id = c.Parents[0]
	}
	return commits, false, nil
}

// deltaPaths lists the paths touched between two revisions of one branch,
// in either direction.
func deltaPaths(tx store.Tx, from, to string) ([]string, error) {
	commits, reached, err := commitRange(tx, to, from)
	if err != nil {
		return nil, err
	}
	if !reached {
		// syncing backwards
		commits, reached, err = commitRange(tx, from, to)
		if err != nil {
			return nil, err
		}
		if !reached {
			return nil, model.ErrCommitNotFound
		}
	}

	seen := make(map[string]bool)
	var paths []string
	for _, c := range commits {
		for _, change := range c.Changes {
			if seen[change.Path] {
				continue
			}
			seen[change.Path] = true
			paths = append(paths, change.Path)
		}
	}
	return paths, nil
}

// ancestors collects every ancestor commit id of a commit, following all
// parents of merge commits.
func ancestors(tx store.Tx, id string) (map[string]bool, error) {
	result := make(map[string]bool)
	seeds := []string{id}
	for len(seeds) > 0 {
		seed := seeds[0]
		seeds = seeds[1:]
		c, err := tx.GetCommit(seed)
		if err != nil {
			return nil, err
		}
		for _, parent := range c.Parents {
			if !result[parent] {
				result[parent] = true
				seeds = append(seeds, parent)
			}
		}
	}
	return result, nil
}

// commonAncestor finds the most recent commit on the first-parent chain of
// head that is also an ancestor of the other branch.
func commonAncestor(tx store.Tx, head string, otherAncestors map[string]bool) (string, error) {
	id := head
	for id != "" {
		if otherAncestors[id] {
			return id, nil
		}
		c, err := tx.GetCommit(id)
		if err != nil {
			return "", err
		}
		if len(c.Parents) == 0 {
			break
		}
		id = c.Parents[0]
	}
	return "", model.ErrCommitNotFound
}

// changesSince maps each path touched between ancestor and head to its most
// recent change.
func changesSince(tx store.Tx, head, ancestor string) (map[string]model.Change, error) {
	commits, reached, err := commitRange(tx, head, ancestor)
	if err != nil {
		return nil, err
	}
	if !reached {
		return nil, model.ErrCommitNotFound
	}
	changes := make(map[string]model.Change)
	for _, c := range commits {
		for _, change := range c.Changes {
			if _, ok := changes[change.Path]; !ok {
				changes[change.Path] = change
			}
		}
	}
	return changes, nil
}
