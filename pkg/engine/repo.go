// Package engine ties the keystone components together: it exposes the
// repository session handle, the workspace engine and the commit and merge
// pipeline on top of the metadata index, the content addressed blob store
// and the lock domain manager.
package engine

import (
	"context"

	"github.com/keystone-scm/keystone/pkg/cas"
	"github.com/keystone-scm/keystone/pkg/lockdomain"
	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"go.uber.org/zap"
)

// DefaultBranch is the branch seeded by repository initialization
const DefaultBranch = "main"

// Option configures a repository session
type Option func(*Repo)

// Index sets the metadata index
func Index(index store.Index) Option {
	return func(r *Repo) {
		r.index = index
	}
}

// Objects sets the content addressed blob store
func Objects(objects cas.Fs) Option {
	return func(r *Repo) {
		r.objects = objects
	}
}

// Policy sets the merge policy used for lock compatibility
func Policy(policy lockdomain.MergePolicy) Option {
	return func(r *Repo) {
		r.policy = policy
	}
}

// Author sets the author recorded on commits
func Author(author string) Option {
	return func(r *Repo) {
		r.author = author
	}
}

// Logger sets the zap logger
func Logger(logs *zap.Logger) Option {
	return func(r *Repo) {
		r.logs = logs
	}
}

// NewRepo creates a repository session handle.
//
// There are no process-wide singletons: every operation goes through an
// explicit handle, so several repositories can live in one process.
func NewRepo(opts ...Option) *Repo {
	r := &Repo{
		author: "anonymous",
		logs:   zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	r.locks = lockdomain.New(r.index,
		lockdomain.Policy(r.policyOrDefault()),
		lockdomain.Logger(r.logs))
	return r
}

// Repo is a session handle on one repository.
type Repo struct {
	index   store.Index
	objects cas.Fs
	locks   *lockdomain.Manager
	policy  lockdomain.MergePolicy
	author  string
	logs    *zap.Logger
}

func (r *Repo) policyOrDefault() lockdomain.MergePolicy {
	if r.policy == nil {
		return lockdomain.Exclusive()
	}
	return r.policy
}

// Locks returns the lock domain manager of this repository
func (r *Repo) Locks() *lockdomain.Manager {
	return r.locks
}

// Objects returns the content addressed store of this repository
func (r *Repo) Objects() cas.Fs {
	return r.objects
}

// Initialize seeds the repository with the default branch, a root commit
// and a fresh lock domain. Initializing twice is a no-op.
func (r *Repo) Initialize(ctx context.Context) error {
	return r.index.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetBranch(DefaultBranch); err == nil {
			return nil
		} else if err != model.ErrUnknownBranch {
			return err
		}

		root := model.NewCommit(nil, DefaultBranch, r.author, "repository initialized", nil)
		if err := tx.PutCommit(root); err != nil {
			return err
		}
		r.logs.Info("repository initialized",
			zap.String("branch", DefaultBranch),
			zap.String("root", root.ID))
		return tx.PutBranch(&model.Branch{
			Name:         DefaultBranch,
			Head:         root.ID,
			LockDomainID: lockdomain.NewDomainID(),
		})
	})
}

// GetBranch reads one branch
func (r *Repo) GetBranch(ctx context.Context, name string) (*model.Branch, error) {
	var branch *model.Branch
	err := r.index.View(ctx, func(tx store.Tx) error {
		var e error
		branch, e = tx.GetBranch(name)
		return e
	})
	return branch, err
}

// ListBranches lists all branches, including retired ones
func (r *Repo) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.index.View(ctx, func(tx store.Tx) error {
		var e error
		branches, e = tx.ListBranches()
		return e
	})
	return branches, err
}

// CreateBranch creates a branch off a parent. The new branch starts at the
// parent's head and shares the parent's lock domain: branching alone keeps
// both lines in one mutual-exclusion scope until an explicit detach.
func (r *Repo) CreateBranch(ctx context.Context, name, parent string) (*model.Branch, error) {
	if parent == "" {
		parent = DefaultBranch
	}
	var branch *model.Branch
	err := r.index.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetBranch(name); err == nil {
			return model.ErrBranchExists
		} else if err != model.ErrUnknownBranch {
			return err
		}
		p, err := tx.GetBranch(parent)
		if err != nil {
			return err
		}
		branch = &model.Branch{
			Name:         name,
			Parent:       p.Name,
			Head:         p.Head,
			LockDomainID: p.LockDomainID,
		}
		return tx.PutBranch(branch)
	})
	if err != nil {
		return nil, err
	}
	r.logs.Info("branch created",
		zap.String("branch", name),
		zap.String("parent", parent),
		zap.String("domain", branch.LockDomainID))
	return branch, nil
}

// RetireBranch marks a branch retired. Branches are never deleted.
func (r *Repo) RetireBranch(ctx context.Context, name string) error {
	return r.index.Update(ctx, func(tx store.Tx) error {
		branch, err := tx.GetBranch(name)
		if err != nil {
			return err
		}
		branch.Retired = true
		return tx.PutBranch(branch)
	})
}

// GetCommit reads one commit
func (r *Repo) GetCommit(ctx context.Context, id string) (*model.Commit, error) {
	var commit *model.Commit
	err := r.index.View(ctx, func(tx store.Tx) error {
		var e error
		commit, e = tx.GetCommit(id)
		return e
	})
	return commit, err
}

// Log returns the commit history of a branch, newest first, walking the
// first-parent chain.
func (r *Repo) Log(ctx context.Context, branchName string) ([]model.Commit, error) {
	var commits []model.Commit
	err := r.index.View(ctx, func(tx store.Tx) error {
		branch, err := tx.GetBranch(branchName)
		if err != nil {
			return err
		}
		c, err := tx.GetCommit(branch.Head)
		if err != nil {
			return err
		}
		commits = append(commits, *c)
		for len(c.Parents) > 0 {
			// the first parent is always the branch trunk
			c, err = tx.GetCommit(c.Parents[0])
			if err != nil {
				return err
			}
			commits = append(commits, *c)
		}
		return nil
	})
	return commits, err
}
