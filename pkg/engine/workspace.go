package engine

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/keystone-scm/keystone/pkg/cas"
	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v2"
)

const (
	// MetaDir is the workspace control directory
	MetaDir = ".keystone"

	specFile    = MetaDir + "/workspace.yaml"
	pendingFile = MetaDir + "/pending.yaml"
)

// Workspace is a checkout of one branch at one revision.
//
// A local workspace materializes the whole tree at init. A virtual
// workspace materializes nothing and fetches content on first read,
// caching it for later reads. Both stage changes the same way and go
// through the same commit pipeline: a staged path is locked immediately,
// its content is read from the workspace only when the commit happens.
type Workspace struct {
	mu      sync.Mutex
	repo    *Repo
	fs      afero.Fs
	spec    model.WorkspaceSpec
	pending model.ChangeSet
	logs    *zap.Logger
}

// InitWorkspace creates a workspace for a branch on fs, at the branch head.
func (r *Repo) InitWorkspace(ctx context.Context, fs afero.Fs, branchName string, mode model.WorkspaceMode) (*Workspace, error) {
	branch, err := r.GetBranch(ctx, branchName)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		repo: r,
		fs:   fs,
		spec: model.WorkspaceSpec{
			ID:       uuid.New().String(),
			Branch:   branch.Name,
			Revision: branch.Head,
			Mode:     mode,
		},
		logs: r.logs.With(zap.String("branch", branch.Name)),
	}
	if err := fs.MkdirAll(MetaDir, 0755); err != nil {
		return nil, err
	}
	if mode == model.WorkspaceLocal {
		if err := ws.materializeTree(ctx); err != nil {
			return nil, err
		}
	}
	if err := ws.save(); err != nil {
		return nil, err
	}
	ws.logs.Info("workspace initialized",
		zap.String("workspace", ws.spec.ID),
		zap.String("revision", ws.spec.Revision),
		zap.String("mode", string(mode)))
	return ws, nil
}

// OpenWorkspace loads the workspace persisted on fs.
func (r *Repo) OpenWorkspace(ctx context.Context, fs afero.Fs) (*Workspace, error) {
	ws := &Workspace{
		repo: r,
		fs:   fs,
		logs: r.logs,
	}
	data, err := afero.ReadFile(fs, specFile)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &ws.spec); err != nil {
		return nil, err
	}
	data, err = afero.ReadFile(fs, pendingFile)
	if err == nil {
		if err := yaml.Unmarshal(data, &ws.pending); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	ws.logs = r.logs.With(zap.String("branch", ws.spec.Branch))
	return ws, nil
}

// ID returns the workspace id
func (ws *Workspace) ID() string {
	return ws.spec.ID
}

// Branch returns the branch this workspace tracks
func (ws *Workspace) Branch() string {
	return ws.spec.Branch
}

// Revision returns the revision the workspace is synced to
func (ws *Workspace) Revision() string {
	return ws.spec.Revision
}

// Mode returns the materialization mode
func (ws *Workspace) Mode() model.WorkspaceMode {
	return ws.spec.Mode
}

// LocalChanges lists the pending changes, ordered by path.
func (ws *Workspace) LocalChanges() model.ChangeSet {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make(model.ChangeSet, len(ws.pending))
	copy(out, ws.pending)
	return out
}

func (ws *Workspace) save() error {
	data, err := yaml.Marshal(ws.spec)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(ws.fs, specFile, data, 0644); err != nil {
		return err
	}
	data, err = yaml.Marshal(ws.pending)
	if err != nil {
		return err
	}
	return afero.WriteFile(ws.fs, pendingFile, data, 0644)
}

// acquire takes the path lock in the branch's current domain. The domain
// is resolved per call: attach and detach may have moved the branch since
// the workspace was initialized.
func (ws *Workspace) acquire(ctx context.Context, path string, metadata []byte) error {
	branch, err := ws.repo.GetBranch(ctx, ws.spec.Branch)
	if err != nil {
		return err
	}
	return ws.repo.locks.Acquire(ctx, branch.LockDomainID, path, ws.spec.ID, branch.Name, metadata)
}

func (ws *Workspace) release(ctx context.Context, path string) error {
	branch, err := ws.repo.GetBranch(ctx, ws.spec.Branch)
	if err != nil {
		return err
	}
	return ws.repo.locks.Release(ctx, branch.LockDomainID, path, ws.spec.ID)
}

// abortStage backs out the lock taken for a stage that failed after the
// acquire, so a rejected add, edit or delete never leaves the path locked
// with nothing pending on it. A lock backing an earlier pending change on
// the same path is kept.
func (ws *Workspace) abortStage(ctx context.Context, path string, stageErr error) error {
	if _, held := ws.pending.Get(path); held {
		return stageErr
	}
	return multierr.Append(stageErr, ws.release(ctx, path))
}

// Add stages a new path. The file must already exist in the workspace.
// The path lock is taken before anything is staged, so two workspaces
// cannot race an add on the same path.
func (ws *Workspace) Add(ctx context.Context, path string, metadata []byte) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.acquire(ctx, path, metadata); err != nil {
		return err
	}
	if _, err := ws.fs.Stat(path); err != nil {
		return ws.abortStage(ctx, path, err)
	}
	ws.pending = ws.pending.Add(model.Change{Path: path, Type: model.ChangeAdd})
	return ws.save()
}

// Edit stages an edit of an existing path. On a virtual workspace the
// current content is materialized first so there is something to edit.
func (ws *Workspace) Edit(ctx context.Context, path string, metadata []byte) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.acquire(ctx, path, metadata); err != nil {
		return err
	}
	if _, err := ws.fs.Stat(path); os.IsNotExist(err) {
		if err := ws.materializePath(ctx, path); err != nil {
			return ws.abortStage(ctx, path, err)
		}
	} else if err != nil {
		return ws.abortStage(ctx, path, err)
	}
	ws.pending = ws.pending.Add(model.Change{Path: path, Type: model.ChangeEdit})
	return ws.save()
}

// Delete stages the removal of a path and removes the local copy.
func (ws *Workspace) Delete(ctx context.Context, path string, metadata []byte) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.acquire(ctx, path, metadata); err != nil {
		return err
	}
	if _, err := hashAt(ctx, ws.repo.index, ws.spec.Revision, path); err != nil {
		return ws.abortStage(ctx, path, err)
	}
	if err := ws.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return ws.abortStage(ctx, path, err)
	}
	ws.pending = ws.pending.Add(model.Change{Path: path, Type: model.ChangeDelete})
	return ws.save()
}

// Revert unstages a path, releases its lock and restores the committed
// content on a local workspace.
func (ws *Workspace) Revert(ctx context.Context, path string) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	pending, ok := ws.pending.Remove(path)
	if !ok {
		return model.ErrUnknownPath
	}
	ws.pending = pending
	if ws.spec.Mode == model.WorkspaceLocal {
		if _, err := hashAt(ctx, ws.repo.index, ws.spec.Revision, path); err == nil {
			if err := ws.materializePath(ctx, path); err != nil {
				return err
			}
		} else if err == model.ErrUnknownPath {
			if err := ws.fs.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
		} else {
			return err
		}
	} else {
		// drop the cached copy, the next read refetches clean content
		if err := ws.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := ws.release(ctx, path); err != nil {
		return err
	}
	return ws.save()
}

// ResolveRead opens path for reading. Pending deletes hide the path, the
// local content wins over committed content, and on a virtual workspace a
// miss is fetched from the blob store and cached.
func (ws *Workspace) ResolveRead(ctx context.Context, path string) (io.ReadCloser, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if change, ok := ws.pending.Get(path); ok {
		if change.Type == model.ChangeDelete {
			return nil, model.ErrUnknownPath
		}
		return ws.fs.Open(path)
	}
	if _, err := ws.fs.Stat(path); err == nil {
		return ws.fs.Open(path)
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if err := ws.materializePath(ctx, path); err != nil {
		return nil, err
	}
	return ws.fs.Open(path)
}

// Diff returns the committed content of path and its local content.
func (ws *Workspace) Diff(ctx context.Context, path string) (base io.ReadCloser, local io.ReadCloser, err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	hash, err := hashAt(ctx, ws.repo.index, ws.spec.Revision, path)
	switch err {
	case nil:
		key, e := cas.KeyFromString(hash)
		if e != nil {
			return nil, nil, e
		}
		base, err = ws.repo.objects.Get(ctx, key)
		if err != nil {
			return nil, nil, err
		}
	case model.ErrUnknownPath:
		base = ioutil.NopCloser(bytes.NewReader(nil))
	default:
		return nil, nil, err
	}

	if change, ok := ws.pending.Get(path); ok && change.Type == model.ChangeDelete {
		local = ioutil.NopCloser(bytes.NewReader(nil))
		return base, local, nil
	}
	local, err = ws.fs.Open(path)
	if err != nil {
		base.Close()
		return nil, nil, err
	}
	return base, local, nil
}

// Sync moves the workspace to the current branch head.
func (ws *Workspace) Sync(ctx context.Context) (string, error) {
	branch, err := ws.repo.GetBranch(ctx, ws.spec.Branch)
	if err != nil {
		return "", err
	}
	return branch.Head, ws.SyncTo(ctx, branch.Head)
}

// SyncTo moves the workspace to an arbitrary revision of its branch,
// forward or backward.
//
// When a pending change touches a path that also changed between the two
// revisions, the sync fails with a model.SyncConflictError and the
// workspace is left exactly as it was.
func (ws *Workspace) SyncTo(ctx context.Context, revision string) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if revision == ws.spec.Revision {
		return nil
	}

	var delta []string
	err := ws.repo.index.View(ctx, func(tx store.Tx) error {
		var e error
		delta, e = deltaPaths(tx, ws.spec.Revision, revision)
		return e
	})
	if err != nil {
		return err
	}
	if colliding := ws.pending.Intersect(delta); len(colliding) > 0 {
		return &model.SyncConflictError{Paths: colliding}
	}

	for _, path := range delta {
		if ws.spec.Mode != model.WorkspaceLocal {
			// virtual: invalidate the cached copy, the next read refetches
			if err := ws.fs.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			continue
		}
		hash, err := hashAt(ctx, ws.repo.index, revision, path)
		switch err {
		case nil:
			if err := ws.fetch(ctx, path, hash); err != nil {
				return err
			}
		case model.ErrUnknownPath:
			if err := ws.fs.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
		default:
			return err
		}
	}

	ws.logs.Info("workspace synced",
		zap.String("workspace", ws.spec.ID),
		zap.String("from", ws.spec.Revision),
		zap.String("to", revision),
		zap.Int("paths", len(delta)))
	ws.spec.Revision = revision
	return ws.save()
}

// Teardown abandons the workspace: every lock it still holds is released,
// the pending changes are dropped and the control directory is removed.
// The checked out content is left alone.
func (ws *Workspace) Teardown(ctx context.Context) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	branch, err := ws.repo.GetBranch(ctx, ws.spec.Branch)
	if err != nil {
		return err
	}
	var errs error
	for _, change := range ws.pending {
		errs = multierr.Append(errs,
			ws.repo.locks.Release(ctx, branch.LockDomainID, change.Path, ws.spec.ID))
	}
	ws.pending = nil
	errs = multierr.Append(errs, ws.fs.RemoveAll(MetaDir))
	ws.logs.Info("workspace torn down", zap.String("workspace", ws.spec.ID))
	return errs
}

// materializeTree fetches the full tree at the workspace revision.
func (ws *Workspace) materializeTree(ctx context.Context) error {
	var tree map[string]string
	err := ws.repo.index.View(ctx, func(tx store.Tx) error {
		var e error
		tree, e = treeAt(tx, ws.spec.Revision)
		return e
	})
	if err != nil {
		return err
	}
	for path, hash := range tree {
		if err := ws.fetch(ctx, path, hash); err != nil {
			return err
		}
	}
	return nil
}

// materializePath fetches one path at the workspace revision into fs.
func (ws *Workspace) materializePath(ctx context.Context, path string) error {
	hash, err := hashAt(ctx, ws.repo.index, ws.spec.Revision, path)
	if err != nil {
		return err
	}
	return ws.fetch(ctx, path, hash)
}

func (ws *Workspace) fetch(ctx context.Context, path, hash string) error {
	key, err := cas.KeyFromString(hash)
	if err != nil {
		return err
	}
	src, err := ws.repo.objects.Get(ctx, key)
	if err != nil {
		return err
	}
	defer src.Close()
	if err := ws.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	dst, err := ws.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// hashAt resolves the hash of path at revision through a read transaction.
func hashAt(ctx context.Context, index store.Index, revision, path string) (string, error) {
	var hash string
	err := index.View(ctx, func(tx store.Tx) error {
		var e error
		hash, e = pathHashAt(tx, revision, path)
		return e
	})
	return hash, err
}
