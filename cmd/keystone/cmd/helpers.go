package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/keystone-scm/keystone/pkg/cas"
	"github.com/keystone-scm/keystone/pkg/dlogger"
	"github.com/keystone-scm/keystone/pkg/engine"
	"github.com/keystone-scm/keystone/pkg/storage"
	"github.com/keystone-scm/keystone/pkg/storage/localfs"
	"github.com/keystone-scm/keystone/pkg/store/bdgr"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// openRepo builds a repository session from the CLI params. The returned
// close function releases the metadata index.
func openRepo() (*engine.Repo, func(), error) {
	logs, err := dlogger.GetLogger(params.logLevel)
	if err != nil {
		return nil, nil, err
	}

	indexDir := filepath.Join(params.repoDir, "index")
	objectsDir := filepath.Join(params.repoDir, "objects")
	for _, dir := range []string{indexDir, objectsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, err
		}
	}

	idx := bdgr.New(indexDir, bdgr.Logger(logs))
	if err := idx.Initialize(); err != nil {
		return nil, nil, err
	}

	var objects storage.Store = localfs.New(afero.NewBasePathFs(afero.NewOsFs(), objectsDir))
	if params.logLevel == dlogger.LogLevelDebug {
		objects = storage.Instrument(logs, objects)
	}

	repo := engine.NewRepo(
		engine.Index(idx),
		engine.Objects(cas.New(cas.Backend(objects), cas.Logger(logs))),
		engine.Author(params.author),
		engine.Logger(logs),
	)
	return repo, func() {
		if err := idx.Close(); err != nil {
			logs.Error("closing index", zap.Error(err))
		}
	}, nil
}

func workspaceFs() afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), params.workspaceDir)
}

func openWorkspace(ctx context.Context, repo *engine.Repo) (*engine.Workspace, error) {
	return repo.OpenWorkspace(ctx, workspaceFs())
}

func lockMetadata() []byte {
	if params.lockMeta == "" {
		return nil
	}
	return []byte(params.lockMeta)
}
