package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pacquet/internal/adapters/lockfile"
	"go.trai.ch/pacquet/internal/adapters/logger"
	"go.trai.ch/pacquet/internal/adapters/manifest"
	"go.trai.ch/pacquet/internal/adapters/npmrc"
	"go.trai.ch/pacquet/internal/adapters/shell"
	"go.trai.ch/pacquet/internal/core/ports"
)

// Components bundles the long-lived application objects produced by the
// Graft graph for main.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NodeID is the unique identifier for the application components node.
const NodeID graft.ID = "app.components"

func init() {
	graft.Register(graft.Node[*Components]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			npmrc.NodeID,
			manifest.NodeID,
			lockfile.NodeID,
			shell.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*npmrc.Loader](ctx)
			if err != nil {
				return nil, err
			}
			manifests, err := graft.Dep[ports.ManifestStore](ctx)
			if err != nil {
				return nil, err
			}
			lockfiles, err := graft.Dep[ports.LockfileLoader](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.ScriptExecutor](ctx)
			if err != nil {
				return nil, err
			}

			a := New(log, settings, manifests, lockfiles, executor)
			return &Components{App: a, Logger: log}, nil
		},
	})
}
