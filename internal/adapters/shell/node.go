package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pacquet/internal/adapters/logger"
	"go.trai.ch/pacquet/internal/core/ports"
)

// NodeID is the unique identifier for the script executor Graft node.
const NodeID graft.ID = "adapter.script_executor"

func init() {
	graft.Register(graft.Node[ports.ScriptExecutor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ScriptExecutor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log), nil
		},
	})
}
