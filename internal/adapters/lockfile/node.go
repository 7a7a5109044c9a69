package lockfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pacquet/internal/core/ports"
)

// NodeID is the unique identifier for the lockfile loader Graft node.
const NodeID graft.ID = "adapter.lockfile_loader"

func init() {
	graft.Register(graft.Node[ports.LockfileLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockfileLoader, error) {
			return NewLoader(), nil
		},
	})
}
