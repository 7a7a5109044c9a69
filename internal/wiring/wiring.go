// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/pacquet/internal/adapters/lockfile"
	_ "go.trai.ch/pacquet/internal/adapters/logger"
	_ "go.trai.ch/pacquet/internal/adapters/manifest"
	_ "go.trai.ch/pacquet/internal/adapters/npmrc"
	_ "go.trai.ch/pacquet/internal/adapters/shell"
	// Register the application node.
	_ "go.trai.ch/pacquet/internal/app"
)
