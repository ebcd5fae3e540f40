package engine

import "savevault/internal/models"

// SnapshotProvider is the narrow interface the simulation layer exposes
// to the persistence core. The engine never touches live game state
// directly; it asks the provider for a snapshot on save and hands a
// fully validated snapshot back on load.
type SnapshotProvider interface {
	// CreateSnapshot captures the current game state.
	CreateSnapshot(description string) (*models.Snapshot, error)

	// RestoreSnapshot applies a snapshot to the live state. It is only
	// called after the snapshot passed every validation tier, and it
	// must leave the previous state untouched when it fails.
	RestoreSnapshot(snap *models.Snapshot) error

	// ValidateSnapshotSemantics runs the simulation's own semantic
	// rules, beyond the structural checks the core performs.
	ValidateSnapshotSemantics(snap *models.Snapshot) bool
}
