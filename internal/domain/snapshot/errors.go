package snapshot

import "github.com/storepulse/backend/internal/domain/shared"

// Snapshot errors
var (
	ErrInvalidWindow     = shared.NewDomainError("INVALID_WINDOW", "Analysis window end must be after its start")
	ErrSnapshotNotReady  = shared.NewDomainError("SNAPSHOT_NOT_READY", "Snapshot is still calculating")
	ErrRebuildInProgress = shared.NewDomainError("REBUILD_IN_PROGRESS", "A snapshot rebuild is already running for this organization")
	ErrUnknownKind       = shared.NewDomainError("INVALID_INPUT", "Unknown snapshot kind")
	ErrStaleGeneration   = shared.NewDomainError("STALE_GENERATION", "A newer snapshot generation has already been published")
)
