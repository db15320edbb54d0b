package saves

import (
	"context"

	"github.com/virtu333/rogue-emblem-sub003/logging"
)

const (
	// EventSaveWritten is emitted after a snapshot is persisted.
	EventSaveWritten logging.EventType = "save.written"
	// EventSaveLoaded is emitted after a snapshot is reconstructed.
	EventSaveLoaded logging.EventType = "save.loaded"
	// EventSaveMigrated is emitted when a load had to rewrite legacy data.
	EventSaveMigrated logging.EventType = "save.migrated"
	// EventSaveRejected is emitted when a stored document cannot be used.
	EventSaveRejected logging.EventType = "save.rejected"
)

// SaveWrittenPayload describes a persisted snapshot.
type SaveWrittenPayload struct {
	Slot     string `json:"slot"`
	Bytes    int    `json:"bytes"`
	Checksum string `json:"checksum"`
}

// SaveLoadedPayload describes a reconstructed run.
type SaveLoadedPayload struct {
	Slot        string `json:"slot"`
	FromVersion int    `json:"fromVersion"`
	Dropped     int    `json:"droppedUnits,omitempty"`
}

// SaveMigratedPayload summarises which migration steps changed the document.
type SaveMigratedPayload struct {
	Steps      map[string]int `json:"steps"`
	MergePatch string         `json:"mergePatch,omitempty"`
}

// SaveRejectedPayload explains why a stored document was discarded.
type SaveRejectedPayload struct {
	Slot   string `json:"slot"`
	Reason string `json:"reason"`
}

func saveRef(slot string) logging.EntityRef {
	return logging.EntityRef{ID: slot, Kind: logging.EntityKindSave}
}

// SaveWritten publishes a persisted snapshot.
func SaveWritten(ctx context.Context, pub logging.Publisher, runID string, payload SaveWrittenPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSaveWritten,
		RunID:    runID,
		Actor:    saveRef(payload.Slot),
		Severity: logging.SeverityDebug,
		Category: logging.CategorySave,
		Payload:  payload,
	})
}

// SaveLoaded publishes a reconstructed run.
func SaveLoaded(ctx context.Context, pub logging.Publisher, runID string, payload SaveLoadedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSaveLoaded,
		RunID:    runID,
		Actor:    saveRef(payload.Slot),
		Severity: logging.SeverityInfo,
		Category: logging.CategorySave,
		Payload:  payload,
	})
}

// SaveMigrated publishes a migration summary.
func SaveMigrated(ctx context.Context, pub logging.Publisher, runID string, payload SaveMigratedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSaveMigrated,
		RunID:    runID,
		Actor:    logging.RunRef(runID),
		Severity: logging.SeverityInfo,
		Category: logging.CategorySave,
		Payload:  payload,
	})
}

// SaveRejected publishes a discarded document.
func SaveRejected(ctx context.Context, pub logging.Publisher, payload SaveRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSaveRejected,
		Actor:    saveRef(payload.Slot),
		Severity: logging.SeverityWarn,
		Category: logging.CategorySave,
		Payload:  payload,
	})
}
