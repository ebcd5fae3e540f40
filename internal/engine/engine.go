// Package engine orchestrates the persistence pipeline: snapshot
// provider → serializer → slot store, with the validator consulted on
// the raw payload and again on the decoded snapshot. Failures below the
// public boundary are folded into result objects; only caller contract
// violations (blank slot id, bad auto-save interval) return errors.
package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"savevault/internal/history"
	"savevault/internal/logging"
	"savevault/internal/models"
	"savevault/internal/saveerrors"
	"savevault/internal/serializer"
	"savevault/internal/storage"
	"savevault/internal/validation"
)

// Engine composes the persistence components. Each instance owns its
// auto-save scheduler and watcher; nothing is package-level, so engines
// in tests never interfere.
type Engine struct {
	provider   SnapshotProvider
	store      *storage.SlotStore
	serializer *serializer.Serializer
	validator  *validation.Validator
	history    *history.Store
	log        *logrus.Entry

	mu           sync.Mutex
	slotLocks    map[string]*sync.Mutex
	recentWrites map[string]time.Time

	autoMu    sync.Mutex
	scheduler gocron.Scheduler
	autoJob   gocron.Job
	autoCfg   AutoSaveConfig
	closed    bool

	watcher *watcher
}

// New creates an engine. The history store may be nil to disable the
// operation log.
func New(provider SnapshotProvider, store *storage.SlotStore, ser *serializer.Serializer, val *validation.Validator, hist *history.Store) (*Engine, error) {
	if provider == nil {
		return nil, saveerrors.New(saveerrors.CodeInvalidArgument, "snapshot provider is required")
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-save scheduler: %w", err)
	}
	return &Engine{
		provider:     provider,
		store:        store,
		serializer:   ser,
		validator:    val,
		history:      hist,
		log:          logging.Component("engine"),
		slotLocks:    make(map[string]*sync.Mutex),
		recentWrites: make(map[string]time.Time),
		scheduler:    scheduler,
	}, nil
}

// lockSlot takes the advisory per-slot lock so a concurrent save and
// load against the same slot serialize instead of interleaving the two
// file accesses. Returns the unlock func.
func (e *Engine) lockSlot(slot string) func() {
	e.mu.Lock()
	l, ok := e.slotLocks[slot]
	if !ok {
		l = &sync.Mutex{}
		e.slotLocks[slot] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (e *Engine) markWritten(slot string) {
	e.mu.Lock()
	e.recentWrites[slot] = time.Now()
	e.mu.Unlock()
}

func (e *Engine) recentlyWritten(slot string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.recentWrites[slot]
	return ok && time.Since(t) < 2*time.Second
}

func (e *Engine) record(kind, slotID, opID string, success bool, duration time.Duration, size int64, opErr error) {
	if e.history == nil {
		return
	}
	errText := ""
	if opErr != nil {
		errText = opErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.history.Record(ctx, history.Entry{
		OperationID: opID,
		Kind:        kind,
		SlotID:      slotID,
		Success:     success,
		DurationMS:  duration.Milliseconds(),
		PayloadSize: size,
		Error:       errText,
	})
	if err != nil {
		e.log.WithError(err).Warn("failed to record operation history")
	}
}

// Save captures the current game state and writes it to a slot.
// It returns an error only for invalid arguments; every pipeline
// failure lands in the result.
func (e *Engine) Save(ctx context.Context, slotID, description string) (*models.SaveResult, error) {
	clean, err := storage.SanitizeSlotID(slotID)
	if err != nil {
		return nil, err
	}
	opID := uuid.New().String()
	start := time.Now()
	result := &models.SaveResult{SlotID: clean, OperationID: opID}
	log := logging.WithSlot(e.log, clean, opID)

	unlock := e.lockSlot(clean)
	defer unlock()

	fail := func(msg string, cause error) (*models.SaveResult, error) {
		result.Duration = time.Since(start)
		result.Message = msg
		result.Err = cause
		log.WithError(cause).Error(msg)
		e.record(history.OpSave, clean, opID, false, result.Duration, result.PayloadSize, cause)
		return result, nil
	}

	snap, err := e.provider.CreateSnapshot(description)
	if err != nil {
		return fail("failed to capture snapshot", err)
	}
	if snap == nil {
		return fail("snapshot provider returned nothing",
			saveerrors.New(saveerrors.CodeSerializationFailed, "nil snapshot from provider"))
	}
	snap.SaveVersion = models.CurrentSaveVersion
	snap.Description = description
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	payload, err := e.serializer.SerializeWithChecksum(snap)
	if err != nil {
		return fail("failed to serialize snapshot", err)
	}
	result.PayloadSize = int64(len(payload))

	meta := models.MetadataFromSnapshot(clean, snap)
	if err := e.store.Write(ctx, clean, payload, meta); err != nil {
		return fail("failed to write slot", err)
	}
	e.markWritten(clean)

	result.Success = true
	result.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"size":        result.PayloadSize,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("save completed")
	e.record(history.OpSave, clean, opID, true, result.Duration, result.PayloadSize, nil)
	return result, nil
}

// Load reads, validates and restores a slot. The previously active game
// state is untouched unless every validation tier passes; restore is
// the final step.
func (e *Engine) Load(ctx context.Context, slotID string) (*models.LoadResult, error) {
	clean, err := storage.SanitizeSlotID(slotID)
	if err != nil {
		return nil, err
	}
	opID := uuid.New().String()
	start := time.Now()
	result := &models.LoadResult{SlotID: clean, OperationID: opID}
	log := logging.WithSlot(e.log, clean, opID)

	unlock := e.lockSlot(clean)
	defer unlock()

	fail := func(msg string, cause error) (*models.LoadResult, error) {
		result.Duration = time.Since(start)
		result.Message = msg
		result.Err = cause
		log.WithError(cause).Error(msg)
		e.record(history.OpLoad, clean, opID, false, result.Duration, 0, cause)
		return result, nil
	}

	payload, err := e.store.Read(ctx, clean)
	if err != nil {
		return fail("failed to read slot", err)
	}

	validationResult := e.validator.Validate(payload)
	if !validationResult.IsValid {
		return fail("save data failed validation", classifyValidation(validationResult))
	}

	snap, err := e.serializer.Deserialize(payload)
	if err != nil {
		return fail("failed to deserialize payload", err)
	}
	result.OriginalVersion = snap.SaveVersion.String()

	if !e.provider.ValidateSnapshotSemantics(snap) {
		return fail("snapshot rejected by game semantics",
			saveerrors.New(saveerrors.CodeValidationFailed, "snapshot semantics check failed"))
	}

	if err := e.provider.RestoreSnapshot(snap); err != nil {
		return fail("failed to apply snapshot", err)
	}

	for _, w := range validationResult.Warnings {
		log.WithField("warning", w).Warn("load proceeded with warning")
	}

	result.Success = true
	result.Snapshot = snap
	result.Duration = time.Since(start)
	log.WithField("duration_ms", result.Duration.Milliseconds()).Info("load completed")
	e.record(history.OpLoad, clean, opID, true, result.Duration, int64(len(payload)), nil)
	return result, nil
}

// classifyValidation maps a failed validation result onto the most
// specific error code it justifies.
func classifyValidation(vr *models.ValidationResult) error {
	switch {
	case !vr.Exists:
		return saveerrors.New(saveerrors.CodeNotFound, "no payload to validate")
	case !vr.ChecksumValid:
		return saveerrors.New(saveerrors.CodeCorrupted, "checksum validation failed")
	case !vr.VersionCompatible:
		return saveerrors.New(saveerrors.CodeVersionIncompatible, "save version outside supported range")
	default:
		return saveerrors.New(saveerrors.CodeValidationFailed, "structural validation failed: %v", vr.Errors)
	}
}

// Delete removes a slot. It returns false, not an error, when the slot
// did not exist.
func (e *Engine) Delete(ctx context.Context, slotID string) (bool, error) {
	clean, err := storage.SanitizeSlotID(slotID)
	if err != nil {
		return false, err
	}
	unlock := e.lockSlot(clean)
	defer unlock()

	opID := uuid.New().String()
	start := time.Now()
	existed, err := e.store.Delete(ctx, clean)
	e.record(history.OpDelete, clean, opID, err == nil, time.Since(start), 0, err)
	if err != nil {
		logging.WithSlot(e.log, clean, opID).WithError(err).Error("delete failed")
		return false, err
	}
	return existed, nil
}

// GetSaveSlots lists metadata for every slot. Unreadable entries are
// skipped by the store, so the listing itself always succeeds once the
// root is readable.
func (e *Engine) GetSaveSlots() ([]*models.SaveMetadata, error) {
	return e.store.ListAllMetadata()
}

// GetSaveMetadata returns one slot's sidecar record, nil when absent.
func (e *Engine) GetSaveMetadata(slotID string) (*models.SaveMetadata, error) {
	return e.store.GetMetadata(slotID)
}

// Validate runs payload validation against a slot without loading it.
func (e *Engine) Validate(ctx context.Context, slotID string) (*models.ValidationResult, error) {
	clean, err := storage.SanitizeSlotID(slotID)
	if err != nil {
		return nil, err
	}
	payload, err := e.store.Read(ctx, clean)
	if err != nil {
		if saveerrors.IsNotFound(err) {
			return e.validator.Validate(nil), nil
		}
		return nil, err
	}
	return e.validator.Validate(payload), nil
}

// ExportSave copies a slot's raw payload file to an external path.
func (e *Engine) ExportSave(ctx context.Context, slotID, destinationPath string) (bool, error) {
	clean, err := storage.SanitizeSlotID(slotID)
	if err != nil {
		return false, err
	}
	opID := uuid.New().String()
	start := time.Now()
	if err := e.store.CopyTo(ctx, clean, destinationPath); err != nil {
		logging.WithSlot(e.log, clean, opID).WithError(err).Error("export failed")
		e.record(history.OpExport, clean, opID, false, time.Since(start), 0, err)
		return false, nil
	}
	logging.WithSlot(e.log, clean, opID).WithField("destination", destinationPath).Info("save exported")
	e.record(history.OpExport, clean, opID, true, time.Since(start), 0, nil)
	return true, nil
}

// ImportSave validates an external payload file and, only when it
// passes, writes it into the target slot with a rebuilt sidecar. An
// invalid source never touches the slot store.
func (e *Engine) ImportSave(ctx context.Context, sourcePath, targetSlotID string) (*models.ImportResult, error) {
	clean, err := storage.SanitizeSlotID(targetSlotID)
	if err != nil {
		return nil, err
	}
	opID := uuid.New().String()
	start := time.Now()
	result := &models.ImportResult{SlotID: clean, OperationID: opID}
	log := logging.WithSlot(e.log, clean, opID)

	fail := func(msg string, cause error) (*models.ImportResult, error) {
		result.Message = msg
		result.Err = cause
		log.WithError(cause).Error(msg)
		e.record(history.OpImport, clean, opID, false, time.Since(start), 0, cause)
		return result, nil
	}

	payload, err := os.ReadFile(sourcePath)
	if err != nil {
		return fail("failed to read import source", fmt.Errorf("cannot read %s: %w", sourcePath, err))
	}

	result.Validation = e.validator.Validate(payload)
	if !result.Validation.IsValid {
		return fail("import source failed validation", classifyValidation(result.Validation))
	}

	snap, err := e.serializer.Deserialize(payload)
	if err != nil {
		return fail("failed to decode import source", err)
	}

	unlock := e.lockSlot(clean)
	defer unlock()

	meta := models.MetadataFromSnapshot(clean, snap)
	if err := e.store.Write(ctx, clean, payload, meta); err != nil {
		return fail("failed to write imported save", err)
	}
	e.markWritten(clean)

	result.Success = true
	log.WithField("source", sourcePath).Info("save imported")
	e.record(history.OpImport, clean, opID, true, time.Since(start), int64(len(payload)), nil)
	return result, nil
}

// History returns the operation history store, nil when disabled.
func (e *Engine) History() *history.Store {
	return e.history
}

// Close stops the auto-save scheduler, the directory watcher and the
// history store. It is safe to call more than once; the engine must
// not be used afterwards.
func (e *Engine) Close() error {
	e.autoMu.Lock()
	if e.closed {
		e.autoMu.Unlock()
		return nil
	}
	e.closed = true
	err := e.scheduler.Shutdown()
	e.autoJob = nil
	e.autoCfg = AutoSaveConfig{}
	e.autoMu.Unlock()

	e.StopWatcher()

	if e.history != nil {
		if herr := e.history.Close(); herr != nil && err == nil {
			err = herr
		}
	}
	return err
}
