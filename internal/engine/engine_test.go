package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"savevault/internal/history"
	"savevault/internal/logging"
	"savevault/internal/models"
	"savevault/internal/saveerrors"
	"savevault/internal/serializer"
	"savevault/internal/storage"
	"savevault/internal/validation"
)

// fakeProvider is a controllable SnapshotProvider for engine tests.
type fakeProvider struct {
	snapshot     *models.Snapshot
	createErr    error
	restoreErr   error
	semanticsOK  bool
	restored     *models.Snapshot
	restoreCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{semanticsOK: true}
}

func (f *fakeProvider) CreateSnapshot(description string) (*models.Snapshot, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.snapshot != nil {
		snap := *f.snapshot
		snap.Description = description
		return &snap, nil
	}
	return &models.Snapshot{
		CreatedAt:   time.Now().UTC(),
		Description: description,
		Player: &models.PlayerState{
			Name:            "Misty",
			Location:        "cerulean",
			PlaytimeSeconds: 600,
		},
		Party: []models.Creature{{
			SpeciesID: 120,
			Level:     20,
			CurrentHP: 40,
			MaxHP:     44,
			Moves:     []models.Move{{ID: "water-gun", CurrentPP: 25, MaxPP: 25}},
		}},
		Inventory: &models.Inventory{},
		World:     &models.WorldState{},
		Progress:  &models.ProgressState{},
		Pokedex:   &models.Pokedex{Seen: map[int]bool{120: true}, Caught: map[int]bool{120: true}},
	}, nil
}

func (f *fakeProvider) RestoreSnapshot(snap *models.Snapshot) error {
	f.restoreCalls++
	if f.restoreErr != nil {
		return f.restoreErr
	}
	f.restored = snap
	return nil
}

func (f *fakeProvider) ValidateSnapshotSemantics(snap *models.Snapshot) bool {
	return f.semanticsOK
}

func newTestEngine(t *testing.T, provider SnapshotProvider) *Engine {
	t.Helper()
	store, err := storage.NewSlotStore(t.TempDir(), logging.Component("storage-test"))
	if err != nil {
		t.Fatalf("NewSlotStore failed: %v", err)
	}
	ser := serializer.New()
	eng, err := New(provider, store, ser, validation.New(ser, logging.Component("validation-test")), nil)
	if err != nil {
		t.Fatalf("New engine failed: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

// TestSaveAndLoadHappyPath covers the basic save-then-load scenario
func TestSaveAndLoadHappyPath(t *testing.T) {
	provider := newFakeProvider()
	eng := newTestEngine(t, provider)
	ctx := context.Background()

	saveResult, err := eng.Save(ctx, "slot1", "before gym")
	if err != nil {
		t.Fatalf("Save errored: %v", err)
	}
	if !saveResult.Success {
		t.Fatalf("save should succeed: %s (%v)", saveResult.Message, saveResult.Err)
	}
	if saveResult.PayloadSize <= 0 {
		t.Error("save result should report the payload size")
	}

	loadResult, err := eng.Load(ctx, "slot1")
	if err != nil {
		t.Fatalf("Load errored: %v", err)
	}
	if !loadResult.Success {
		t.Fatalf("load should succeed: %s (%v)", loadResult.Message, loadResult.Err)
	}
	if loadResult.Snapshot == nil || loadResult.Snapshot.Player.Name != "Misty" {
		t.Error("restored player name should match the one saved")
	}
	if loadResult.Snapshot.Description != "before gym" {
		t.Errorf("description should survive, got %q", loadResult.Snapshot.Description)
	}
	if loadResult.WasMigrated {
		t.Error("no migration is implemented; WasMigrated must be false")
	}
	if loadResult.OriginalVersion != models.CurrentSaveVersion.String() {
		t.Errorf("expected original version %s, got %s", models.CurrentSaveVersion, loadResult.OriginalVersion)
	}
	if provider.restored == nil {
		t.Error("provider should have received the snapshot")
	}
}

// TestLoadMissingSlot verifies a missing slot is a NotFound result, not a panic/error
func TestLoadMissingSlot(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())

	result, err := eng.Load(context.Background(), "doesNotExist")
	if err != nil {
		t.Fatalf("Load must not raise past the boundary: %v", err)
	}
	if result.Success {
		t.Error("loading a missing slot must fail")
	}
	if !saveerrors.IsNotFound(result.Err) {
		t.Errorf("expected NotFound in result, got %v", result.Err)
	}
}

// TestLoadCorruptedSave verifies a mutated payload is rejected as corrupted
func TestLoadCorruptedSave(t *testing.T) {
	provider := newFakeProvider()
	eng := newTestEngine(t, provider)
	ctx := context.Background()

	if result, _ := eng.Save(ctx, "slot2", ""); !result.Success {
		t.Fatalf("save should succeed: %v", result.Err)
	}

	// Flip one byte of the payload file directly.
	path, err := eng.store.ResolvePath("slot2")
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read payload: %v", err)
	}
	mutated := []byte(strings.Replace(string(raw), "Misty", "Misti", 1))
	if err := os.WriteFile(path, mutated, 0o600); err != nil {
		t.Fatalf("failed to write mutated payload: %v", err)
	}

	result, err := eng.Load(ctx, "slot2")
	if err != nil {
		t.Fatalf("Load must not raise: %v", err)
	}
	if result.Success {
		t.Error("corrupted save must not load")
	}
	if !saveerrors.IsCorrupted(result.Err) {
		t.Errorf("expected Corrupted, got %v", result.Err)
	}
	if provider.restoreCalls != 0 {
		t.Error("restore must never run for a corrupted save")
	}
}

// TestSaveBlankSlotID verifies argument violations raise immediately
func TestSaveBlankSlotID(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	if _, err := eng.Save(context.Background(), "", ""); !saveerrors.IsInvalidArgument(err) {
		t.Errorf("blank slot id should be an invalid argument, got %v", err)
	}
	if _, err := eng.Load(context.Background(), "!!!"); !saveerrors.IsInvalidArgument(err) {
		t.Errorf("unusable slot id should be an invalid argument, got %v", err)
	}
}

// TestSaveProviderFailure verifies provider errors become failed results
func TestSaveProviderFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.createErr = errors.New("world is mid-transition")
	eng := newTestEngine(t, provider)

	result, err := eng.Save(context.Background(), "slot1", "")
	if err != nil {
		t.Fatalf("Save must not raise: %v", err)
	}
	if result.Success {
		t.Error("save must fail when the provider cannot capture")
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "mid-transition") {
		t.Errorf("result should carry the cause, got %v", result.Err)
	}
}

// TestLoadSemanticsRejected verifies the provider's semantic veto blocks restore
func TestLoadSemanticsRejected(t *testing.T) {
	provider := newFakeProvider()
	eng := newTestEngine(t, provider)
	ctx := context.Background()

	if result, _ := eng.Save(ctx, "slot1", ""); !result.Success {
		t.Fatalf("save should succeed: %v", result.Err)
	}
	provider.semanticsOK = false

	result, _ := eng.Load(ctx, "slot1")
	if result.Success {
		t.Error("load must fail when semantics are rejected")
	}
	if provider.restoreCalls != 0 {
		t.Error("restore must not run after a semantic rejection")
	}
}

// TestLoadRestoreFailure verifies restore errors become failed results
func TestLoadRestoreFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.restoreErr = errors.New("cannot apply")
	eng := newTestEngine(t, provider)
	ctx := context.Background()

	if result, _ := eng.Save(ctx, "slot1", ""); !result.Success {
		t.Fatalf("save should succeed: %v", result.Err)
	}
	result, err := eng.Load(ctx, "slot1")
	if err != nil {
		t.Fatalf("Load must not raise: %v", err)
	}
	if result.Success {
		t.Error("load must fail when restore fails")
	}
}

// TestDeleteSlot verifies delete semantics through the engine
func TestDeleteSlot(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	ctx := context.Background()

	existed, err := eng.Delete(ctx, "nothing")
	if err != nil || existed {
		t.Errorf("deleting a missing slot should be (false, nil), got (%v, %v)", existed, err)
	}

	if result, _ := eng.Save(ctx, "slot1", ""); !result.Success {
		t.Fatalf("save should succeed: %v", result.Err)
	}
	existed, err = eng.Delete(ctx, "slot1")
	if err != nil || !existed {
		t.Errorf("deleting an existing slot should be (true, nil), got (%v, %v)", existed, err)
	}
}

// TestGetSaveSlots verifies listing reflects saved slots
func TestGetSaveSlots(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	ctx := context.Background()

	for _, slot := range []string{"alpha", "beta"} {
		if result, _ := eng.Save(ctx, slot, ""); !result.Success {
			t.Fatalf("save %s should succeed: %v", slot, result.Err)
		}
	}

	slots, err := eng.GetSaveSlots()
	if err != nil {
		t.Fatalf("GetSaveSlots failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	meta, err := eng.GetSaveMetadata("alpha")
	if err != nil {
		t.Fatalf("GetSaveMetadata failed: %v", err)
	}
	if meta == nil || meta.PlayerName != "Misty" {
		t.Error("metadata should carry the player name without deserializing the payload")
	}
}

// TestValidateSlot verifies engine-level validation pass-through
func TestValidateSlot(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	ctx := context.Background()

	result, err := eng.Validate(ctx, "missing")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Exists || result.IsValid {
		t.Error("validating a missing slot should report exists=false, invalid")
	}

	if saveResult, _ := eng.Save(ctx, "slot1", ""); !saveResult.Success {
		t.Fatalf("save should succeed: %v", saveResult.Err)
	}
	result, err = eng.Validate(ctx, "slot1")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.IsValid {
		t.Errorf("saved slot should validate, errors: %v", result.Errors)
	}
}

// TestExportImportRoundTrip verifies a save survives export and import
func TestExportImportRoundTrip(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	ctx := context.Background()

	if result, _ := eng.Save(ctx, "slot1", "for backup"); !result.Success {
		t.Fatalf("save should succeed: %v", result.Err)
	}

	dest := filepath.Join(t.TempDir(), "backup.sav")
	ok, err := eng.ExportSave(ctx, "slot1", dest)
	if err != nil || !ok {
		t.Fatalf("export should succeed, got (%v, %v)", ok, err)
	}

	importResult, err := eng.ImportSave(ctx, dest, "restored")
	if err != nil {
		t.Fatalf("ImportSave errored: %v", err)
	}
	if !importResult.Success {
		t.Fatalf("import should succeed: %s (%v)", importResult.Message, importResult.Err)
	}

	loadResult, _ := eng.Load(ctx, "restored")
	if !loadResult.Success {
		t.Fatalf("imported save should load: %v", loadResult.Err)
	}
	if loadResult.Snapshot.Description != "for backup" {
		t.Error("imported snapshot should match the exported one")
	}
}

// TestImportInvalidRejected verifies a bad source never touches the slot
func TestImportInvalidRejected(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	ctx := context.Background()

	// Future save version: above the supported range.
	ser := serializer.New()
	snap := &models.Snapshot{
		SaveVersion: models.Version{Major: models.CurrentSaveVersion.Major + 1},
		Player:      &models.PlayerState{Name: "Future"},
	}
	payload, err := ser.SerializeWithChecksum(snap)
	if err != nil {
		t.Fatalf("SerializeWithChecksum failed: %v", err)
	}
	source := filepath.Join(t.TempDir(), "future.sav")
	if err := os.WriteFile(source, payload, 0o600); err != nil {
		t.Fatalf("failed to plant source: %v", err)
	}

	result, err := eng.ImportSave(ctx, source, "target")
	if err != nil {
		t.Fatalf("ImportSave must not raise: %v", err)
	}
	if result.Success {
		t.Error("import of an incompatible save must fail")
	}
	if result.Validation == nil || result.Validation.VersionCompatible {
		t.Error("result should carry the validation findings")
	}
	if eng.store.Exists("target") {
		t.Error("target slot must not be created by a rejected import")
	}
}

// TestImportMissingSource verifies an unreadable source fails cleanly
func TestImportMissingSource(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())
	result, err := eng.ImportSave(context.Background(), filepath.Join(t.TempDir(), "nope.sav"), "target")
	if err != nil {
		t.Fatalf("ImportSave must not raise: %v", err)
	}
	if result.Success {
		t.Error("import from a missing source must fail")
	}
}

// TestOperationHistory verifies operations are recorded when a store is attached
func TestOperationHistory(t *testing.T) {
	store, err := storage.NewSlotStore(t.TempDir(), logging.Component("storage-test"))
	if err != nil {
		t.Fatalf("NewSlotStore failed: %v", err)
	}
	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	ser := serializer.New()
	eng, err := New(newFakeProvider(), store, ser, validation.New(ser, logging.Component("validation-test")), hist)
	if err != nil {
		t.Fatalf("New engine failed: %v", err)
	}
	defer eng.Close()
	ctx := context.Background()

	if result, _ := eng.Save(ctx, "slot1", ""); !result.Success {
		t.Fatalf("save should succeed: %v", result.Err)
	}
	if result, _ := eng.Load(ctx, "slot1"); !result.Success {
		t.Fatalf("load should succeed: %v", result.Err)
	}
	eng.Load(ctx, "missing")

	entries, err := hist.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(entries))
	}

	stats, err := hist.StatsForSlot(ctx, "slot1")
	if err != nil {
		t.Fatalf("StatsForSlot failed: %v", err)
	}
	if stats.Saves != 1 || stats.Loads != 1 {
		t.Errorf("expected 1 save and 1 load, got %+v", stats)
	}
	if stats.LastSaved.IsZero() {
		t.Error("last saved time should be recorded")
	}
}
