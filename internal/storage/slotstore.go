// Package storage implements the file-backed slot store. A slot is a
// payload file <root>/<slot>.sav plus a sidecar <root>/Metadata/
// <slot>.meta.json. The store knows nothing about snapshot internals;
// it moves byte payloads and metadata records it is handed.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"savevault/internal/models"
	"savevault/internal/saveerrors"
)

const (
	payloadExt  = ".sav"
	metadataDir = "Metadata"
	metadataExt = ".meta.json"

	metadataCacheTTL     = 5 * time.Minute
	metadataCacheCleanup = 10 * time.Minute

	// staleSkew is how much newer a payload may be than its sidecar
	// before the pair is reported as inconsistent. The two files are
	// written back to back, so anything beyond a couple of seconds
	// means a crash or an external write landed between them.
	staleSkew = 2 * time.Second
)

// SlotStore maps sanitized slot ids to payload and sidecar files under
// a single root directory.
type SlotStore struct {
	root  string
	cache *cache.Cache
	log   *logrus.Entry
}

// NewSlotStore creates the store and its directory layout.
func NewSlotStore(root string, log *logrus.Entry) (*SlotStore, error) {
	if root == "" {
		return nil, saveerrors.New(saveerrors.CodeInvalidArgument, "storage root must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(root, metadataDir), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directories: %w", err)
	}
	return &SlotStore{
		root:  root,
		cache: cache.New(metadataCacheTTL, metadataCacheCleanup),
		log:   log,
	}, nil
}

// Root returns the storage root directory.
func (s *SlotStore) Root() string {
	return s.root
}

// SanitizeSlotID strips every character that is not safe in a file
// name, so no slot id can escape the storage root.
func SanitizeSlotID(slotID string) (string, error) {
	var b strings.Builder
	for _, r := range slotID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	clean := strings.Trim(b.String(), ".")
	if clean == "" {
		return "", saveerrors.New(saveerrors.CodeInvalidArgument, "slot id %q contains no usable characters", slotID)
	}
	return clean, nil
}

// ResolvePath returns the payload path a slot id maps to, for diagnostics.
func (s *SlotStore) ResolvePath(slotID string) (string, error) {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, clean+payloadExt), nil
}

func (s *SlotStore) metadataPath(clean string) string {
	return filepath.Join(s.root, metadataDir, clean+metadataExt)
}

// Write creates or overwrites a slot's payload and sidecar. The
// metadata's SizeBytes and ModifiedAt are stamped here; caller-supplied
// values are not trusted. The payload lands via a temp-file rename so a
// canceled or crashed write never leaves a half-written payload behind.
func (s *SlotStore) Write(ctx context.Context, slotID string, payload []byte, meta *models.SaveMetadata) error {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payloadPath := filepath.Join(s.root, clean+payloadExt)
	tmp, err := os.CreateTemp(s.root, clean+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp payload file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close payload file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, payloadPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move payload into place: %w", err)
	}
	if err := os.Chmod(payloadPath, 0o600); err != nil {
		s.log.WithError(err).WithField("slot", clean).Warn("failed to set payload permissions")
	}

	now := time.Now().UTC()
	meta.SlotID = clean
	meta.SizeBytes = int64(len(payload))
	meta.ModifiedAt = now
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	// Not transactional with the payload write above: a crash here
	// leaves a payload without a sidecar. GetMetadata detects that
	// pair and reports it as corrupted instead of trusting either file.
	if err := os.WriteFile(s.metadataPath(clean), metaBytes, 0o600); err != nil {
		return fmt.Errorf("failed to write metadata sidecar: %w", err)
	}

	s.cache.Set(clean, meta, cache.DefaultExpiration)
	s.log.WithFields(logrus.Fields{"slot": clean, "size": len(payload)}).Info("slot written")
	return nil
}

// Read returns a slot's payload bytes.
func (s *SlotStore) Read(ctx context.Context, slotID string) ([]byte, error) {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(filepath.Join(s.root, clean+payloadExt))
	if os.IsNotExist(err) {
		return nil, saveerrors.New(saveerrors.CodeNotFound, "no save found in slot %q", clean)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", clean, err)
	}
	return payload, nil
}

// Exists reports whether the slot has a payload file.
func (s *SlotStore) Exists(slotID string) bool {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(s.root, clean+payloadExt))
	return err == nil
}

// Delete removes a slot's payload and sidecar. It returns false, not an
// error, when the slot did not exist.
func (s *SlotStore) Delete(ctx context.Context, slotID string) (bool, error) {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	existed := false
	if err := os.Remove(filepath.Join(s.root, clean+payloadExt)); err == nil {
		existed = true
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to delete payload for slot %q: %w", clean, err)
	}
	if err := os.Remove(s.metadataPath(clean)); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).WithField("slot", clean).Warn("failed to delete metadata sidecar")
	}
	s.cache.Delete(clean)
	if existed {
		s.log.WithField("slot", clean).Info("slot deleted")
	}
	return existed, nil
}

// GetMetadata returns a slot's sidecar record, or nil when the slot does
// not exist at all. A payload without a readable sidecar (the known
// non-transactional-write gap) comes back as a synthesized record with
// Corrupted set, never as a hard error.
func (s *SlotStore) GetMetadata(slotID string) (*models.SaveMetadata, error) {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return nil, err
	}
	if cached, found := s.cache.Get(clean); found {
		return cached.(*models.SaveMetadata), nil
	}

	payloadInfo, payloadErr := os.Stat(filepath.Join(s.root, clean+payloadExt))
	metaBytes, metaErr := os.ReadFile(s.metadataPath(clean))

	if os.IsNotExist(metaErr) || metaErr == nil && len(metaBytes) == 0 {
		if payloadErr != nil {
			return nil, nil // neither file exists
		}
		s.log.WithField("slot", clean).Warn("payload exists without metadata sidecar, flagging as corrupted")
		return s.synthesizeMetadata(clean, payloadInfo), nil
	}
	if metaErr != nil {
		return nil, fmt.Errorf("failed to read metadata for slot %q: %w", clean, metaErr)
	}

	var meta models.SaveMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		if payloadErr == nil {
			s.log.WithError(err).WithField("slot", clean).Warn("unreadable metadata sidecar, flagging as corrupted")
			return s.synthesizeMetadata(clean, payloadInfo), nil
		}
		return nil, fmt.Errorf("failed to parse metadata for slot %q: %w", clean, err)
	}

	if payloadErr == nil && payloadInfo.ModTime().After(meta.ModifiedAt.Add(staleSkew)) {
		s.log.WithField("slot", clean).Warn("payload is newer than its metadata sidecar")
		meta.Corrupted = true
	}

	s.cache.Set(clean, &meta, cache.DefaultExpiration)
	return &meta, nil
}

func (s *SlotStore) synthesizeMetadata(clean string, info os.FileInfo) *models.SaveMetadata {
	meta := &models.SaveMetadata{
		SlotID:    clean,
		Corrupted: true,
	}
	if info != nil {
		meta.SizeBytes = info.Size()
		meta.ModifiedAt = info.ModTime()
	}
	return meta
}

// ListAllMetadata returns metadata for every slot with a payload file.
// Unreadable entries are skipped with a logged warning; the listing
// itself never fails because of a single bad slot.
func (s *SlotStore) ListAllMetadata() ([]*models.SaveMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}
	var all []*models.SaveMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), payloadExt) {
			continue
		}
		slot := strings.TrimSuffix(entry.Name(), payloadExt)
		meta, err := s.GetMetadata(slot)
		if err != nil {
			s.log.WithError(err).WithField("slot", slot).Warn("skipping unreadable slot in listing")
			continue
		}
		if meta != nil {
			all = append(all, meta)
		}
	}
	return all, nil
}

// InvalidateMetadata drops a slot's cached sidecar, forcing the next
// read to hit disk. The save-directory watcher calls this when a
// payload changes outside the engine.
func (s *SlotStore) InvalidateMetadata(slotID string) {
	if clean, err := SanitizeSlotID(slotID); err == nil {
		s.cache.Delete(clean)
	}
}

// CopyTo exports a slot's raw payload file to an arbitrary path.
func (s *SlotStore) CopyTo(ctx context.Context, slotID, destinationPath string) error {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return err
	}
	if !s.Exists(clean) {
		return saveerrors.New(saveerrors.CodeNotFound, "no save found in slot %q", clean)
	}
	return copyFile(ctx, filepath.Join(s.root, clean+payloadExt), destinationPath)
}

// CopyFrom imports a raw payload file into a slot, replacing any
// existing payload. The caller is responsible for validating the source
// first and for rebuilding the sidecar.
func (s *SlotStore) CopyFrom(ctx context.Context, sourcePath, slotID string) error {
	clean, err := SanitizeSlotID(slotID)
	if err != nil {
		return err
	}
	if err := copyFile(ctx, sourcePath, filepath.Join(s.root, clean+payloadExt)); err != nil {
		return err
	}
	s.cache.Delete(clean)
	return nil
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
