// Package serializer converts snapshots to and from their persisted JSON
// form and owns the two-pass checksum contract: the digest stored inside
// a payload is always computed over the payload serialized with its
// checksum field cleared.
package serializer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"savevault/internal/models"
	"savevault/internal/saveerrors"
)

// Serializer encodes snapshots as indented JSON so payloads stay
// diagnosable (and, at a pinch, hand-editable) without extra tooling.
type Serializer struct{}

// New creates a serializer.
func New() *Serializer {
	return &Serializer{}
}

// Serialize encodes a snapshot to its payload bytes.
func (s *Serializer) Serialize(snap *models.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, saveerrors.New(saveerrors.CodeSerializationFailed, "cannot serialize nil snapshot")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, saveerrors.Wrap(saveerrors.CodeSerializationFailed, err, "failed to encode snapshot")
	}
	return data, nil
}

// Deserialize decodes payload bytes back into a snapshot.
func (s *Serializer) Deserialize(payload []byte) (*models.Snapshot, error) {
	if len(payload) == 0 {
		return nil, saveerrors.New(saveerrors.CodeCorrupted, "payload is empty")
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		// json errors carry the offset of the parse failure, keep them.
		return nil, saveerrors.Wrap(saveerrors.CodeCorrupted, err, "failed to parse payload")
	}
	return &snap, nil
}

// SerializeString is the diagnostic string variant of Serialize.
func (s *Serializer) SerializeString(snap *models.Snapshot) (string, error) {
	data, err := s.Serialize(snap)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeserializeString is the diagnostic string variant of Deserialize.
func (s *Serializer) DeserializeString(payload string) (*models.Snapshot, error) {
	return s.Deserialize([]byte(payload))
}

// ComputeChecksum returns the hex-encoded sha256 digest of a payload.
func (s *Serializer) ComputeChecksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum reports whether the payload hashes to the expected
// digest. It never errors; any mismatch is simply false.
func (s *Serializer) ValidateChecksum(payload []byte, expected string) bool {
	if expected == "" {
		return false
	}
	return s.ComputeChecksum(payload) == expected
}

// SerializeWithChecksum runs the save-side two-pass algorithm:
// serialize with the checksum cleared, digest that payload, set the
// digest on the snapshot, and serialize again. The second payload is
// what gets persisted. The caller's snapshot is not mutated.
func (s *Serializer) SerializeWithChecksum(snap *models.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, saveerrors.New(saveerrors.CodeSerializationFailed, "cannot serialize nil snapshot")
	}
	stripped := *snap
	stripped.Checksum = ""
	first, err := s.Serialize(&stripped)
	if err != nil {
		return nil, err
	}
	stripped.Checksum = s.ComputeChecksum(first)
	return s.Serialize(&stripped)
}

// VerifyChecksum runs the mirrored verification: deserialize, read and
// strip the stored checksum, re-serialize, and compare digests.
// A payload without a stored checksum returns ("", true): nothing to
// verify, which the validator downgrades to a warning.
func (s *Serializer) VerifyChecksum(payload []byte) (stored string, ok bool, err error) {
	snap, err := s.Deserialize(payload)
	if err != nil {
		return "", false, err
	}
	if snap.Checksum == "" {
		return "", true, nil
	}
	stored = snap.Checksum
	stripped := *snap
	stripped.Checksum = ""
	reserialized, err := s.Serialize(&stripped)
	if err != nil {
		return stored, false, fmt.Errorf("failed to re-serialize for checksum verification: %w", err)
	}
	return stored, s.ValidateChecksum(reserialized, stored), nil
}
