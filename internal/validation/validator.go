// Package validation inspects payloads before full deserialization and
// snapshots after it. Findings split into fatal errors, which block a
// load, and warnings, which let old or partial saves degrade gracefully.
package validation

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"savevault/internal/models"
	"savevault/internal/serializer"
)

// Validator checks payload integrity, version compatibility and
// snapshot structure.
type Validator struct {
	serializer   *serializer.Serializer
	current      models.Version
	minSupported models.Version
	log          *logrus.Entry
}

// New creates a validator gated on the engine's supported version range.
func New(ser *serializer.Serializer, log *logrus.Entry) *Validator {
	return &Validator{
		serializer:   ser,
		current:      models.CurrentSaveVersion,
		minSupported: models.MinSupportedSaveVersion,
		log:          log,
	}
}

// IsVersionCompatible reports whether a save version falls inside the
// inclusive [minSupported, current] range.
func (v *Validator) IsVersionCompatible(version models.Version) bool {
	return version.Compare(v.minSupported) >= 0 && version.Compare(v.current) <= 0
}

// Validate runs the full payload check: parse, checksum, version gate,
// then structural validation of the decoded snapshot.
func (v *Validator) Validate(payload []byte) *models.ValidationResult {
	result := &models.ValidationResult{
		ChecksumValid:     true,
		VersionCompatible: true,
	}

	if len(payload) == 0 {
		result.AddError("payload is empty")
		result.ChecksumValid = false
		result.VersionCompatible = false
		return result
	}
	result.Exists = true

	snap, err := v.serializer.Deserialize(payload)
	if err != nil {
		result.AddError(fmt.Sprintf("payload cannot be parsed: %v", err))
		result.ChecksumValid = false
		result.VersionCompatible = false
		return result
	}

	if snap.Checksum == "" {
		result.AddWarning("payload carries no checksum, integrity cannot be verified")
	} else {
		_, ok, err := v.serializer.VerifyChecksum(payload)
		if err != nil || !ok {
			result.ChecksumValid = false
			result.AddError("checksum mismatch, save data is corrupted")
		}
	}

	if !v.IsVersionCompatible(snap.SaveVersion) {
		result.VersionCompatible = false
		result.AddError(fmt.Sprintf(
			"save version %s is outside the supported range [%s, %s]",
			snap.SaveVersion, v.minSupported, v.current))
	}

	result.Merge(v.ValidateSnapshot(snap))

	result.IsValid = len(result.Errors) == 0 && result.ChecksumValid && result.VersionCompatible
	if !result.IsValid {
		v.log.WithFields(logrus.Fields{
			"errors":   len(result.Errors),
			"warnings": len(result.Warnings),
		}).Warn("payload failed validation")
	}
	return result
}

// ValidateSnapshot checks structural and semantic soundness of a decoded
// snapshot. It does not touch checksum or version; Validate merges those.
func (v *Validator) ValidateSnapshot(snap *models.Snapshot) *models.ValidationResult {
	result := &models.ValidationResult{
		Exists:            true,
		ChecksumValid:     true,
		VersionCompatible: true,
	}
	if snap == nil {
		result.AddError("snapshot is nil")
		result.IsValid = false
		return result
	}

	v.validatePlayer(snap, result)
	v.validateParty(snap, result)

	if snap.Inventory == nil {
		result.AddWarning("inventory section missing, defaults will be used")
	}
	if snap.World == nil {
		result.AddWarning("world section missing, defaults will be used")
	}
	if snap.Progress == nil {
		result.AddWarning("progress section missing, defaults will be used")
	}

	v.validatePokedex(snap, result)

	result.IsValid = len(result.Errors) == 0
	return result
}

func (v *Validator) validatePlayer(snap *models.Snapshot, result *models.ValidationResult) {
	if snap.Player == nil {
		result.AddError("player record is missing")
		return
	}
	if snap.Player.Name == "" {
		result.AddWarning("player name is empty")
	}
	if snap.Player.Location == "" {
		result.AddWarning("player location is empty")
	}
	if snap.Player.PlaytimeSeconds < 0 {
		result.AddError(fmt.Sprintf("playtime is negative (%d seconds)", snap.Player.PlaytimeSeconds))
	}
}

func (v *Validator) validateParty(snap *models.Snapshot, result *models.ValidationResult) {
	if snap.Party == nil {
		result.AddWarning("party is absent, treated as empty")
		return
	}
	if len(snap.Party) > models.MaxPartySize {
		result.AddError(fmt.Sprintf("party has %d members, limit is %d", len(snap.Party), models.MaxPartySize))
	}
	for i := range snap.Party {
		v.validateCreature(i, &snap.Party[i], result)
	}
}

func (v *Validator) validateCreature(index int, c *models.Creature, result *models.ValidationResult) {
	label := fmt.Sprintf("party member %d (species %d)", index, c.SpeciesID)
	if c.CurrentHP < 0 {
		result.AddError(fmt.Sprintf("%s: current HP is negative", label))
	}
	if c.MaxHP <= 0 {
		result.AddError(fmt.Sprintf("%s: maximum HP must be positive", label))
	}
	if c.MaxHP > 0 && c.CurrentHP > c.MaxHP {
		result.AddError(fmt.Sprintf("%s: current HP %d exceeds maximum %d", label, c.CurrentHP, c.MaxHP))
	}
	if c.Level < 1 || c.Level > 100 {
		result.AddError(fmt.Sprintf("%s: level %d is outside [1, 100]", label, c.Level))
	}
	if len(c.Moves) == 0 {
		result.AddWarning(fmt.Sprintf("%s: knows no moves", label))
	}
	if len(c.Moves) > models.MaxMoveCount {
		result.AddError(fmt.Sprintf("%s: knows %d moves, limit is %d", label, len(c.Moves), models.MaxMoveCount))
	}
}

func (v *Validator) validatePokedex(snap *models.Snapshot, result *models.ValidationResult) {
	if snap.Pokedex == nil {
		result.AddWarning("pokedex section missing, defaults will be used")
		return
	}
	for species, ok := range snap.Pokedex.Caught {
		if ok && !snap.Pokedex.Seen[species] {
			result.AddError(fmt.Sprintf(
				"pokedex has %d caught but only %d seen; caught species must have been seen",
				snap.Pokedex.CaughtCount(), snap.Pokedex.SeenCount()))
			return
		}
	}
}
