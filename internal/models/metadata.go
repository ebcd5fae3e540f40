package models

import "time"

// SaveMetadata is the lightweight sidecar record written next to a payload.
// It exists so slot listings never have to deserialize a full Snapshot.
// SizeBytes and ModifiedAt are authoritative from the slot store at write
// time; values supplied by the caller are overwritten.
type SaveMetadata struct {
	SlotID          string    `json:"slot_id"`
	PlayerName      string    `json:"player_name"`
	Location        string    `json:"location,omitempty"`
	PlaytimeSeconds int64     `json:"playtime_seconds"`
	PartyCount      int       `json:"party_count"`
	MilestoneCount  int       `json:"milestone_count"`
	PokedexSeen     int       `json:"pokedex_seen"`
	PokedexCaught   int       `json:"pokedex_caught"`
	CreatedAt       time.Time `json:"created_at"`
	ModifiedAt      time.Time `json:"modified_at"`
	SaveVersion     Version   `json:"save_version"`
	Description     string    `json:"description,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	Corrupted       bool      `json:"corrupted,omitempty"`
	MigrationNeeded bool      `json:"migration_needed,omitempty"`
}

// MetadataFromSnapshot derives a sidecar record from a snapshot.
// Store-authoritative fields (SizeBytes, ModifiedAt) are left zero here.
func MetadataFromSnapshot(slotID string, snap *Snapshot) *SaveMetadata {
	meta := &SaveMetadata{
		SlotID:      slotID,
		CreatedAt:   snap.CreatedAt,
		SaveVersion: snap.SaveVersion,
		Description: snap.Description,
		PartyCount:  len(snap.Party),
	}
	if snap.Player != nil {
		meta.PlayerName = snap.Player.Name
		meta.Location = snap.Player.Location
		meta.PlaytimeSeconds = snap.Player.PlaytimeSeconds
	}
	if snap.Progress != nil {
		meta.MilestoneCount = len(snap.Progress.UnlockedMilestones)
	}
	meta.PokedexSeen = snap.Pokedex.SeenCount()
	meta.PokedexCaught = snap.Pokedex.CaughtCount()
	if snap.SaveVersion.Compare(CurrentSaveVersion) < 0 &&
		snap.SaveVersion.Compare(MinSupportedSaveVersion) >= 0 {
		meta.MigrationNeeded = true
	}
	return meta
}
