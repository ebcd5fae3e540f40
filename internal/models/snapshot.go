package models

import (
	"time"
)

// MaxPartySize is the largest number of creatures allowed in the active party.
const MaxPartySize = 6

// MaxMoveCount is the largest number of moves a creature can know.
const MaxMoveCount = 4

// BoxCapacity is the number of creature slots in a storage box.
const BoxCapacity = 30

// Snapshot is one complete game-state capture. It is immutable at rest:
// the engine builds it from the snapshot provider, serializes it, and
// never mutates a snapshot handed back to the caller on load.
type Snapshot struct {
	SaveVersion Version   `json:"save_version"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`

	Player        *PlayerState        `json:"player"`
	Party         []Creature          `json:"party,omitempty"`
	Boxes         []StorageBox        `json:"boxes,omitempty"`
	Inventory     *Inventory          `json:"inventory,omitempty"`
	World         *WorldState         `json:"world,omitempty"`
	CurrentBattle *BattleState        `json:"current_battle,omitempty"`
	Progress      *ProgressState      `json:"progress,omitempty"`
	Pokedex       *Pokedex            `json:"pokedex,omitempty"`
	ModData       map[string]ModValue `json:"mod_data,omitempty"`

	// Checksum is set only in the persisted form, during the save flow.
	// It is the digest of this document serialized with Checksum cleared.
	Checksum string `json:"checksum,omitempty"`
}

// PlayerState identifies the player and their overall position in the game.
type PlayerState struct {
	Name            string         `json:"name"`
	TrainerID       uint32         `json:"trainer_id"`
	Position        Position       `json:"position"`
	Location        string         `json:"location"`
	Money           int64          `json:"money"`
	PlaytimeSeconds int64          `json:"playtime_seconds"`
	Badges          int            `json:"badges"`
	Counters        map[string]int `json:"counters,omitempty"`
}

// Position is a world coordinate with facing.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing string  `json:"facing,omitempty"`
}

// Creature is one creature record, in the party or in a storage box.
type Creature struct {
	SpeciesID       int             `json:"species_id"`
	Nickname        string          `json:"nickname,omitempty"`
	Level           int             `json:"level"`
	Experience      int64           `json:"experience"`
	CurrentHP       int             `json:"current_hp"`
	MaxHP           int             `json:"max_hp"`
	BaseStats       StatBlock       `json:"base_stats"`
	IVs             StatBlock       `json:"ivs"`
	EVs             StatBlock       `json:"evs"`
	Nature          string          `json:"nature"`
	Ability         string          `json:"ability"`
	HeldItem        string          `json:"held_item,omitempty"`
	Moves           []Move          `json:"moves,omitempty"`
	Status          StatusCondition `json:"status,omitempty"`
	Shiny           bool            `json:"shiny,omitempty"`
	OriginalTrainer string          `json:"original_trainer,omitempty"`
	Friendship      int             `json:"friendship"`
}

// StatBlock holds the six core stats.
type StatBlock struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special_attack"`
	SpecialDefense int `json:"special_defense"`
	Speed          int `json:"speed"`
}

// Move is a known move with its remaining and maximum use count.
type Move struct {
	ID        string `json:"id"`
	CurrentPP int    `json:"current_pp"`
	MaxPP     int    `json:"max_pp"`
}

// StatusCondition is a creature's persistent status ailment.
type StatusCondition string

const (
	StatusNone      StatusCondition = ""
	StatusBurned    StatusCondition = "burned"
	StatusFrozen    StatusCondition = "frozen"
	StatusParalyzed StatusCondition = "paralyzed"
	StatusPoisoned  StatusCondition = "poisoned"
	StatusAsleep    StatusCondition = "asleep"
)

// StorageBox is a named group of optional creature slots beyond the party.
// Slots is fixed-size with nil entries for empty positions.
type StorageBox struct {
	Name  string      `json:"name"`
	Slots []*Creature `json:"slots"`
}

// Inventory holds categorized item quantity maps.
type Inventory struct {
	Consumables  map[string]int `json:"consumables,omitempty"`
	KeyItems     map[string]int `json:"key_items,omitempty"`
	KitItems     map[string]int `json:"kit_items,omitempty"`
	UpgradeItems map[string]int `json:"upgrade_items,omitempty"`
}

// WorldState captures the explored world.
type WorldState struct {
	Visited           map[string]bool          `json:"visited,omitempty"`
	Locations         map[string]LocationState `json:"locations,omitempty"`
	DefeatedOpponents map[string]bool          `json:"defeated_opponents,omitempty"`
	TimeOfDay         string                   `json:"time_of_day,omitempty"`
}

// LocationState is the per-location sub-record (picked-up items, opened doors).
type LocationState struct {
	CollectedItems []string        `json:"collected_items,omitempty"`
	Switches       map[string]bool `json:"switches,omitempty"`
}

// BattleState is present only when a save happens mid-encounter.
type BattleState struct {
	OpponentID    string     `json:"opponent_id"`
	OpponentParty []Creature `json:"opponent_party,omitempty"`
	TurnCount     int        `json:"turn_count"`
	CanFlee       bool       `json:"can_flee"`
}

// ProgressState tracks story advancement.
type ProgressState struct {
	StoryFlags            map[string]bool `json:"story_flags,omitempty"`
	UnlockedMilestones    []string        `json:"unlocked_milestones,omitempty"`
	FinalChallengeCleared bool            `json:"final_challenge_cleared"`
}

// Pokedex records species the player has encountered.
// Invariant (validator-enforced): every caught species is also seen.
type Pokedex struct {
	Seen   map[int]bool `json:"seen,omitempty"`
	Caught map[int]bool `json:"caught,omitempty"`
}

// SeenCount returns the number of species marked seen.
func (p *Pokedex) SeenCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, ok := range p.Seen {
		if ok {
			n++
		}
	}
	return n
}

// CaughtCount returns the number of species marked caught.
func (p *Pokedex) CaughtCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, ok := range p.Caught {
		if ok {
			n++
		}
	}
	return n
}
