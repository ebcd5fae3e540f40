// Package gamestate is a small in-memory world implementing the
// engine's SnapshotProvider. It backs the demo binary and the engine
// tests; a real game supplies its own provider.
package gamestate

import (
	"fmt"
	"sync"
	"time"

	"savevault/internal/models"
)

// World holds the live game state.
type World struct {
	mu       sync.Mutex
	player   models.PlayerState
	party    []models.Creature
	boxes    []models.StorageBox
	world    models.WorldState
	progress models.ProgressState
	pokedex  models.Pokedex
	started  time.Time
}

// NewWorld creates a fresh demo world with one starter creature.
func NewWorld(playerName string) *World {
	return &World{
		player: models.PlayerState{
			Name:     playerName,
			Location: "hometown",
			Money:    3000,
			Counters: map[string]int{"steps": 0},
		},
		party: []models.Creature{starter()},
		world: models.WorldState{
			Visited:   map[string]bool{"hometown": true},
			TimeOfDay: "morning",
		},
		pokedex: models.Pokedex{
			Seen:   map[int]bool{1: true},
			Caught: map[int]bool{1: true},
		},
		started: time.Now(),
	}
}

func starter() models.Creature {
	return models.Creature{
		SpeciesID:  1,
		Nickname:   "Sprout",
		Level:      5,
		CurrentHP:  20,
		MaxHP:      20,
		BaseStats:  models.StatBlock{HP: 45, Attack: 49, Defense: 49, SpecialAttack: 65, SpecialDefense: 65, Speed: 45},
		Nature:     "modest",
		Ability:    "overgrow",
		Moves:      []models.Move{{ID: "tackle", CurrentPP: 35, MaxPP: 35}},
		Friendship: 70,
	}
}

// CreateSnapshot captures the current state as an independent snapshot.
func (w *World) CreateSnapshot(description string) (*models.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.player.PlaytimeSeconds += int64(time.Since(w.started).Seconds())
	w.started = time.Now()

	snap := &models.Snapshot{
		CreatedAt:   time.Now().UTC(),
		Description: description,
		Player:      clonePlayer(w.player),
		Party:       append([]models.Creature(nil), w.party...),
		Boxes:       cloneBoxes(w.boxes),
		World:       cloneWorld(w.world),
		Progress:    cloneProgress(w.progress),
		Pokedex:     clonePokedex(w.pokedex),
		Inventory: &models.Inventory{
			Consumables: map[string]int{"potion": 3},
		},
	}
	return snap, nil
}

// RestoreSnapshot applies a snapshot to the live state. Validation has
// already passed when this is called, so failures are limited to
// impossible states the structural checks cannot see.
func (w *World) RestoreSnapshot(snap *models.Snapshot) error {
	if snap == nil || snap.Player == nil {
		return fmt.Errorf("cannot restore: snapshot has no player")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.player = *snap.Player
	if w.player.Counters == nil {
		w.player.Counters = map[string]int{}
	}
	w.party = append([]models.Creature(nil), snap.Party...)
	w.boxes = cloneBoxes(snap.Boxes)
	if snap.World != nil {
		w.world = *cloneWorld(*snap.World)
	} else {
		w.world = models.WorldState{Visited: map[string]bool{}}
	}
	if snap.Progress != nil {
		w.progress = *cloneProgress(*snap.Progress)
	} else {
		w.progress = models.ProgressState{}
	}
	if snap.Pokedex != nil {
		w.pokedex = *clonePokedex(*snap.Pokedex)
	} else {
		w.pokedex = models.Pokedex{Seen: map[int]bool{}, Caught: map[int]bool{}}
	}
	w.started = time.Now()
	return nil
}

// ValidateSnapshotSemantics runs game rules the structural validator
// does not know about.
func (w *World) ValidateSnapshotSemantics(snap *models.Snapshot) bool {
	if snap == nil || snap.Player == nil {
		return false
	}
	if snap.Player.Money < 0 {
		return false
	}
	for _, c := range snap.Party {
		if c.SpeciesID <= 0 {
			return false
		}
	}
	return true
}

// Player returns a copy of the live player state, for assertions.
func (w *World) Player() models.PlayerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *clonePlayer(w.player)
}

// SetMoney mutates the live state, for exercising save/load round trips.
func (w *World) SetMoney(amount int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.player.Money = amount
}

func clonePlayer(p models.PlayerState) *models.PlayerState {
	out := p
	out.Counters = cloneIntMap(p.Counters)
	return &out
}

func cloneBoxes(boxes []models.StorageBox) []models.StorageBox {
	if boxes == nil {
		return nil
	}
	out := make([]models.StorageBox, len(boxes))
	for i, b := range boxes {
		out[i].Name = b.Name
		out[i].Slots = make([]*models.Creature, len(b.Slots))
		for j, c := range b.Slots {
			if c != nil {
				cc := *c
				out[i].Slots[j] = &cc
			}
		}
	}
	return out
}

func cloneWorld(w models.WorldState) *models.WorldState {
	out := models.WorldState{
		Visited:           cloneBoolMap(w.Visited),
		DefeatedOpponents: cloneBoolMap(w.DefeatedOpponents),
		TimeOfDay:         w.TimeOfDay,
	}
	if w.Locations != nil {
		out.Locations = make(map[string]models.LocationState, len(w.Locations))
		for k, v := range w.Locations {
			out.Locations[k] = models.LocationState{
				CollectedItems: append([]string(nil), v.CollectedItems...),
				Switches:       cloneBoolMap(v.Switches),
			}
		}
	}
	return &out
}

func cloneProgress(p models.ProgressState) *models.ProgressState {
	return &models.ProgressState{
		StoryFlags:            cloneBoolMap(p.StoryFlags),
		UnlockedMilestones:    append([]string(nil), p.UnlockedMilestones...),
		FinalChallengeCleared: p.FinalChallengeCleared,
	}
}

func clonePokedex(p models.Pokedex) *models.Pokedex {
	out := &models.Pokedex{}
	if p.Seen != nil {
		out.Seen = make(map[int]bool, len(p.Seen))
		for k, v := range p.Seen {
			out.Seen[k] = v
		}
	}
	if p.Caught != nil {
		out.Caught = make(map[int]bool, len(p.Caught))
		for k, v := range p.Caught {
			out.Caught[k] = v
		}
	}
	return out
}

func cloneBoolMap(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
