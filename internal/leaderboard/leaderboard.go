// Package leaderboard keeps the top scores, one entry per player, persisted
// as a versioned JSON blob in a kvstore.
package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tomz197/moles/internal/kvstore"
	"github.com/tomz197/moles/internal/loop/config"
)

const formatVersion = 1

// ErrVersion is returned when the stored blob has an unknown format version.
var ErrVersion = errors.New("leaderboard: unsupported format version")

// Entry is one ranked player.
type Entry struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

type blob struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Board is safe for concurrent use; every SSH session records into the same one.
type Board struct {
	mu      sync.RWMutex
	store   kvstore.Store
	key     string
	size    int
	entries []Entry
}

// New creates an empty board backed by store. Call Load to read saved entries.
func New(store kvstore.Store) *Board {
	return &Board{
		store: store,
		key:   config.LeaderboardKey,
		size:  config.LeaderboardSize,
	}
}

// Load replaces the in-memory entries with the persisted ones. A missing key
// is an empty board.
func (b *Board) Load() error {
	raw, ok, err := b.store.Get(b.key)
	if err != nil {
		return fmt.Errorf("leaderboard: load: %w", err)
	}
	var entries []Entry
	if ok {
		var data blob
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("leaderboard: decode: %w", err)
		}
		if data.Version != formatVersion {
			return fmt.Errorf("%w: %d", ErrVersion, data.Version)
		}
		entries = normalize(data.Entries, b.size)
	}

	b.mu.Lock()
	b.entries = entries
	b.mu.Unlock()
	return nil
}

// Save writes the current entries.
func (b *Board) Save() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saveLocked()
}

func (b *Board) saveLocked() error {
	entries := b.entries
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.Marshal(blob{Version: formatVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("leaderboard: encode: %w", err)
	}
	if err := b.store.Set(b.key, string(raw)); err != nil {
		return fmt.Errorf("leaderboard: save: %w", err)
	}
	return nil
}

// Upsert records score for playerName, keeping only the player's best, and
// persists the board. Ties keep their earlier order. When the save fails the
// board is left as it was, so memory and store never disagree.
func (b *Board) Upsert(playerName string, score int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := slices.Clone(b.entries)
	i := slices.IndexFunc(entries, func(e Entry) bool { return e.PlayerName == playerName })
	switch {
	case i < 0:
		entries = append(entries, Entry{PlayerName: playerName, Score: score})
	case score > entries[i].Score:
		entries[i].Score = score
	default:
		return nil
	}

	prev := b.entries
	b.entries = normalize(entries, b.size)
	if err := b.saveLocked(); err != nil {
		b.entries = prev
		return err
	}
	return nil
}

// List returns a copy of the ranked entries, best first.
func (b *Board) List() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.entries)
}

// Top returns at most n entries.
func (b *Board) Top(n int) []Entry {
	entries := b.List()
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Clear empties the board and deletes the persisted blob.
func (b *Board) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	if err := b.store.Delete(b.key); err != nil {
		return fmt.Errorf("leaderboard: clear: %w", err)
	}
	return nil
}

// normalize sorts by score descending, stable, keeps one entry per name (its
// best, earliest on ties) and truncates to size.
func normalize(entries []Entry, size int) []Entry {
	slices.SortStableFunc(entries, func(a, b Entry) int { return b.Score - a.Score })
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.PlayerName] {
			continue
		}
		seen[e.PlayerName] = true
		out = append(out, e)
	}
	if len(out) > size {
		out = out[:size]
	}
	return out
}
