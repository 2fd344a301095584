// Package store persists the daily cache and history as two flat JSON
// documents: fortunes.json (day → user → record) and history.json
// (user → day → entry). Both are read fully at startup and rewritten in
// full on every save — total state is kept small by pruning, so each write
// stays cheap. The store is not safe for concurrent use; the fortune
// service serializes access.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/domain"
)

const (
	fortunesFile = "fortunes.json"
	historyFile  = "history.json"
)

// Store owns the two in-memory documents and their on-disk mirrors.
type Store struct {
	dir      string
	log      zerolog.Logger
	fortunes map[string]map[string]*domain.FortuneRecord
	history  map[string]map[string]domain.HistoryEntry
}

// Open loads both documents from dir, creating it if needed. Unreadable or
// corrupt files are logged and treated as empty — storage problems never
// abort startup.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:      dir,
		log:      log,
		fortunes: make(map[string]map[string]*domain.FortuneRecord),
		history:  make(map[string]map[string]domain.HistoryEntry),
	}
	loadJSON(filepath.Join(dir, fortunesFile), &s.fortunes, log)
	loadJSON(filepath.Join(dir, historyFile), &s.history, log)
	return s, nil
}

func loadJSON(path string, dst any, log zerolog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Str("path", path).Msg("read store file, starting empty")
		}
		return
	}
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Error().Err(err).Str("path", path).Msg("corrupt store file, starting empty")
	}
}

// saveJSON rewrites the whole document atomically (temp file + rename).
func saveJSON(path string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}

// SaveFortunes flushes the daily cache document.
func (s *Store) SaveFortunes() error {
	return saveJSON(filepath.Join(s.dir, fortunesFile), s.fortunes)
}

// SaveHistory flushes the history document.
func (s *Store) SaveHistory() error {
	return saveJSON(filepath.Join(s.dir, historyFile), s.history)
}

// ─── Daily cache ────────────────────────────────────────────────────────────

// Fortune returns the record for (day, userID), if any.
func (s *Store) Fortune(day, userID string) (*domain.FortuneRecord, bool) {
	rec, ok := s.fortunes[day][userID]
	return rec, ok
}

// PutFortune writes the record for its day, replacing any previous one.
func (s *Store) PutFortune(day string, rec *domain.FortuneRecord) {
	users, ok := s.fortunes[day]
	if !ok {
		users = make(map[string]*domain.FortuneRecord)
		s.fortunes[day] = users
	}
	users[rec.UserID] = rec
}

// DeleteFortune removes (day, userID), reporting whether it existed.
func (s *Store) DeleteFortune(day, userID string) bool {
	users, ok := s.fortunes[day]
	if !ok {
		return false
	}
	if _, ok := users[userID]; !ok {
		return false
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(s.fortunes, day)
	}
	return true
}

// DeleteUserFortunes removes every cached record for userID across all
// days, except keepDay when non-empty. Reports whether anything was removed.
func (s *Store) DeleteUserFortunes(userID, keepDay string) bool {
	removed := false
	for day, users := range s.fortunes {
		if day == keepDay {
			continue
		}
		if _, ok := users[userID]; ok {
			delete(users, userID)
			removed = true
			if len(users) == 0 {
				delete(s.fortunes, day)
			}
		}
	}
	return removed
}

// DayFortunes returns the records cached for day, oldest first.
// Creation order is the stable tie-break the leaderboard relies on.
func (s *Store) DayFortunes(day string) []*domain.FortuneRecord {
	users := s.fortunes[day]
	recs := make([]*domain.FortuneRecord, 0, len(users))
	for _, rec := range users {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].UserID < recs[j].UserID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs
}

// Days returns every day key present in the cache.
func (s *Store) Days() []string {
	days := make([]string, 0, len(s.fortunes))
	for day := range s.fortunes {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// PruneFortunes removes records that have expired as of day, and any days
// left empty. Returns the number of records removed.
func (s *Store) PruneFortunes(day string) int {
	removed := 0
	for d, users := range s.fortunes {
		for id, rec := range users {
			if rec.Expired(day) {
				delete(users, id)
				removed++
			}
		}
		if len(users) == 0 {
			delete(s.fortunes, d)
		}
	}
	return removed
}

// ─── History ────────────────────────────────────────────────────────────────

// PutHistory appends (or replaces, same date) the user's entry for a day.
// At most one entry per (user, date) by construction.
func (s *Store) PutHistory(userID string, entry domain.HistoryEntry) {
	days, ok := s.history[userID]
	if !ok {
		days = make(map[string]domain.HistoryEntry)
		s.history[userID] = days
	}
	days[entry.Date] = entry
}

// History returns the user's entries ordered by date ascending.
func (s *Store) History(userID string) []domain.HistoryEntry {
	days := s.history[userID]
	entries := make([]domain.HistoryEntry, 0, len(days))
	for _, e := range days {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}

// DeleteHistoryEntry removes one (user, date) entry.
func (s *Store) DeleteHistoryEntry(userID, date string) bool {
	days, ok := s.history[userID]
	if !ok {
		return false
	}
	if _, ok := days[date]; !ok {
		return false
	}
	delete(days, date)
	if len(days) == 0 {
		delete(s.history, userID)
	}
	return true
}

// DeleteUserHistory removes the user's entries, except keepDate when
// non-empty. Reports whether anything was removed.
func (s *Store) DeleteUserHistory(userID, keepDate string) bool {
	days, ok := s.history[userID]
	if !ok {
		return false
	}
	removed := false
	for date := range days {
		if date == keepDate {
			continue
		}
		delete(days, date)
		removed = true
	}
	if len(days) == 0 {
		delete(s.history, userID)
	}
	return removed
}

// PruneHistory removes entries dated strictly before cutoff for all users.
// Returns the number of entries removed.
func (s *Store) PruneHistory(cutoff string) int {
	removed := 0
	for userID, days := range s.history {
		for date := range days {
			if date < cutoff {
				delete(days, date)
				removed++
			}
		}
		if len(days) == 0 {
			delete(s.history, userID)
		}
	}
	return removed
}

// ResetAll clears both documents in memory and on disk.
func (s *Store) ResetAll() error {
	s.fortunes = make(map[string]map[string]*domain.FortuneRecord)
	s.history = make(map[string]map[string]domain.HistoryEntry)
	for _, name := range []string{fortunesFile, historyFile} {
		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
