// Package fortune implements the daily cache and history state machine.
// Per (user, day) a record moves ABSENT → COMPUTING → CACHED; COMPUTING
// exists only as the in-memory in-flight guard, never on disk. CACHED
// returns to ABSENT through reinitialize, deletion or pruning.
package fortune

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/app/generator"
	"github.com/lucklab/fortuned/internal/app/tier"
	"github.com/lucklab/fortuned/internal/domain"
	"github.com/lucklab/fortuned/internal/infra/metrics"
	"github.com/lucklab/fortuned/internal/infra/store"
)

// Enricher is the external text-generation capability. Implementations must
// degrade internally — Enrich never fails, it returns fallback text instead.
type Enricher interface {
	Enrich(ctx context.Context, vars map[string]any) (process, advice string)
}

// Options tune retention and leaderboard rendering.
type Options struct {
	CacheDays       int      // cache retention window, default 7
	HistoryKeepDays int      // history retention, 0 = keep forever
	WindowDays      int      // stats/history trailing window, default 30
	Medals          []string // leaderboard medals for the top ranks
}

func (o Options) withDefaults() Options {
	if o.CacheDays <= 0 {
		o.CacheDays = 7
	}
	if o.WindowDays <= 0 {
		o.WindowDays = 30
	}
	if len(o.Medals) == 0 {
		o.Medals = []string{"🥇", "🥈", "🥉"}
	}
	return o
}

// Service owns the daily cache, the history log and the in-flight guard.
// All state is private to the service; command handlers get it injected.
type Service struct {
	mu       sync.Mutex
	inflight map[string]struct{}

	store  *store.Store
	gen    *generator.Generator
	table  domain.TierTable
	enrich Enricher
	log    zerolog.Logger
	opts   Options
}

// New wires the service.
func New(st *store.Store, gen *generator.Generator, table domain.TierTable, enrich Enricher, opts Options, log zerolog.Logger) *Service {
	return &Service{
		inflight: make(map[string]struct{}),
		store:    st,
		gen:      gen,
		table:    table,
		enrich:   enrich,
		log:      log,
		opts:     opts.withDefaults(),
	}
}

// Lookup returns the cached record for (user, day). Pure read.
func (s *Service) Lookup(userID string, day time.Time) (*domain.FortuneRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Fortune(domain.DayKey(day), userID)
}

// Draw is the command-layer entry point. A cached record is returned as-is
// (cached=true). Otherwise the user is marked in-flight — a concurrent
// duplicate gets ErrInFlight immediately rather than queuing — and the
// score is generated, classified, enriched and persisted. The guard is
// cleared on every exit path, including cancellation.
func (s *Service) Draw(ctx context.Context, user domain.UserInfo, day time.Time) (rec *domain.FortuneRecord, cached bool, err error) {
	dayKey := domain.DayKey(day)

	s.mu.Lock()
	if rec, ok := s.store.Fortune(dayKey, user.ID); ok {
		s.mu.Unlock()
		metrics.CacheHits.Inc()
		return rec, true, nil
	}
	if _, busy := s.inflight[user.ID]; busy {
		s.mu.Unlock()
		metrics.DrawsRejectedInFlight.Inc()
		return nil, false, domain.ErrInFlight
	}
	s.inflight[user.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, user.ID)
		s.mu.Unlock()
	}()

	score := s.gen.Score(user.ID, day)
	name, glyph := tier.Classify(s.table, score)

	// The only slow await. Runs outside the lock so unrelated users are
	// not serialized behind one user's text generation.
	process, advice := s.enrich.Enrich(ctx, map[string]any{
		"nickname": user.Nickname,
		"card":     user.Card,
		"title":    user.Title,
		"jrrp":     score,
		"fortune":  name,
	})

	rec = &domain.FortuneRecord{
		UserID:     user.ID,
		Score:      score,
		Tier:       name,
		Glyph:      glyph,
		Process:    process,
		Advice:     advice,
		User:       user,
		ExpireDate: domain.DayKey(day.AddDate(0, 0, s.opts.CacheDays)),
		CreatedAt:  time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A duplicate that slipped past the guard overwrites here: documented
	// last-writer-wins.
	s.store.PutFortune(dayKey, rec)
	s.store.PutHistory(user.ID, domain.HistoryEntry{Date: dayKey, Score: score, Tier: name})
	s.pruneLocked(day)
	s.flush()

	metrics.DrawsComputed.WithLabelValues(s.gen.Algorithm()).Inc()
	s.log.Info().Str("user", user.ID).Str("day", dayKey).Int("jrrp", score).
		Str("fortune", name).Msg("fortune computed")
	return rec, false, nil
}

// DeleteUser removes the user's cache entries and history. With keepToday
// the current day survives in both stores, so self-deletion cannot be used
// to reroll. Idempotent: returns false when there was nothing to delete.
func (s *Service) DeleteUser(userID string, keepToday bool, now time.Time) bool {
	keepDay := ""
	if keepToday {
		keepDay = domain.DayKey(now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removedCache := s.store.DeleteUserFortunes(userID, keepDay)
	removedHistory := s.store.DeleteUserHistory(userID, keepDay)
	if removedCache || removedHistory {
		s.flush()
	}
	return removedCache || removedHistory
}

// Reinitialize clears one (user, day) pair from both stores, returning
// that day to ABSENT so the next draw recomputes. Other days are untouched.
func (s *Service) Reinitialize(userID string, day time.Time) bool {
	dayKey := domain.DayKey(day)

	s.mu.Lock()
	defer s.mu.Unlock()

	removedCache := s.store.DeleteFortune(dayKey, userID)
	removedHistory := s.store.DeleteHistoryEntry(userID, dayKey)
	if removedCache || removedHistory {
		s.flush()
	}
	return removedCache || removedHistory
}

// ResetAll irreversibly clears both stores. Confirmation belongs to the
// command layer, not here.
func (s *Service) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ResetAll()
}

// Prune removes expired cache records and, when history retention is
// configured, history entries older than the retention window. Returns
// counts of removed cache records and history entries.
func (s *Service) Prune(now time.Time) (cacheRemoved, historyRemoved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cacheRemoved, historyRemoved = s.pruneLocked(now)
	if cacheRemoved > 0 || historyRemoved > 0 {
		s.flush()
	}
	return cacheRemoved, historyRemoved
}

func (s *Service) pruneLocked(now time.Time) (int, int) {
	cacheRemoved := s.store.PruneFortunes(domain.DayKey(now))
	historyRemoved := 0
	if s.opts.HistoryKeepDays > 0 {
		cutoff := domain.DayKey(now.AddDate(0, 0, -s.opts.HistoryKeepDays))
		historyRemoved = s.store.PruneHistory(cutoff)
	}
	return cacheRemoved, historyRemoved
}

// Rank returns the day's leaderboard: cached records sorted by score
// descending, ties broken by creation order. A non-empty members set
// restricts the board to those identifiers.
func (s *Service) Rank(day time.Time, members []string) []domain.RankEntry {
	s.mu.Lock()
	recs := s.store.DayFortunes(domain.DayKey(day))
	s.mu.Unlock()

	if len(members) > 0 {
		allowed := make(map[string]struct{}, len(members))
		for _, id := range members {
			allowed[id] = struct{}{}
		}
		filtered := recs[:0]
		for _, rec := range recs {
			if _, ok := allowed[rec.UserID]; ok {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}

	// DayFortunes is creation-ordered; the stable sort preserves that
	// order for equal scores.
	stableSortByScore(recs)

	entries := make([]domain.RankEntry, len(recs))
	for i, rec := range recs {
		entries[i] = domain.RankEntry{Rank: i + 1, Medal: s.medal(i), Record: rec}
	}
	return entries
}

func (s *Service) medal(idx int) string {
	if idx < len(s.opts.Medals) {
		return s.opts.Medals[idx]
	}
	return ""
}

// Stats aggregates the user's history over the trailing window ending at
// now. ErrNoData when the window is empty — never a division by zero.
func (s *Service) Stats(userID string, now time.Time, windowDays int) (domain.Stats, error) {
	entries, err := s.windowHistory(userID, now, windowDays)
	if err != nil {
		return domain.Stats{}, err
	}
	return s.statsOf(entries)
}

// History returns the user's entries in the window, newest first, capped
// at limit, along with their stats. ErrNoData when the window is empty.
func (s *Service) History(userID string, now time.Time, limit int) ([]domain.HistoryEntry, domain.Stats, error) {
	entries, err := s.windowHistory(userID, now, s.opts.WindowDays)
	if err != nil {
		return nil, domain.Stats{}, err
	}
	stats, _ := s.statsOf(entries)

	// windowHistory is date-ascending; reverse for display.
	out := make([]domain.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, stats, nil
}

// WindowDays exposes the configured trailing window for presentation.
func (s *Service) WindowDays() int { return s.opts.WindowDays }

func (s *Service) windowHistory(userID string, now time.Time, windowDays int) ([]domain.HistoryEntry, error) {
	if windowDays <= 0 {
		windowDays = s.opts.WindowDays
	}
	cutoff := domain.DayKey(now.AddDate(0, 0, -windowDays))

	s.mu.Lock()
	all := s.store.History(userID)
	s.mu.Unlock()

	entries := all[:0]
	for _, e := range all {
		if e.Date >= cutoff {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoData
	}
	return entries, nil
}

func (s *Service) statsOf(entries []domain.HistoryEntry) (domain.Stats, error) {
	if len(entries) == 0 {
		return domain.Stats{}, domain.ErrNoData
	}
	stats := domain.Stats{Max: entries[0].Score, Min: entries[0].Score, Count: len(entries)}
	sum := 0
	for _, e := range entries {
		sum += e.Score
		if e.Score > stats.Max {
			stats.Max = e.Score
		}
		if e.Score < stats.Min {
			stats.Min = e.Score
		}
	}
	stats.Average = float64(sum) / float64(len(entries))
	return stats, nil
}

// flush persists both documents. Storage failures are logged and counted,
// never propagated — the in-memory state stays authoritative.
func (s *Service) flush() {
	if err := s.store.SaveFortunes(); err != nil {
		metrics.StoreWriteErrors.Inc()
		s.log.Error().Err(err).Msg("save fortunes document")
	}
	if err := s.store.SaveHistory(); err != nil {
		metrics.StoreWriteErrors.Inc()
		s.log.Error().Err(err).Msg("save history document")
	}
}

// stableSortByScore sorts records by score descending, preserving the
// incoming order for equal scores.
func stableSortByScore(recs []*domain.FortuneRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
}
