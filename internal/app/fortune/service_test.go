package fortune_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/app/fortune"
	"github.com/lucklab/fortuned/internal/app/generator"
	"github.com/lucklab/fortuned/internal/app/tier"
	"github.com/lucklab/fortuned/internal/domain"
	"github.com/lucklab/fortuned/internal/infra/store"
)

// stubEnricher returns fixed text. With started/release set it blocks so
// tests can observe the in-flight window.
type stubEnricher struct {
	process, advice string
	started         chan struct{}
	release         chan struct{}
}

func (e *stubEnricher) Enrich(ctx context.Context, vars map[string]any) (string, string) {
	if e.started != nil {
		e.started <- struct{}{}
	}
	if e.release != nil {
		<-e.release
	}
	return e.process, e.advice
}

func testService(t *testing.T, enr fortune.Enricher, opts fortune.Options) (*fortune.Service, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cfg := generator.DefaultConfig()
	cfg.Algorithm = generator.AlgoHash // deterministic for tests
	gen := generator.New(cfg, zerolog.Nop())
	table := tier.Build(tier.DefaultConfig(), zerolog.Nop())
	return fortune.New(st, gen, table, enr, opts, zerolog.Nop()), st
}

var (
	day   = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	alice = domain.UserInfo{ID: "alice", Nickname: "Alice", Card: "Alice"}
)

func TestDraw_ThenLookupIdempotent(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{process: "p", advice: "a"}, fortune.Options{})

	rec, cached, err := svc.Draw(context.Background(), alice, day)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if cached {
		t.Error("first draw reported cached")
	}
	if rec.Score < 0 || rec.Score > 100 {
		t.Fatalf("score %d out of range", rec.Score)
	}
	if rec.Process != "p" || rec.Advice != "a" {
		t.Errorf("enrichment = (%q, %q)", rec.Process, rec.Advice)
	}

	for i := 0; i < 3; i++ {
		got, ok := svc.Lookup("alice", day)
		if !ok {
			t.Fatal("lookup missed after draw")
		}
		if got.Score != rec.Score || got.Tier != rec.Tier {
			t.Errorf("lookup = (%d, %s), want (%d, %s)", got.Score, got.Tier, rec.Score, rec.Tier)
		}
	}

	again, cached, err := svc.Draw(context.Background(), alice, day)
	if err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if !cached {
		t.Error("second draw recomputed instead of replaying the cache")
	}
	if again.Score != rec.Score {
		t.Errorf("cached score = %d, want %d", again.Score, rec.Score)
	}
}

func TestDraw_TierMatchesScore(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})

	rec, _, err := svc.Draw(context.Background(), alice, day)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	table := tier.Build(tier.DefaultConfig(), zerolog.Nop())
	name, glyph := tier.Classify(table, rec.Score)
	if rec.Tier != name || rec.Glyph != glyph {
		t.Errorf("record tier = (%s, %s), classifier says (%s, %s)", rec.Tier, rec.Glyph, name, glyph)
	}
}

func TestDraw_DuplicateInFlightRejected(t *testing.T) {
	enr := &stubEnricher{
		process: "p", advice: "a",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc, _ := testService(t, enr, fortune.Options{})

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Draw(context.Background(), alice, day)
		done <- err
	}()

	<-enr.started // first draw is now inside the slow enrichment step

	if _, _, err := svc.Draw(context.Background(), alice, day); !errors.Is(err, domain.ErrInFlight) {
		t.Errorf("duplicate draw err = %v, want ErrInFlight", err)
	}

	close(enr.release)
	if err := <-done; err != nil {
		t.Fatalf("first draw: %v", err)
	}

	// Guard must be cleared once the draw finishes.
	if _, cached, err := svc.Draw(context.Background(), alice, day); err != nil || !cached {
		t.Errorf("post-draw query = (cached=%v, err=%v), want cache hit", cached, err)
	}
}

func TestReinitialize_RoundTrip(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})

	if _, _, err := svc.Draw(context.Background(), alice, day); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if !svc.Reinitialize("alice", day) {
		t.Fatal("reinitialize found nothing to clear")
	}
	if _, ok := svc.Lookup("alice", day); ok {
		t.Fatal("record survived reinitialize")
	}
	if svc.Reinitialize("alice", day) {
		t.Error("second reinitialize reported removals")
	}

	if _, cached, err := svc.Draw(context.Background(), alice, day); err != nil || cached {
		t.Errorf("redraw after reinitialize = (cached=%v, err=%v), want fresh compute", cached, err)
	}
}

func TestDeleteUser_KeepToday(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})

	for i := 3; i >= 0; i-- {
		d := day.AddDate(0, 0, -i)
		if _, _, err := svc.Draw(context.Background(), alice, d); err != nil {
			t.Fatalf("draw day -%d: %v", i, err)
		}
	}

	if !svc.DeleteUser("alice", true, day) {
		t.Fatal("expected deletions")
	}
	if _, ok := svc.Lookup("alice", day); !ok {
		t.Error("today's record was deleted despite keep_today")
	}
	for i := 1; i <= 3; i++ {
		if _, ok := svc.Lookup("alice", day.AddDate(0, 0, -i)); ok {
			t.Errorf("day -%d survived deletion", i)
		}
	}

	entries, _, err := svc.History("alice", day, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].Date != domain.DayKey(day) {
		t.Errorf("history after delete = %+v, want only today", entries)
	}
}

func TestDeleteUser_NothingToDelete(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})
	if svc.DeleteUser("ghost", false, day) {
		t.Error("deleting an absent user reported removals")
	}
}

func TestRank_OrderingAndStability(t *testing.T) {
	svc, st := testService(t, &stubEnricher{}, fortune.Options{})

	base := time.Date(2025, 7, 15, 8, 0, 0, 0, time.UTC)
	put := func(id string, score int, offset time.Duration) {
		st.PutFortune(domain.DayKey(day), &domain.FortuneRecord{
			UserID:    id,
			Score:     score,
			Tier:      "吉",
			User:      domain.UserInfo{ID: id, Nickname: id, Card: id},
			CreatedAt: base.Add(offset),
		})
	}
	put("carol", 60, 0)
	put("dave", 90, time.Minute)
	put("erin", 60, 2*time.Minute) // same score as carol, drawn later

	entries := svc.Rank(day, nil)
	want := []string{"dave", "carol", "erin"}
	if len(entries) != len(want) {
		t.Fatalf("len = %d, want %d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].Record.UserID != id {
			t.Errorf("rank %d = %s, want %s", i+1, entries[i].Record.UserID, id)
		}
	}
	if entries[0].Medal != "🥇" || entries[1].Medal != "🥈" {
		t.Errorf("medals = %s %s", entries[0].Medal, entries[1].Medal)
	}
}

func TestRank_MemberFilter(t *testing.T) {
	svc, st := testService(t, &stubEnricher{}, fortune.Options{})
	for _, id := range []string{"a", "b", "c"} {
		st.PutFortune(domain.DayKey(day), &domain.FortuneRecord{
			UserID: id, Score: 50, User: domain.UserInfo{ID: id}, CreatedAt: time.Now(),
		})
	}

	entries := svc.Rank(day, []string{"a", "c"})
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Record.UserID == "b" {
			t.Error("filtered-out member appeared on the board")
		}
	}
}

func TestStats_EmptyHistory(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})
	if _, err := svc.Stats("ghost", day, 30); !errors.Is(err, domain.ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestStats_Window(t *testing.T) {
	svc, st := testService(t, &stubEnricher{}, fortune.Options{})
	st.PutHistory("alice", domain.HistoryEntry{Date: "2025-05-01", Score: 5})  // outside window
	st.PutHistory("alice", domain.HistoryEntry{Date: "2025-07-10", Score: 40})
	st.PutHistory("alice", domain.HistoryEntry{Date: "2025-07-14", Score: 80})

	stats, err := svc.Stats("alice", day, 30)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 2 || stats.Max != 80 || stats.Min != 40 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Average != 60 {
		t.Errorf("average = %v, want 60", stats.Average)
	}
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	svc, st := testService(t, &stubEnricher{}, fortune.Options{})
	for i := 0; i < 5; i++ {
		d := domain.DayKey(day.AddDate(0, 0, -i))
		st.PutHistory("alice", domain.HistoryEntry{Date: d, Score: 50 + i})
	}

	entries, _, err := svc.History("alice", day, 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[0].Date != domain.DayKey(day) {
		t.Errorf("first entry = %s, want newest", entries[0].Date)
	}
	if entries[0].Date < entries[1].Date || entries[1].Date < entries[2].Date {
		t.Error("entries not in newest-first order")
	}
}

func TestPrune_ExpiredRecordsAndRetainedHistory(t *testing.T) {
	svc, st := testService(t, &stubEnricher{}, fortune.Options{CacheDays: 7, HistoryKeepDays: 30})

	old := &domain.FortuneRecord{
		UserID:     "alice",
		Score:      77,
		User:       alice,
		ExpireDate: domain.DayKey(day.AddDate(0, 0, -2)),
		CreatedAt:  day.AddDate(0, 0, -9),
	}
	st.PutFortune(domain.DayKey(day.AddDate(0, 0, -9)), old)
	st.PutHistory("alice", domain.HistoryEntry{Date: domain.DayKey(day.AddDate(0, 0, -40)), Score: 1})
	st.PutHistory("alice", domain.HistoryEntry{Date: domain.DayKey(day.AddDate(0, 0, -1)), Score: 2})

	cacheRemoved, historyRemoved := svc.Prune(day)
	if cacheRemoved != 1 {
		t.Errorf("cacheRemoved = %d, want 1", cacheRemoved)
	}
	if historyRemoved != 1 {
		t.Errorf("historyRemoved = %d, want 1", historyRemoved)
	}
}

func TestResetAll(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})
	if _, _, err := svc.Draw(context.Background(), alice, day); err != nil {
		t.Fatal(err)
	}
	if err := svc.ResetAll(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok := svc.Lookup("alice", day); ok {
		t.Error("record survived reset")
	}
	if _, err := svc.Stats("alice", day, 30); !errors.Is(err, domain.ErrNoData) {
		t.Error("history survived reset")
	}
}

// History only grows as days pass; a repeat query on the same day adds
// nothing because the cache answers it.
func TestHistory_AppendOnlyAcrossDays(t *testing.T) {
	svc, _ := testService(t, &stubEnricher{}, fortune.Options{})

	for i := 0; i < 3; i++ {
		d := day.AddDate(0, 0, i)
		if _, _, err := svc.Draw(context.Background(), alice, d); err != nil {
			t.Fatal(err)
		}
		if _, _, err := svc.Draw(context.Background(), alice, d); err != nil {
			t.Fatal(err) // cached replay
		}
		entries, _, err := svc.History("alice", d, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != i+1 {
			t.Fatalf("after day %d: len = %d, want %d", i, len(entries), i+1)
		}
	}
}
