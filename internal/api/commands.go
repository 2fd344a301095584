package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lucklab/fortuned/internal/domain"
)

// commandResponse is the common response shape: a message the host bot can
// relay verbatim, plus structured data where it exists.
type commandResponse struct {
	Message string                `json:"message"`
	Cached  *bool                 `json:"cached,omitempty"`
	Record  *domain.FortuneRecord `json:"record,omitempty"`
	Entries []domain.RankEntry    `json:"entries,omitempty"`
	History []domain.HistoryEntry `json:"history,omitempty"`
	Stats   *domain.Stats         `json:"stats,omitempty"`
}

type fortuneRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
	Title    string `json:"title"`
}

// handleFortune draws (or replays) the caller's fortune for today.
func (s *Server) handleFortune(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Enabled {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.Disabled()})
		return
	}

	var req fortuneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	user := domain.UserInfo{ID: req.UserID, Nickname: req.Nickname, Card: req.Card, Title: req.Title}
	if user.Nickname == "" {
		user.Nickname = shortName(user.ID)
	}
	if user.Card == "" {
		user.Card = user.Nickname
	}

	rec, cached, err := s.svc.Draw(r.Context(), user, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrInFlight) {
			writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.InFlight(user)})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{
		Message: s.msgs.Result(rec, cached, s.cfg.ShowCached),
		Cached:  &cached,
		Record:  rec,
	})
}

// handleRank returns the day's leaderboard, optionally filtered to a
// comma-separated members set (the host supplies group membership).
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Enabled {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.Disabled()})
		return
	}

	day := time.Now()
	if v := r.URL.Query().Get("day"); v != "" {
		parsed, err := time.Parse(domain.DayFormat, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	var members []string
	if v := r.URL.Query().Get("members"); v != "" {
		members = strings.Split(v, ",")
	}

	entries := s.svc.Rank(day, members)
	display := entries
	if limit := s.cfg.RankDisplayLimit; limit > 0 && len(display) > limit {
		display = display[:limit]
	}

	writeJSON(w, http.StatusOK, commandResponse{
		Message: s.msgs.RankBoard(domain.DayKey(day), display, len(entries), s.cfg.RankDisplayLimit),
		Entries: display,
	})
}

// handleHistory returns a user's recent entries and window stats.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Enabled {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.Disabled()})
		return
	}

	userID := chi.URLParam(r, "userID")
	name := r.URL.Query().Get("name")
	if name == "" {
		name = shortName(userID)
	}

	entries, stats, err := s.svc.History(userID, time.Now(), s.cfg.HistoryDisplayLimit)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			writeJSON(w, http.StatusOK, commandResponse{
				Message: s.msgs.NoHistory(name, s.svc.WindowDays()),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{
		Message: s.msgs.HistoryReport(name, entries, stats),
		History: entries,
		Stats:   &stats,
	})
}

// handleDeleteUser removes a user's data. keep_today=true preserves the
// current day. Missing confirmation is an informational reply, not an error.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	name := r.URL.Query().Get("name")
	if name == "" {
		name = shortName(userID)
	}

	if r.URL.Query().Get("confirm") != ConfirmToken {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.DeleteWarn()})
		return
	}

	keepToday := r.URL.Query().Get("keep_today") == "true"
	if s.svc.DeleteUser(userID, keepToday, time.Now()) {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.DeleteDone(name)})
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.DeleteNothing(name)})
}

type reinitializeRequest struct {
	UserID  string `json:"user_id"`
	Date    string `json:"date"` // YYYY-MM-DD, defaults to today
	Confirm string `json:"confirm"`
}

// handleReinitialize clears one (user, day) record so the next draw
// recomputes. Admin gating is the host framework's concern.
func (s *Server) handleReinitialize(w http.ResponseWriter, r *http.Request) {
	var req reinitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Confirm != ConfirmToken {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.ReinitWarn()})
		return
	}

	day := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(domain.DayFormat, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	name := shortName(req.UserID)
	if s.svc.Reinitialize(req.UserID, day) {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.ReinitDone(name, domain.DayKey(day))})
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.ReinitNothing(name, domain.DayKey(day))})
}

// handleResetAll clears both stores.
func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != ConfirmToken {
		writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.ResetWarn()})
		return
	}
	if err := s.svc.ResetAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info().Msg("all fortune data reset")
	writeJSON(w, http.StatusOK, commandResponse{Message: s.msgs.ResetDone()})
}

// handlePrune drops expired cache records and over-retention history.
func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	cacheRemoved, historyRemoved := s.svc.Prune(time.Now())
	writeJSON(w, http.StatusOK, map[string]int{
		"cache_removed":   cacheRemoved,
		"history_removed": historyRemoved,
	})
}

// shortName builds an anonymous display name: "用户" + id tail.
func shortName(userID string) string {
	tail := userID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "用户" + tail
}
