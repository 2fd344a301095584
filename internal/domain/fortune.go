// Package domain defines the core types of the daily-fortune engine.
// Types here are pure data — no infrastructure dependency.
package domain

import "time"

// DayFormat is the calendar-day key used throughout the stores.
const DayFormat = "2006-01-02"

// DayKey returns the calendar-day key for t in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// UserInfo is a snapshot of the caller's identity at draw time.
// Denormalized into the record so leaderboards render without re-fetching.
type UserInfo struct {
	ID       string `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`  // group display name, falls back to nickname
	Title    string `json:"title"` // group role title, often empty
}

// DisplayName returns the best name available for rendering.
func (u UserInfo) DisplayName() string {
	if u.Card != "" {
		return u.Card
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.ID
}

// FortuneRecord is one user's fortune for one calendar day.
// Created exactly once per (user, day); immutable until an explicit
// reinitialize or deletion removes it.
type FortuneRecord struct {
	UserID     string    `json:"user_id"`
	Score      int       `json:"jrrp"`
	Tier       string    `json:"fortune"`
	Glyph      string    `json:"femoji"`
	Process    string    `json:"process,omitempty"`
	Advice     string    `json:"advice,omitempty"`
	User       UserInfo  `json:"user_info"`
	ExpireDate string    `json:"expire_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the record has aged out of the cache window on day.
func (r *FortuneRecord) Expired(day string) bool {
	return r.ExpireDate != "" && r.ExpireDate < day
}

// HistoryEntry is the append-only per-day log record behind trend stats.
type HistoryEntry struct {
	Date  string `json:"date"`
	Score int    `json:"jrrp"`
	Tier  string `json:"fortune"`
}

// Tier is one classification band. Min and Max are inclusive.
type Tier struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

// Contains reports whether score falls in the band.
func (t Tier) Contains(score int) bool {
	return score >= t.Min && score <= t.Max
}

// TierTable is an ordered list of bands. Configured order is the tie-break
// when bands overlap; gaps resolve to the fallback tier.
type TierTable []Tier

// Stats aggregates a user's history over a trailing window.
type Stats struct {
	Average float64 `json:"average"`
	Max     int     `json:"max"`
	Min     int     `json:"min"`
	Count   int     `json:"count"`
}

// RankEntry is one leaderboard row.
type RankEntry struct {
	Rank   int            `json:"rank"`
	Medal  string         `json:"medal"`
	Record *FortuneRecord `json:"record"`
}
