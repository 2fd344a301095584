package render

import (
	"fmt"
	"strings"

	"github.com/lucklab/fortuned/internal/domain"
)

// Templates are the configurable message bodies. Placeholders: {nickname}
// {card} {title} {jrrp} {fortune} {femoji} {process} {advice} {date}
// {ranks} {medal} {rank} {name} {items} {avgjrrp} {maxjrrp} {minjrrp}.
type Templates struct {
	Query     string `toml:"query"`
	Result    string `toml:"result"`
	Detecting string `toml:"detecting"`
	Rank      string `toml:"rank"`
	RankItem  string `toml:"rank_item"`
	History   string `toml:"history"`
	Disabled  string `toml:"disabled"`
}

// DefaultTemplates returns the built-in message bodies.
func DefaultTemplates() Templates {
	return Templates{
		Query:     "📌 今日人品\n[{title}]{card}({nickname})，今天已经查询过了哦~\n今日人品值: {jrrp}\n运势: {fortune} {femoji}",
		Result:    "🔮 {process}\n💎 人品值：{jrrp}\n✨ 运势：{fortune}\n💬 建议：{advice}",
		Detecting: "神秘的能量汇聚，[{title}]{card}({nickname})，你的命运即将显现，正在祈祷中...",
		Rank:      "📊【今日人品排行榜】{date}\n━━━━━━━━━━━━━━━\n{ranks}",
		RankItem:  "{medal} [{title}]{card}: {jrrp} ({fortune})",
		History:   "📚 {name} 的人品历史记录\n{items}\n\n📊 统计信息:\n平均人品值: {avgjrrp}\n最高人品值: {maxjrrp}\n最低人品值: {minjrrp}",
		Disabled:  "今日人品插件已关闭",
	}
}

const sceneRestoreHeader = "\n\n-----以下为今日运势测算场景还原-----\n"

// Messages renders user-facing text from records and templates.
type Messages struct {
	t Templates
}

// NewMessages builds a presenter, filling empty templates with defaults.
func NewMessages(t Templates) *Messages {
	def := DefaultTemplates()
	if t.Query == "" {
		t.Query = def.Query
	}
	if t.Result == "" {
		t.Result = def.Result
	}
	if t.Detecting == "" {
		t.Detecting = def.Detecting
	}
	if t.Rank == "" {
		t.Rank = def.Rank
	}
	if t.RankItem == "" {
		t.RankItem = def.RankItem
	}
	if t.History == "" {
		t.History = def.History
	}
	if t.Disabled == "" {
		t.Disabled = def.Disabled
	}
	return &Messages{t: t}
}

// Disabled is shown when the plugin is switched off.
func (m *Messages) Disabled() string { return m.t.Disabled }

// Detecting is shown while a first draw is being computed.
func (m *Messages) Detecting(user domain.UserInfo) string {
	return Render(m.t.Detecting, userVars(user))
}

// InFlight is shown when a duplicate draw arrives while one is computing.
func (m *Messages) InFlight(user domain.UserInfo) string {
	return fmt.Sprintf("⏳ %s，你的今日人品正在测算中，稍安勿躁~", user.DisplayName())
}

// Result renders a record. A cached record renders the query view and,
// when showCached is set and narrative text exists, the original scene.
func (m *Messages) Result(rec *domain.FortuneRecord, cached, showCached bool) string {
	vars := recordVars(rec)
	if !cached {
		return Render(m.t.Result, vars)
	}
	out := Render(m.t.Query, vars)
	if showCached && rec.Process != "" {
		out += sceneRestoreHeader + Render(m.t.Result, vars)
	}
	return out
}

// RankBoard renders the leaderboard for a day. Display-name columns are
// padded by grapheme width so CJK names and glyphs stay aligned.
func (m *Messages) RankBoard(day string, entries []domain.RankEntry, total, limit int) string {
	if len(entries) == 0 {
		return "📊 今天还没有人查询人品哦~"
	}
	nameWidth := 0
	for _, e := range entries {
		if w := DisplayWidth(e.Record.User.DisplayName()); w > nameWidth {
			nameWidth = w
		}
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		vars := recordVars(e.Record)
		vars["medal"] = e.Medal
		vars["rank"] = e.Rank
		vars["card"] = PadDisplay(e.Record.User.DisplayName(), nameWidth)
		rows = append(rows, Render(m.t.RankItem, vars))
	}
	out := Render(m.t.Rank, map[string]any{
		"date":  day,
		"ranks": strings.Join(rows, "\n"),
	})
	if limit > 0 && total > limit {
		out += fmt.Sprintf("\n\n...共 %d 人已测试", total)
	}
	return out
}

// HistoryReport renders a user's recent entries (newest first) with stats.
func (m *Messages) HistoryReport(name string, entries []domain.HistoryEntry, stats domain.Stats) string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, fmt.Sprintf("%s: %d (%s)", e.Date, e.Score, e.Tier))
	}
	return Render(m.t.History, map[string]any{
		"name":     name,
		"nickname": name,
		"items":    strings.Join(items, "\n"),
		"avgjrrp":  fmt.Sprintf("%.1f", stats.Average),
		"maxjrrp":  stats.Max,
		"minjrrp":  stats.Min,
	})
}

// Destructive-command prompts. Deliberately not templated: the --confirm
// convention is fixed.

func (m *Messages) DeleteWarn() string {
	return "⚠️ 此操作将清除你的所有人品数据！\n如果确定要继续，请使用：/jrrpdelete --confirm"
}

func (m *Messages) DeleteDone(name string) string {
	return fmt.Sprintf("✅ 已清除 %s 的所有人品数据", name)
}

func (m *Messages) DeleteNothing(name string) string {
	return fmt.Sprintf("ℹ️ %s 没有人品数据记录", name)
}

func (m *Messages) ResetWarn() string {
	return "⚠️ 警告：此操作将清除所有人品数据！\n如果确定要继续，请使用：/jrrpreset --confirm"
}

func (m *Messages) ResetDone() string { return "✅ 所有人品数据已清除" }

func (m *Messages) ReinitWarn() string {
	return "⚠️ 此操作将清除该用户当日的人品记录！\n如果确定要继续，请附带 --confirm"
}

func (m *Messages) ReinitDone(name, day string) string {
	return fmt.Sprintf("✅ 已重置 %s 在 %s 的人品记录", name, day)
}

func (m *Messages) ReinitNothing(name, day string) string {
	return fmt.Sprintf("ℹ️ %s 在 %s 没有人品记录", name, day)
}

// NoHistory is shown when the target has no entries in the window.
func (m *Messages) NoHistory(name string, windowDays int) string {
	return fmt.Sprintf("【%s】最近%d天没有人品测试记录", name, windowDays)
}

func userVars(user domain.UserInfo) map[string]any {
	return map[string]any{
		"nickname": user.Nickname,
		"card":     user.Card,
		"title":    user.Title,
	}
}

func recordVars(rec *domain.FortuneRecord) map[string]any {
	vars := userVars(rec.User)
	vars["jrrp"] = rec.Score
	vars["fortune"] = rec.Tier
	vars["femoji"] = rec.Glyph
	vars["process"] = rec.Process
	vars["advice"] = rec.Advice
	vars["date"] = rec.CreatedAt.Format(domain.DayFormat)
	return vars
}
