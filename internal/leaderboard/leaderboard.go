// Package leaderboard serves the ranking board of the PK ladder.
package leaderboard

import (
	"sort"

	"github.com/gofiber/fiber/v2"
)

// Entry is one ladder row. Profit is in whole US dollars.
type Entry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Profit int64  `json:"profit"`
	Score  int    `json:"score"`
}

// Board holds a ranked snapshot of entries.
type Board struct {
	entries []Entry
}

// New ranks entries by profit, highest first; ties keep their input order.
// Ranks are 1-based.
func New(entries []Entry) *Board {
	ranked := append([]Entry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Profit > ranked[j].Profit })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return &Board{entries: ranked}
}

// Static returns the published board.
func Static() *Board {
	return New([]Entry{
		{Name: "金色闪光", Profit: 12450, Score: 985},
		{Name: "量化行者", Profit: 8940, Score: 842},
		{Name: "Hunter_X", Profit: 5420, Score: 710},
		{Name: "趋势之王", Profit: 3210, Score: 650},
		{Name: "复利奇迹", Profit: 2100, Score: 580},
		{Name: "暗影猎手", Profit: 1800, Score: 520},
		{Name: "星空交易", Profit: 1500, Score: 480},
	})
}

// All returns every ranked entry.
func (b *Board) All() []Entry {
	return append([]Entry(nil), b.entries...)
}

// Top returns at most n leading entries.
func (b *Board) Top(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n > len(b.entries) {
		n = len(b.entries)
	}
	return append([]Entry(nil), b.entries[:n]...)
}

// Handler serves GET /leaderboard. The optional limit query caps the rows.
func (b *Board) Handler(c *fiber.Ctx) error {
	entries := b.All()
	if limit := c.QueryInt("limit", 0); limit > 0 {
		entries = b.Top(limit)
	}
	return c.JSON(fiber.Map{"entries": entries})
}
