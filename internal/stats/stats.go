// Package stats derives read-only views from reading items and logs.
// Nothing here touches storage.
package stats

import (
	"math"
	"time"

	"readinghub/internal/clock"
	"readinghub/pkg/models"
)

const (
	StatusCompleted  = "completed"
	StatusReading    = "reading"
	StatusWantToRead = "want-to-read"
)

// percent rounds half up, matching round(x) for non-negative inputs.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)/float64(whole)*100 + 0.5))
}

func ItemProgress(it models.ReadingItem) int {
	return percent(it.CurrentPage, it.TotalPages)
}

func Classify(it models.ReadingItem) string {
	switch {
	case it.TotalPages > 0 && it.CurrentPage >= it.TotalPages:
		return StatusCompleted
	case it.CurrentPage > 0:
		return StatusReading
	default:
		return StatusWantToRead
	}
}

// ItemView is an item with its derived progress and status.
type ItemView struct {
	models.ReadingItem
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

func View(it models.ReadingItem) ItemView {
	return ItemView{ReadingItem: it, Progress: ItemProgress(it), Status: Classify(it)}
}

func ViewAll(items []models.ReadingItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, View(it))
	}
	return out
}

type Summary struct {
	TotalBooks      int `json:"totalBooks"`
	TotalPages      int `json:"totalPages"`
	CurrentPages    int `json:"currentPages"`
	OverallProgress int `json:"overallProgress"`
}

func Summarize(items []models.ReadingItem) Summary {
	s := Summary{TotalBooks: len(items)}
	for _, it := range items {
		s.TotalPages += it.TotalPages
		s.CurrentPages += it.CurrentPage
	}
	s.OverallProgress = percent(s.CurrentPages, s.TotalPages)
	return s
}

type DayTotal struct {
	Date  string `json:"date"`
	Pages int    `json:"pages"`
}

// DailyPages sums pagesRead per day for the days days ending on today,
// oldest first. Days without logs report zero.
func DailyPages(logs []models.ReadingLog, today time.Time, days int) []DayTotal {
	if days <= 0 {
		return []DayTotal{}
	}
	byDay := make(map[string]int, len(logs))
	for _, l := range logs {
		byDay[l.Date] += l.PagesRead
	}
	start := clock.DateOnly(today).AddDate(0, 0, -(days - 1))
	out := make([]DayTotal, 0, days)
	for i := 0; i < days; i++ {
		key := clock.DayKey(start.AddDate(0, 0, i))
		out = append(out, DayTotal{Date: key, Pages: byDay[key]})
	}
	return out
}

type TodayProgress struct {
	Date          string `json:"date"`
	PagesRead     int    `json:"pagesRead"`
	DailyPageGoal int    `json:"dailyPageGoal"`
	Remaining     int    `json:"remaining"`
	GoalMet       bool   `json:"goalMet"`
}

// Today compares the pages logged on today against goal. A zero goal is
// always met.
func Today(logs []models.ReadingLog, today time.Time, goal int) TodayProgress {
	key := clock.DayKey(today)
	p := TodayProgress{Date: key, DailyPageGoal: goal}
	for _, l := range logs {
		if l.Date == key {
			p.PagesRead += l.PagesRead
		}
	}
	p.Remaining = max(0, goal-p.PagesRead)
	p.GoalMet = p.Remaining == 0
	return p
}
