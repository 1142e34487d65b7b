// Package progress computes derived quit-progress metrics from the user's
// profile and event log: the point-in-time summary, daily and weekly chart
// buckets, and trigger patterns. Everything here is read-and-compute with no
// state of its own, so concurrent calls are safe.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nosmoke/nosmoke-api/internal/events"
	"github.com/nosmoke/nosmoke-api/internal/models"
)

const (
	// streakLookback caps how many recent cigarette events the streak
	// calculation reads; only the newest one matters.
	streakLookback = 100

	dailyBucketCount  = 7
	weeklyBucketCount = 4
)

// ErrZeroPackSize is returned when cigarettes_per_pack is zero, which would
// make the per-cigarette cost undefined. This is a profile configuration
// error, never silently reported as infinite savings.
var ErrZeroPackSize = errors.New("cigarettes_per_pack must be greater than zero")

// ErrInvalidQuitDate is returned when the stored quit_date cannot be parsed.
var ErrInvalidQuitDate = errors.New("invalid quit_date")

// EventReader is the slice of the event log the aggregator needs.
// *events.Store satisfies it.
type EventReader interface {
	FindEvents(ctx context.Context, userID uint, q events.Query) ([]models.Event, error)
}

// Aggregator derives progress metrics from the event log.
type Aggregator struct {
	events EventReader
	now    func() time.Time
}

// NewAggregator creates an aggregator reading from the given event log.
func NewAggregator(events EventReader) *Aggregator {
	return &Aggregator{events: events, now: time.Now}
}

// Summary is the point-in-time progress view.
type Summary struct {
	DaysSmokeFree     int     `json:"days_smoke_free"`
	CurrentStreak     int     `json:"current_streak"`
	CigarettesAvoided int     `json:"cigarettes_avoided"`
	MoneySaved        float64 `json:"money_saved"`
	QuitDate          *string `json:"quit_date"`
}

// DayBucket holds one calendar day's event counts for the weekly chart.
type DayBucket struct {
	Date       string `json:"date"`
	DayName    string `json:"day_name"`
	Cigarettes int    `json:"cigarettes"`
	Urges      int    `json:"urges"`
	Resisted   int    `json:"resisted"`
}

// WeekBucket holds one trailing-week window's event counts.
type WeekBucket struct {
	Week       string `json:"week"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Cigarettes int    `json:"cigarettes"`
	Urges      int    `json:"urges"`
	Resisted   int    `json:"resisted"`
}

// Summary computes days smoke-free, the current streak, cigarettes avoided
// and money saved.
//
// days_smoke_free counts whole days since quit_date (zero if unset, clamped
// at zero if the quit date is in the future). The streak normally equals
// days_smoke_free, but if any cigarette event is logged it counts whole days
// since the most recent one instead — the two metrics diverge after a
// relapse. No filter restricts that lookback to events after quit_date; a
// pre-quit cigarette event also resets the streak, matching the behavior the
// product shipped with.
func (a *Aggregator) Summary(ctx context.Context, user *models.User) (Summary, error) {
	if user.CigarettesPerPack == 0 {
		return Summary{}, ErrZeroPackSize
	}

	now := a.now().UTC()

	daysSmokeFree := 0
	if user.QuitDate != nil && *user.QuitDate != "" {
		quit, err := ParseQuitDate(*user.QuitDate)
		if err != nil {
			return Summary{}, err
		}
		daysSmokeFree = wholeDays(quit, now)
	}

	cigarettesAvoided := daysSmokeFree * user.CigarettesPerDay
	costPerCigarette := user.CostPerPack / float64(user.CigarettesPerPack)
	moneySaved := float64(cigarettesAvoided) * costPerCigarette

	currentStreak := daysSmokeFree
	recent, err := a.events.FindEvents(ctx, user.ID, events.Query{
		EventType: models.EventTypeCigarette,
		Desc:      true,
		Limit:     streakLookback,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load cigarette events: %w", err)
	}
	if len(recent) > 0 {
		currentStreak = wholeDays(recent[0].CreatedAt.UTC(), now)
	}

	return Summary{
		DaysSmokeFree:     clampZero(daysSmokeFree),
		CurrentStreak:     clampZero(currentStreak),
		CigarettesAvoided: clampZero(cigarettesAvoided),
		MoneySaved:        round2(math.Max(0, moneySaved)),
		QuitDate:          user.QuitDate,
	}, nil
}

// Daily returns exactly 7 buckets for the calendar days ending today,
// oldest first, each covering [00:00:00, 23:59:59.999999] UTC inclusive.
func (a *Aggregator) Daily(ctx context.Context, userID uint) ([]DayBucket, error) {
	now := a.now().UTC()

	buckets := make([]DayBucket, 0, dailyBucketCount)
	for i := 0; i < dailyBucketCount; i++ {
		day := now.AddDate(0, 0, -(dailyBucketCount - 1 - i))
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999000, time.UTC)

		evs, err := a.events.FindEvents(ctx, userID, events.Query{Since: &start, Until: &end})
		if err != nil {
			return nil, fmt.Errorf("failed to load events for %s: %w", start.Format("2006-01-02"), err)
		}

		bucket := DayBucket{
			Date:    day.Format("2006-01-02"),
			DayName: day.Format("Mon"),
		}
		tally(evs, &bucket.Cigarettes, &bucket.Urges, &bucket.Resisted)
		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

// Weekly returns exactly 4 buckets for the trailing 7-day windows ending
// now, oldest first, labeled Week 1..Week 4.
func (a *Aggregator) Weekly(ctx context.Context, userID uint) ([]WeekBucket, error) {
	now := a.now().UTC()

	buckets := make([]WeekBucket, 0, weeklyBucketCount)
	for i := 0; i < weeklyBucketCount; i++ {
		end := now.AddDate(0, 0, -7*i)
		start := end.AddDate(0, 0, -7)

		evs, err := a.events.FindEvents(ctx, userID, events.Query{Since: &start, Until: &end})
		if err != nil {
			return nil, fmt.Errorf("failed to load events for week %d: %w", weeklyBucketCount-i, err)
		}

		bucket := WeekBucket{
			Week:      fmt.Sprintf("Week %d", weeklyBucketCount-i),
			StartDate: start.Format("01/02"),
			EndDate:   end.Format("01/02"),
		}
		tally(evs, &bucket.Cigarettes, &bucket.Urges, &bucket.Resisted)
		buckets = append(buckets, bucket)
	}

	// Computed newest-first; return oldest-first for direct charting.
	for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
		buckets[i], buckets[j] = buckets[j], buckets[i]
	}
	return buckets, nil
}

// TriggerCount is one trigger type with its occurrence count.
type TriggerCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// PatternSummary summarizes how often each trigger type occurs.
type PatternSummary struct {
	TotalTriggers int            `json:"total_triggers"`
	ByType        map[string]int `json:"by_type"`
	MostCommon    *string        `json:"most_common"`
	TopTriggers   []TriggerCount `json:"top_triggers"`
}

// TriggerPatterns counts the user's triggers per type and ranks them.
// Ties keep first-encounter order (stable sort).
func TriggerPatterns(triggers []models.Trigger) PatternSummary {
	byType := make(map[string]int)
	var order []string
	for _, t := range triggers {
		if _, seen := byType[t.TriggerType]; !seen {
			order = append(order, t.TriggerType)
		}
		byType[t.TriggerType]++
	}

	ranked := make([]TriggerCount, 0, len(order))
	for _, typ := range order {
		ranked = append(ranked, TriggerCount{Type: typ, Count: byType[typ]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	summary := PatternSummary{
		TotalTriggers: len(triggers),
		ByType:        byType,
		TopTriggers:   ranked,
	}
	if len(ranked) > 5 {
		summary.TopTriggers = ranked[:5]
	}
	if len(ranked) > 0 {
		summary.MostCommon = &summary.TopTriggers[0].Type
	}
	return summary
}

// ParseQuitDate parses a stored quit date, which may be a bare calendar date
// or a full ISO-8601 datetime. Values without an offset are taken as UTC.
func ParseQuitDate(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidQuitDate, value)
}

// wholeDays returns the number of whole days from a to b, negative when b
// precedes a (floor semantics, so -1h is day -1).
func wholeDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

func tally(evs []models.Event, cigarettes, urges, resisted *int) {
	for _, e := range evs {
		switch e.EventType {
		case models.EventTypeCigarette:
			*cigarettes++
		case models.EventTypeUrge:
			*urges++
		case models.EventTypeResisted:
			*resisted++
		}
	}
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
