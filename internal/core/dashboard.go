package core

import (
	"math"
	"sort"
	"time"
)

const (
	mostVisitedLimit = 5
	recentLimit      = 10
)

// DashboardCalculator computes usage aggregates for the parent dashboard.
// This service is the single source of truth for ALL time accounting:
// - How much time has a child consumed today?
// - How much time remains against the daily limit?
// - How does usage break down by site and category?
//
// It is a pure function of its inputs: callers fetch activity records and
// pass them in, the calculator never performs I/O.
type DashboardCalculator struct {
	timezone *time.Location
}

// SiteUsage is total duration accumulated for one app/site name.
type SiteUsage struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// CategoryUsage is total duration and share-of-total for one category.
// Percentages round independently, so entries may not sum to exactly 100.
type CategoryUsage struct {
	Category   string `json:"category"`
	Duration   int    `json:"duration"`
	Percentage int    `json:"percentage"`
}

// DailySummary is the computed dashboard view for one child. It is
// recomputed per request and never persisted.
type DailySummary struct {
	TotalTimeToday    int
	RemainingTime     int
	WeeklyAverage     float64
	MostVisitedSites  []SiteUsage
	CategoryBreakdown []CategoryUsage
	RecentActivities  []*Activity
}

// DayBucket is one calendar day's aggregated duration and record count
// in a time-series view. Days with no activity still appear with zeros.
type DayBucket struct {
	Date      time.Time
	TotalTime int
	Count     int
}

// NewDashboardCalculator creates a calculator for the given timezone.
// Day boundaries follow this timezone; nil falls back to UTC.
func NewDashboardCalculator(timezone *time.Location) *DashboardCalculator {
	if timezone == nil {
		timezone = time.UTC
	}
	return &DashboardCalculator{timezone: timezone}
}

// StartOfDay normalizes an instant to midnight of its calendar day in the
// configured timezone.
func (c *DashboardCalculator) StartOfDay(t time.Time) time.Time {
	inTZ := t.In(c.timezone)
	year, month, day := inTZ.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, c.timezone)
}

// DailySummary computes the full dashboard summary for one child from its
// activity records and configured daily limit.
//
// Today's total counts records with timestamps in [midnight, midnight+24h).
// Remaining time floors at zero, even when the limit is exceeded or the
// caller passes a non-positive limit.
//
// The weekly average covers the 7 days strictly before today and divides
// by the number of days that had at least one record, not by 7. Days the
// child was fully offline don't drag the average down.
func (c *DashboardCalculator) DailySummary(activities []*Activity, dailyLimit int, now time.Time) *DailySummary {
	today := c.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -7)

	totalToday := 0
	dayTotals := make(map[string]int)

	for _, a := range activities {
		ts := a.Timestamp.In(c.timezone)
		if !ts.Before(today) && ts.Before(tomorrow) {
			totalToday += a.Duration
		}
		if !ts.Before(weekStart) && ts.Before(today) {
			dayTotals[c.StartOfDay(ts).Format("2006-01-02")] += a.Duration
		}
	}

	remaining := dailyLimit - totalToday
	if remaining < 0 {
		remaining = 0
	}

	weeklyAverage := 0.0
	if len(dayTotals) > 0 {
		sum := 0
		for _, minutes := range dayTotals {
			sum += minutes
		}
		weeklyAverage = float64(sum) / float64(len(dayTotals))
	}

	return &DailySummary{
		TotalTimeToday:    totalToday,
		RemainingTime:     remaining,
		WeeklyAverage:     weeklyAverage,
		MostVisitedSites:  c.mostVisitedSites(activities),
		CategoryBreakdown: c.categoryBreakdown(activities),
		RecentActivities:  c.recentActivities(activities),
	}
}

// TimeSeries buckets activity records into one entry per calendar day over
// the trailing window. It returns exactly windowDays+1 buckets in
// chronological order, spanning [today-windowDays .. today] inclusive.
// Empty days are present with zero values, never omitted.
func (c *DashboardCalculator) TimeSeries(activities []*Activity, windowDays int, now time.Time) []DayBucket {
	if windowDays < 0 {
		windowDays = 0
	}

	start := c.StartOfDay(now).AddDate(0, 0, -windowDays)

	buckets := make([]DayBucket, windowDays+1)
	index := make(map[string]int, windowDays+1)
	for i := range buckets {
		date := start.AddDate(0, 0, i)
		buckets[i] = DayBucket{Date: date}
		index[date.Format("2006-01-02")] = i
	}

	for _, a := range activities {
		key := c.StartOfDay(a.Timestamp).Format("2006-01-02")
		if i, ok := index[key]; ok {
			buckets[i].TotalTime += a.Duration
			buckets[i].Count++
		}
	}

	return buckets
}

// ActivitySummary aggregates all of a child's records by type and category.
type ActivitySummary struct {
	TotalActivities int
	TotalDuration   int
	ByType          []TypeUsage
	ByCategory      []CategoryUsage
}

// TypeUsage is total duration accumulated for one activity type.
type TypeUsage struct {
	Type     string `json:"type"`
	Duration int    `json:"duration"`
}

// Summary computes totals by activity type and category over all records.
func (c *DashboardCalculator) Summary(activities []*Activity) *ActivitySummary {
	totalDuration := 0
	typeTotals := make(map[string]int)
	for _, a := range activities {
		totalDuration += a.Duration
		typeTotals[a.Type] += a.Duration
	}

	byType := make([]TypeUsage, 0, len(typeTotals))
	for typ, duration := range typeTotals {
		byType = append(byType, TypeUsage{Type: typ, Duration: duration})
	}
	sort.Slice(byType, func(i, j int) bool {
		if byType[i].Duration != byType[j].Duration {
			return byType[i].Duration > byType[j].Duration
		}
		return byType[i].Type < byType[j].Type
	})

	return &ActivitySummary{
		TotalActivities: len(activities),
		TotalDuration:   totalDuration,
		ByType:          byType,
		ByCategory:      c.categoryBreakdown(activities),
	}
}

// mostVisitedSites sums all historical records by name and returns the
// top entries by duration.
func (c *DashboardCalculator) mostVisitedSites(activities []*Activity) []SiteUsage {
	totals := make(map[string]int)
	for _, a := range activities {
		totals[a.Name] += a.Duration
	}

	sites := make([]SiteUsage, 0, len(totals))
	for name, duration := range totals {
		sites = append(sites, SiteUsage{Name: name, Duration: duration})
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Duration != sites[j].Duration {
			return sites[i].Duration > sites[j].Duration
		}
		return sites[i].Name < sites[j].Name
	})

	if len(sites) > mostVisitedLimit {
		sites = sites[:mostVisitedLimit]
	}
	return sites
}

// categoryBreakdown sums all historical records by category and computes
// each category's rounded share of the total. A zero total yields 0%.
func (c *DashboardCalculator) categoryBreakdown(activities []*Activity) []CategoryUsage {
	totals := make(map[string]int)
	grandTotal := 0
	for _, a := range activities {
		category := a.CategoryOrOther()
		totals[category] += a.Duration
		grandTotal += a.Duration
	}

	breakdown := make([]CategoryUsage, 0, len(totals))
	for category, duration := range totals {
		percentage := 0
		if grandTotal > 0 {
			percentage = int(math.Round(float64(duration) / float64(grandTotal) * 100))
		}
		breakdown = append(breakdown, CategoryUsage{
			Category:   category,
			Duration:   duration,
			Percentage: percentage,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Duration != breakdown[j].Duration {
			return breakdown[i].Duration > breakdown[j].Duration
		}
		return breakdown[i].Category < breakdown[j].Category
	})

	return breakdown
}

// recentActivities returns the most recent records by timestamp, newest
// first. The input slice is not modified.
func (c *DashboardCalculator) recentActivities(activities []*Activity) []*Activity {
	recent := make([]*Activity, len(activities))
	copy(recent, activities)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})

	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return recent
}
