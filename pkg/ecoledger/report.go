package ecoledger

import (
	"sort"
	"time"
)

// DefaultLeaderboardLimit truncates leaderboard display views.
const DefaultLeaderboardLimit = 10

// Totals is the organization-wide impact summary.
type Totals struct {
	TotalCO2SavedKg float64
	TotalCredits    float64
	UniqueActors    int
}

// ComputeTotals sums the snapshot. An empty snapshot yields zero totals.
func ComputeTotals(entries []Entry) Totals {
	totals := Totals{}
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		totals.TotalCO2SavedKg += entry.CO2SavedKg
		totals.TotalCredits += entry.Credits
		seen[entry.ActorName] = struct{}{}
	}
	totals.UniqueActors = len(seen)
	return totals
}

// LeaderboardRow is one ranked actor with summed credits. Rank uses "min"
// ranking: tied groups share the rank one greater than the count of groups
// with strictly higher credits.
type LeaderboardRow struct {
	Rank      int
	ActorName string
	Credits   float64
}

// Leaderboard groups entries by actor, sums credits, and sorts descending.
// Ties keep first-encountered actor order (stable sort over the grouping
// order, no secondary key). A limit above zero truncates after ranking.
func Leaderboard(entries []Entry, limit int) []LeaderboardRow {
	sums := make(map[string]float64, len(entries))
	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, seen := sums[entry.ActorName]; !seen {
			order = append(order, entry.ActorName)
		}
		sums[entry.ActorName] += entry.Credits
	}

	rows := make([]LeaderboardRow, 0, len(order))
	for _, actor := range order {
		rows = append(rows, LeaderboardRow{ActorName: actor, Credits: sums[actor]})
	}
	sort.SliceStable(rows, func(left, right int) bool {
		return rows[left].Credits > rows[right].Credits
	})
	for index := range rows {
		if index > 0 && rows[index].Credits == rows[index-1].Credits {
			rows[index].Rank = rows[index-1].Rank
			continue
		}
		rows[index].Rank = index + 1
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// RoleTotal is the summed contribution of one role.
type RoleTotal struct {
	Role       Role
	CO2SavedKg float64
	Credits    float64
}

// RoleBreakdown groups entries by role in first-encountered order.
func RoleBreakdown(entries []Entry) []RoleTotal {
	sums := make(map[Role]*RoleTotal, len(roles))
	order := make([]Role, 0, len(roles))
	for _, entry := range entries {
		total, seen := sums[entry.Role]
		if !seen {
			total = &RoleTotal{Role: entry.Role}
			sums[entry.Role] = total
			order = append(order, entry.Role)
		}
		total.CO2SavedKg += entry.CO2SavedKg
		total.Credits += entry.Credits
	}
	rows := make([]RoleTotal, 0, len(order))
	for _, role := range order {
		rows = append(rows, *sums[role])
	}
	return rows
}

// ActivityTotal is the summed credit impact of one activity kind.
type ActivityTotal struct {
	Activity ActivityKind
	Credits  float64
}

// ActivityBreakdown groups entries by activity and sorts descending by
// credits, ties keeping first-encountered activity order. A limit above
// zero yields the top-K most impactful activities.
func ActivityBreakdown(entries []Entry, limit int) []ActivityTotal {
	sums := make(map[ActivityKind]float64, len(activityKinds))
	order := make([]ActivityKind, 0, len(activityKinds))
	for _, entry := range entries {
		if _, seen := sums[entry.Activity]; !seen {
			order = append(order, entry.Activity)
		}
		sums[entry.Activity] += entry.Credits
	}
	rows := make([]ActivityTotal, 0, len(order))
	for _, activity := range order {
		rows = append(rows, ActivityTotal{Activity: activity, Credits: sums[activity]})
	}
	sort.SliceStable(rows, func(left, right int) bool {
		return rows[left].Credits > rows[right].Credits
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// RoleActivityCell is the summed credits for one (role, activity) pair.
type RoleActivityCell struct {
	Role     Role
	Activity ActivityKind
	Credits  float64
}

// RoleActivityMatrix groups entries by (role, activity) pair, including
// every pair with at least one entry, in first-encountered order.
func RoleActivityMatrix(entries []Entry) []RoleActivityCell {
	type pairKey struct {
		role     Role
		activity ActivityKind
	}
	sums := make(map[pairKey]float64, len(entries))
	order := make([]pairKey, 0, len(entries))
	for _, entry := range entries {
		key := pairKey{role: entry.Role, activity: entry.Activity}
		if _, seen := sums[key]; !seen {
			order = append(order, key)
		}
		sums[key] += entry.Credits
	}
	cells := make([]RoleActivityCell, 0, len(order))
	for _, key := range order {
		cells = append(cells, RoleActivityCell{Role: key.role, Activity: key.activity, Credits: sums[key]})
	}
	return cells
}

// TimelinePoint is one calendar date with the running credit total.
type TimelinePoint struct {
	Date              string
	CumulativeCredits float64
}

// CumulativeTimeline truncates timestamps to UTC calendar dates, sums
// credits per date, sorts ascending by date, and prefix-sums the result.
// The cumulative sequence is monotonically non-decreasing by construction.
func CumulativeTimeline(entries []Entry) []TimelinePoint {
	perDate := make(map[string]float64, len(entries))
	for _, entry := range entries {
		date := time.Unix(entry.RecordedUnixUTC, 0).UTC().Format(timelineDateLayout)
		perDate[date] += entry.Credits
	}
	dates := make([]string, 0, len(perDate))
	for date := range perDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]TimelinePoint, 0, len(dates))
	running := 0.0
	for _, date := range dates {
		running += perDate[date]
		points = append(points, TimelinePoint{Date: date, CumulativeCredits: running})
	}
	return points
}

// CoachingContext carries the derived aggregates handed to the external
// advice collaborator.
type CoachingContext struct {
	Role         Role
	TopActivity  ActivityKind
	TotalCredits float64
}

// NewCoachingContext derives the advice inputs for a role from a snapshot.
// It fails with ErrEmptyLedger when there is no data to coach from.
func NewCoachingContext(entries []Entry, role Role) (CoachingContext, error) {
	if len(entries) == 0 {
		return CoachingContext{}, WrapError(errorOperationReport, errorSubjectSnapshot, errorCodeEmpty, ErrEmptyLedger)
	}
	top := ActivityBreakdown(entries, 1)
	return CoachingContext{
		Role:         role,
		TopActivity:  top[0].Activity,
		TotalCredits: ComputeTotals(entries).TotalCredits,
	}, nil
}

const timelineDateLayout = "2006-01-02"
