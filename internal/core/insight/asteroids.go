// Package insight derives dashboard summaries from backend payloads:
// closest asteroids, severity levels, hourly series and display formatting.
package insight

import (
	"sort"
	"strings"

	"skydash.app/internal/adapters/backend"
)

// MissingDistanceKm ranks asteroids without a miss distance last
const MissingDistanceKm = 999999999

const (
	SortNone     = "none"
	SortName     = "name"
	SortSize     = "size"
	SortVelocity = "velocity"
)

const (
	HazardColor = "#f44336"
	SafeColor   = "#4caf50"
)

// AllAsteroids flattens the feed in date order
func AllAsteroids(feed *backend.AsteroidFeed) []backend.Asteroid {
	if feed == nil {
		return nil
	}
	var all []backend.Asteroid
	for _, date := range sortedDates(feed) {
		all = append(all, feed.AsteroidsByDate[date]...)
	}
	return all
}

// ClosestAsteroids returns up to n asteroids ordered by miss distance
func ClosestAsteroids(feed *backend.AsteroidFeed, n int) []backend.Asteroid {
	all := AllAsteroids(feed)
	sort.SliceStable(all, func(i, j int) bool {
		return missDistanceKm(all[i]) < missDistanceKm(all[j])
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

func missDistanceKm(a backend.Asteroid) float64 {
	d := a.CloseApproachData.MissDistance.Kilometers
	if !d.Valid || d.Value == 0 {
		return MissingDistanceKm
	}
	return d.Value
}

// AsteroidGroup is the asteroids of one approach date
type AsteroidGroup struct {
	Date      string             `json:"date"`
	Asteroids []backend.Asteroid `json:"asteroids"`
}

// FilterSortAsteroids keeps asteroids whose name contains search (case
// insensitive) and orders each date by sortBy. Dates left empty are dropped.
func FilterSortAsteroids(feed *backend.AsteroidFeed, search, sortBy string) []AsteroidGroup {
	if feed == nil {
		return nil
	}
	needle := strings.ToLower(strings.TrimSpace(search))

	var groups []AsteroidGroup
	for _, date := range sortedDates(feed) {
		var matched []backend.Asteroid
		for _, a := range feed.AsteroidsByDate[date] {
			if strings.Contains(strings.ToLower(a.Name), needle) {
				matched = append(matched, a)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sortAsteroids(matched, sortBy)
		groups = append(groups, AsteroidGroup{Date: date, Asteroids: matched})
	}
	return groups
}

func sortAsteroids(list []backend.Asteroid, sortBy string) {
	switch sortBy {
	case SortName:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	case SortSize:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].EstimatedDiameter.Kilometers.Max.Or(0) > list[j].EstimatedDiameter.Kilometers.Max.Or(0)
		})
	case SortVelocity:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CloseApproachData.RelativeVelocity.KilometersPerHour.Or(0) >
				list[j].CloseApproachData.RelativeVelocity.KilometersPerHour.Or(0)
		})
	}
}

type HazardBreakdown struct {
	Safe      int `json:"safe"`
	Hazardous int `json:"hazardous"`
}

func CountHazards(asteroids []backend.Asteroid) HazardBreakdown {
	var b HazardBreakdown
	for _, a := range asteroids {
		if a.IsPotentiallyHazardous {
			b.Hazardous++
		} else {
			b.Safe++
		}
	}
	return b
}

type DailyCount struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Hazardous int    `json:"hazardous"`
}

// DailyAsteroidCounts counts asteroids and hazardous asteroids per date
func DailyAsteroidCounts(feed *backend.AsteroidFeed) []DailyCount {
	if feed == nil {
		return nil
	}
	counts := make([]DailyCount, 0, len(feed.AsteroidsByDate))
	for _, date := range sortedDates(feed) {
		list := feed.AsteroidsByDate[date]
		counts = append(counts, DailyCount{
			Date:      date,
			Count:     len(list),
			Hazardous: CountHazards(list).Hazardous,
		})
	}
	return counts
}

func HazardColorFor(hazardous bool) string {
	if hazardous {
		return HazardColor
	}
	return SafeColor
}

// SizeColor grades the maximum estimated diameter in km
func SizeColor(diameterKm float64) string {
	switch {
	case diameterKm > 1:
		return "#d32f2f"
	case diameterKm > 0.5:
		return "#f57c00"
	case diameterKm > 0.1:
		return "#fbc02d"
	default:
		return "#7cb342"
	}
}

// VelocityColor grades the relative velocity in km/h
func VelocityColor(kmh float64) string {
	switch {
	case kmh > 100000:
		return "#d32f2f"
	case kmh > 75000:
		return "#f57c00"
	case kmh > 50000:
		return "#fbc02d"
	default:
		return "#7cb342"
	}
}

func sortedDates(feed *backend.AsteroidFeed) []string {
	dates := make([]string, 0, len(feed.AsteroidsByDate))
	for date := range feed.AsteroidsByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
