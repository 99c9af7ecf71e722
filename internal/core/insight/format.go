package insight

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"skydash.app/internal/adapters/backend"
)

const NotAvailable = "N/A"

func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }
func FahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }
func MpsToKmh(mps float64) float64          { return mps * 3.6 }
func MpsToMph(mps float64) float64          { return mps * 2.23694 }
func MpsToKnots(mps float64) float64        { return mps * 1.94384 }
func KpaToHpa(kpa float64) float64          { return kpa * 10 }
func KpaToInHg(kpa float64) float64         { return kpa * 0.2953 }
func KmToMiles(km float64) float64          { return km * 0.621371 }
func MilesToKm(miles float64) float64       { return miles * 1.60934 }

// FormatValue prints v with a fixed number of decimals, or N/A
func FormatValue(v backend.FlexFloat, decimals int) string {
	if !v.Valid || math.IsNaN(v.Value) {
		return NotAvailable
	}
	return strconv.FormatFloat(v.Value, 'f', decimals, 64)
}

// FormatLargeNumber abbreviates thousands and millions with one decimal
func FormatLargeNumber(n float64) string {
	switch {
	case n >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 1, 64) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// FormatDistance prints a distance in km, abbreviated above a thousand
func FormatDistance(km float64) string {
	switch {
	case km > 1e6:
		return fmt.Sprintf("%.2fM km", km/1e6)
	case km > 1e3:
		return fmt.Sprintf("%.2fK km", km/1e3)
	default:
		return fmt.Sprintf("%.0f km", km)
	}
}

// FormatVelocity prints km/h with thousands separators
func FormatVelocity(kmh float64) string {
	return groupThousands(int64(math.Round(kmh))) + " km/h"
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

// Date layouts used for display and backend queries
const (
	DisplayDateLayout  = "Jan 02, 2006"
	FullDateLayout     = "January 02, 2006"
	DateTimeLayout     = "Jan 02, 2006 15:04"
	CompactDateLayout  = "20060102"
	StandardDateLayout = "2006-01-02"
	InvalidDate        = "Invalid Date"
)

// FormatDate parses an ISO date or timestamp and prints it with layout.
// Unparsable input gives "Invalid Date".
func FormatDate(value, layout string) string {
	t, ok := parseISO(value)
	if !ok {
		return InvalidDate
	}
	return t.Format(layout)
}

func FormatDisplayDate(value string) string { return FormatDate(value, DisplayDateLayout) }
func FormatFullDate(value string) string    { return FormatDate(value, FullDateLayout) }
func FormatDateTime(value string) string    { return FormatDate(value, DateTimeLayout) }

// APIDate formats t as YYYY-MM-DD in its own location
func APIDate(t time.Time) string {
	return t.Format(StandardDateLayout)
}

// DaysAgo returns the calendar date n days before now
func DaysAgo(now time.Time, n int) time.Time {
	return now.AddDate(0, 0, -n)
}

// DaysFromNow returns the calendar date n days after now
func DaysFromNow(now time.Time, n int) time.Time {
	return now.AddDate(0, 0, n)
}

// SmartDate prints Today, Yesterday, or the full date
func SmartDate(t, now time.Time) string {
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y1 == y3 && m1 == m3 && d1 == d3 {
		return "Yesterday"
	}
	return t.Format("January 2, 2006")
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	StandardDateLayout,
}

func parseISO(value string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
