package validation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxRadiusMeters caps air quality search radius at 100km.
	MaxRadiusMeters = 100000

	// DateLayout is the YYYY-MM-DD form the backend expects.
	DateLayout = "2006-01-02"
)

var structValidator = validator.New()

// Struct validates a tagged request struct (`validate:"required,email"` etc.).
func Struct(s interface{}) error {
	return structValidator.Struct(s)
}

// ValidLatitude accepts values in [-90, 90]; NaN and infinities are rejected
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude accepts values in [-180, 180]
func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

// ValidCoordinates validates a latitude/longitude pair
func ValidCoordinates(lat, lon float64) bool {
	return ValidLatitude(lat) && ValidLongitude(lon)
}

// ParseCoordinate parses user input the way a form field would be read.
func ParseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ValidDateRange accepts start <= end when both parse as dates
func ValidDateRange(start, end string) bool {
	s, ok := ParseDate(start)
	if !ok {
		return false
	}
	e, ok := ParseDate(end)
	if !ok {
		return false
	}
	return !s.After(e)
}

// ValidRadius accepts 0 < radius <= 100km
func ValidRadius(radius float64) bool {
	return !math.IsNaN(radius) && radius > 0 && radius <= MaxRadiusMeters
}

// IsNotEmpty checks if string is not empty after trimming
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
