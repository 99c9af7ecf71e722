// Package backend holds one typed module per backend resource. Modules build
// requests, hand them to the HTTP client, and parse the JSON envelope into
// typed schemas. They never validate input and never catch errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"skydash.app/internal/adapters/httpclient"
	"skydash.app/pkg/errors"
)

// Requester is the slice of the HTTP client the modules depend on
type Requester interface {
	Do(ctx context.Context, r httpclient.Request) (json.RawMessage, error)
}

// Backend groups the resource modules behind one value
type Backend struct {
	Weather     *WeatherAPI
	Geomagnetic *GeomagneticAPI
	Asteroids   *AsteroidsAPI
	EONET       *EONETAPI
	OpenAQ      *OpenAQAPI
	APOD        *APODAPI
	Auth        *AuthAPI
}

func New(r Requester) *Backend {
	return &Backend{
		Weather:     &WeatherAPI{r: r},
		Geomagnetic: &GeomagneticAPI{r: r},
		Asteroids:   &AsteroidsAPI{r: r},
		EONET:       &EONETAPI{r: r},
		OpenAQ:      &OpenAQAPI{r: r},
		APOD:        &APODAPI{r: r},
		Auth:        &AuthAPI{r: r},
	}
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// decodePayload unwraps {success, data, message}. A body without a data
// field is the payload itself.
func decodePayload(raw json.RawMessage, target interface{}) error {
	payload, err := unwrap(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return errors.NewDecodeError("unexpected response format from server", err)
	}
	return nil
}

func unwrap(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewDecodeError("empty response from server", nil)
	}
	if trimmed[0] != '{' {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.NewDecodeError("unexpected response format from server", err)
	}
	if env.Success != nil && !*env.Success && len(env.Data) == 0 {
		message := env.Message
		if message == "" {
			message = "Request was not successful"
		}
		return nil, errors.New(errors.ErrorTypeHTTP, message)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return trimmed, nil
	}
	return env.Data, nil
}

// FlexFloat decodes numbers that may arrive as JSON strings. Null, empty
// strings and unparsable text decode to Valid=false.
type FlexFloat struct {
	Value float64
	Valid bool
}

func Float(v float64) FlexFloat {
	return FlexFloat{Value: v, Valid: true}
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.Value = v
	f.Valid = true
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Or returns the value, or fallback when it is missing
func (f FlexFloat) Or(fallback float64) float64 {
	if !f.Valid {
		return fallback
	}
	return f.Value
}

func (f FlexFloat) String() string {
	if !f.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func get(ctx context.Context, r Requester, path, route string, query url.Values, target interface{}) error {
	raw, err := r.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path, Route: route, Query: query})
	if err != nil {
		return err
	}
	return decodePayload(raw, target)
}
