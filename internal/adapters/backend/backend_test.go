package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/adapters/httpclient"
	"skydash.app/pkg/errors"
)

// fakeRequester records requests and replays canned bodies
type fakeRequester struct {
	requests []httpclient.Request
	body     string
	err      error
}

func (f *fakeRequester) Do(ctx context.Context, r httpclient.Request) (json.RawMessage, error) {
	f.requests = append(f.requests, r)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.body), nil
}

func (f *fakeRequester) last(t *testing.T) httpclient.Request {
	t.Helper()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func TestDecodePayload(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name      string
		body      string
		expected  string
		errorType errors.ErrorType
	}{
		{"Envelope", `{"success":true,"data":{"title":"Pillars"},"message":"ok"}`, "Pillars", errors.ErrorTypeUnknown},
		{"BareObject", `{"title":"Bare"}`, "Bare", errors.ErrorTypeUnknown},
		{"EnvelopeWithoutData", `{"success":true,"title":"Flat"}`, "Flat", errors.ErrorTypeUnknown},
		{"NullData", `{"success":true,"data":null,"title":"Null"}`, "Null", errors.ErrorTypeUnknown},
		{"Unsuccessful", `{"success":false,"message":"Upstream quota exceeded"}`, "", errors.ErrorTypeHTTP},
		{"Empty", ``, "", errors.ErrorTypeDecode},
		{"Malformed", `{"data":`, "", errors.ErrorTypeDecode},
		{"WrongShape", `{"data":{"title":42}}`, "", errors.ErrorTypeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := decodePayload(json.RawMessage(tt.body), &p)

			if tt.errorType == errors.ErrorTypeUnknown {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, p.Title)
				return
			}
			require.Error(t, err)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.errorType, appErr.Type)
		})
	}
}

func TestDecodePayload_UnsuccessfulMessage(t *testing.T) {
	var v map[string]interface{}
	err := decodePayload(json.RawMessage(`{"success":false,"message":"Upstream quota exceeded"}`), &v)
	assert.Equal(t, "Upstream quota exceeded", errors.UserMessage(err, ""))
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		raw   string
		value float64
		valid bool
	}{
		{`12.5`, 12.5, true},
		{`"12.5"`, 12.5, true},
		{`" 7 "`, 7, true},
		{`-3`, -3, true},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"n/a"`, 0, false},
		{`"NaN"`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var f FlexFloat
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			assert.Equal(t, tt.valid, f.Valid)
			assert.Equal(t, tt.value, f.Value)
		})
	}
}

func TestFlexFloat_Marshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A FlexFloat `json:"a"`
		B FlexFloat `json:"b"`
	}{A: Float(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(out))

	assert.Equal(t, 9.0, FlexFloat{}.Or(9))
	assert.Equal(t, "N/A", FlexFloat{}.String())
	assert.Equal(t, "0.25", Float(0.25).String())
}

func TestModulesPropagateErrors(t *testing.T) {
	boom := errors.NewHTTPError(http.StatusBadGateway, "")
	b := New(&fakeRequester{err: boom})
	ctx := context.Background()

	calls := map[string]func() error{
		"weather":    func() error { _, err := b.Weather.GetWeatherData(ctx, WeatherDataParams{}); return err },
		"parameters": func() error { _, err := b.Weather.GetParameters(ctx); return err },
		"storms":     func() error { _, err := b.Geomagnetic.GetStorms(ctx, "a", "b"); return err },
		"asteroids":  func() error { _, err := b.Asteroids.GetFeed(ctx, "a", "b"); return err },
		"events":     func() error { _, err := b.EONET.GetEvents(ctx, EventFilter{}); return err },
		"airquality": func() error { _, err := b.OpenAQ.GetAirQuality(ctx, 1, 2, 0, 0); return err },
		"apod":       func() error { _, err := b.APOD.GetToday(ctx, false); return err },
		"login":      func() error { _, err := b.Auth.Login(ctx, "a@b.co", "pw"); return err },
		"profile":    func() error { _, err := b.Auth.GetProfile(ctx); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.Same(t, boom, call())
		})
	}
}

func TestEventFilter_Values(t *testing.T) {
	assert.Empty(t, EventFilter{}.Values())

	q := EventFilter{Status: "open", Limit: 5, Days: 7, UserLat: 40.7128, UserLon: -74.006}.Values()
	assert.Equal(t, url.Values{
		"status":  {"open"},
		"limit":   {"5"},
		"days":    {"7"},
		"userLat": {"40.7128"},
		"userLon": {"-74.006"},
	}, q)
}
