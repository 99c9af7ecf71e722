package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

type EONETAPI struct {
	r Requester
}

// EventFilter narrows EONET queries. Zero fields are not sent.
type EventFilter struct {
	Status  string  `json:"status,omitempty"`
	Limit   int     `json:"limit,omitempty"`
	Days    int     `json:"days,omitempty"`
	Start   string  `json:"start,omitempty"`
	End     string  `json:"end,omitempty"`
	Source  string  `json:"source,omitempty"`
	BBox    string  `json:"bbox,omitempty"`
	UserLat float64 `json:"userLat,omitempty"`
	UserLon float64 `json:"userLon,omitempty"`
	Radius  float64 `json:"radius,omitempty"`
}

// Values renders the non-zero fields as query parameters
func (f EventFilter) Values() url.Values {
	q := url.Values{}
	setString := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	setInt := func(key string, v int) {
		if v != 0 {
			q.Set(key, strconv.Itoa(v))
		}
	}
	setFloat := func(key string, v float64) {
		if v != 0 {
			q.Set(key, formatFloat(v))
		}
	}

	setString("status", f.Status)
	setInt("limit", f.Limit)
	setInt("days", f.Days)
	setString("start", f.Start)
	setString("end", f.End)
	setString("source", f.Source)
	setString("bbox", f.BBox)
	setFloat("userLat", f.UserLat)
	setFloat("userLon", f.UserLon)
	setFloat("radius", f.Radius)
	return q
}

type EventCategory struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
}

type EventSource struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type EventGeometry struct {
	MagnitudeValue FlexFloat       `json:"magnitudeValue"`
	MagnitudeUnit  string          `json:"magnitudeUnit,omitempty"`
	Date           string          `json:"date"`
	Type           string          `json:"type"`
	Coordinates    json.RawMessage `json:"coordinates"`
}

// Point returns longitude and latitude for Point geometries
func (g EventGeometry) Point() (lon, lat float64, ok bool) {
	if g.Type != "" && g.Type != "Point" {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Link        string          `json:"link,omitempty"`
	Closed      *string         `json:"closed"`
	Categories  []EventCategory `json:"categories"`
	Sources     []EventSource   `json:"sources,omitempty"`
	Geometry    []EventGeometry `json:"geometry"`
	Distance    FlexFloat       `json:"distance"`
}

// IsOpen reports whether the event has no closing date
func (e Event) IsOpen() bool {
	return e.Closed == nil || *e.Closed == ""
}

// PrimaryCategory returns the first category, if any
func (e Event) PrimaryCategory() (EventCategory, bool) {
	if len(e.Categories) == 0 {
		return EventCategory{}, false
	}
	return e.Categories[0], true
}

// LatestGeometry returns the first reported geometry, if any
func (e Event) LatestGeometry() (EventGeometry, bool) {
	if len(e.Geometry) == 0 {
		return EventGeometry{}, false
	}
	return e.Geometry[0], true
}

type EventList struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Events      []Event `json:"events"`
}

type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

type GeoJSONFeature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
}

type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// GetCategories accepts either a bare list or {categories: [...]}
func (a *EONETAPI) GetCategories(ctx context.Context) ([]EventCategory, error) {
	var payload categoryList
	if err := get(ctx, a.r, "/eonet/categories", "", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (a *EONETAPI) GetEvents(ctx context.Context, filter EventFilter) (*EventList, error) {
	return a.events(ctx, "/eonet/events", "", filter)
}

func (a *EONETAPI) GetEventsGeoJSON(ctx context.Context, filter EventFilter) (*GeoJSONFeatureCollection, error) {
	var fc GeoJSONFeatureCollection
	if err := get(ctx, a.r, "/eonet/events/geojson", "", filter.Values(), &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (a *EONETAPI) GetEventsByCategory(ctx context.Context, categoryID string, filter EventFilter) (*EventList, error) {
	return a.events(ctx, "/eonet/events/category/"+url.PathEscape(categoryID), "/eonet/events/category/:id", filter)
}

// GetRegionalEvents expects either BBox or UserLat/UserLon in the filter
func (a *EONETAPI) GetRegionalEvents(ctx context.Context, filter EventFilter) (*EventList, error) {
	return a.events(ctx, "/eonet/events/regional", "", filter)
}

func (a *EONETAPI) events(ctx context.Context, path, route string, filter EventFilter) (*EventList, error) {
	var list EventList
	if err := get(ctx, a.r, path, route, filter.Values(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

type categoryList []EventCategory

func (c *categoryList) UnmarshalJSON(data []byte) error {
	var list []EventCategory
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}
	var wrapped struct {
		Categories []EventCategory `json:"categories"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*c = wrapped.Categories
	return nil
}

// UnmarshalJSON also accepts a bare array of events
func (l *EventList) UnmarshalJSON(data []byte) error {
	var events []Event
	if err := json.Unmarshal(data, &events); err == nil {
		*l = EventList{Events: events}
		return nil
	}
	type plain EventList
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = EventList(p)
	return nil
}
