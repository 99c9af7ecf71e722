package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

type APODAPI struct {
	r Requester
}

// APOD is one Astronomy Picture of the Day entry
type APOD struct {
	Date         string `json:"date"`
	Title        string `json:"title"`
	Explanation  string `json:"explanation"`
	URL          string `json:"url"`
	HDURL        string `json:"hdurl,omitempty"`
	MediaType    string `json:"mediaType"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Copyright    string `json:"copyright,omitempty"`
}

func (p APOD) IsVideo() bool {
	return p.MediaType == "video"
}

// DisplayImage picks the still image to show: the thumbnail for videos,
// otherwise the regular URL
func (p APOD) DisplayImage() string {
	if p.IsVideo() && p.ThumbnailURL != "" {
		return p.ThumbnailURL
	}
	return p.URL
}

func (a *APODAPI) GetToday(ctx context.Context, thumbs bool) (*APOD, error) {
	var apod APOD
	if err := get(ctx, a.r, "/apod", "", thumbsQuery(thumbs), &apod); err != nil {
		return nil, err
	}
	return &apod, nil
}

func (a *APODAPI) GetByDate(ctx context.Context, date string, thumbs bool) (*APOD, error) {
	var apod APOD
	if err := get(ctx, a.r, "/apod/date/"+url.PathEscape(date), "/apod/date/:date", thumbsQuery(thumbs), &apod); err != nil {
		return nil, err
	}
	return &apod, nil
}

// GetRandom returns count random entries; zero count means one
func (a *APODAPI) GetRandom(ctx context.Context, count int, thumbs bool) ([]APOD, error) {
	if count == 0 {
		count = 1
	}
	query := thumbsQuery(thumbs)
	query.Set("count", strconv.Itoa(count))

	var list apodList
	if err := get(ctx, a.r, "/apod/random", "", query, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func thumbsQuery(thumbs bool) url.Values {
	q := url.Values{}
	q.Set("thumbs", strconv.FormatBool(thumbs))
	return q
}

// apodList accepts a single object where a list is expected
type apodList []APOD

func (l *apodList) UnmarshalJSON(data []byte) error {
	var list []APOD
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single APOD
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = []APOD{single}
	return nil
}
