package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"skydash.app/internal/core/fetch"
)

// SnapshotResponse is the wire form of a hook snapshot
type SnapshotResponse struct {
	State     fetch.State `json:"state"`
	Data      interface{} `json:"data"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

func snapshotResponse[P, T any](snap fetch.Snapshot[P, T]) SnapshotResponse {
	resp := SnapshotResponse{State: snap.State, Error: snap.Err}
	if snap.HasData {
		resp.Data = snap.Data
	}
	if !snap.UpdatedAt.IsZero() {
		updated := snap.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// load asks the hook for params and waits for that run. Unchanged params
// reuse the previous result unless the client asks for fresh data with
// ?refresh=true. Data is only kept when it came from a successful run for
// these params, so summaries never describe another location or date.
func load[P, T any](c *gin.Context, hook *fetch.Hook[P, T], params P) fetch.Snapshot[P, T] {
	ctx := c.Request.Context()
	var snap fetch.Snapshot[P, T]
	if c.Query("refresh") == "true" {
		snap = hook.Reload(ctx, params)
	} else {
		snap = hook.Load(ctx, params)
	}

	if snap.State != fetch.StateSuccess || !snap.For(params) {
		var zero T
		snap.Data = zero
		snap.HasData = false
	}
	return snap
}
