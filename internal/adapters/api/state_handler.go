package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/core/location"
	"skydash.app/internal/core/theme"
	"skydash.app/pkg/errors"
)

// LocationRequest is the body of location mutations
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Name      string   `json:"name"`
}

func (r LocationRequest) location() location.Location {
	return location.Location{Latitude: *r.Latitude, Longitude: *r.Longitude, Name: r.Name}
}

type LocationsResponse struct {
	Current location.Location   `json:"current"`
	Saved   []location.Location `json:"saved"`
}

type ThemeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type ThemeResponse struct {
	Mode    theme.Mode    `json:"mode"`
	Palette theme.Palette `json:"palette"`
}

type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	Loading       bool          `json:"loading"`
	User          *backend.User `json:"user,omitempty"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
	Expired       bool          `json:"expired"`
}

// getLocation handles GET /api/location
func (s *HTTPServerAdapter) getLocation(c *gin.Context) {
	c.JSON(http.StatusOK, s.locationsResponse())
}

// updateLocation handles PUT /api/location
func (s *HTTPServerAdapter) updateLocation(c *gin.Context) {
	req, ok := s.bindLocation(c)
	if !ok {
		return
	}
	if err := s.locations.Update(c.Request.Context(), req.location()); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.locationsResponse())
}

// locateCurrent handles POST /api/location/current
func (s *HTTPServerAdapter) locateCurrent(c *gin.Context) {
	if _, err := s.locations.CurrentPosition(c.Request.Context()); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.locationsResponse())
}

// addLocation handles POST /api/locations
func (s *HTTPServerAdapter) addLocation(c *gin.Context) {
	req, ok := s.bindLocation(c)
	if !ok {
		return
	}
	if err := s.locations.AddSaved(c.Request.Context(), req.location()); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.locationsResponse())
}

// removeLocation handles DELETE /api/locations
func (s *HTTPServerAdapter) removeLocation(c *gin.Context) {
	req, ok := s.bindLocation(c)
	if !ok {
		return
	}
	if err := s.locations.RemoveSaved(c.Request.Context(), req.location()); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.locationsResponse())
}

func (s *HTTPServerAdapter) bindLocation(c *gin.Context) (LocationRequest, bool) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, errors.NewValidationError("Invalid request format"))
		return req, false
	}
	return req, true
}

func (s *HTTPServerAdapter) locationsResponse() LocationsResponse {
	return LocationsResponse{Current: s.locations.Current(), Saved: s.locations.Saved()}
}

// getTheme handles GET /api/theme
func (s *HTTPServerAdapter) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, ThemeResponse{Mode: s.theme.Mode(), Palette: s.theme.Palette()})
}

// toggleTheme handles POST /api/theme
func (s *HTTPServerAdapter) toggleTheme(c *gin.Context) {
	if _, err := s.theme.Toggle(c.Request.Context()); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ThemeResponse{Mode: s.theme.Mode(), Palette: s.theme.Palette()})
}

// setTheme handles PUT /api/theme
func (s *HTTPServerAdapter) setTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, errors.NewValidationError("Invalid request format"))
		return
	}
	if err := s.theme.Set(c.Request.Context(), theme.Mode(req.Mode)); err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ThemeResponse{Mode: s.theme.Mode(), Palette: s.theme.Palette()})
}

// getSession handles GET /api/session. Tokens never leave the process.
func (s *HTTPServerAdapter) getSession(c *gin.Context) {
	session := s.session.Session()
	c.JSON(http.StatusOK, SessionResponse{
		Authenticated: session.Authenticated,
		Loading:       s.session.Loading(),
		User:          session.User,
		ExpiresAt:     session.ExpiresAt,
		Expired:       session.Expired(s.now()),
	})
}
