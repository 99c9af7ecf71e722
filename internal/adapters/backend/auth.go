package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"skydash.app/internal/adapters/httpclient"
)

type AuthAPI struct {
	r Requester
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type ProfileUpdate struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type User struct {
	ID        FlexID `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// FullName joins first and last name
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// AuthTokens is the payload of login and, optionally, register
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// FlexID decodes ids sent either as numbers or strings
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*id = ""
		return nil
	}
	*id = FlexID(n.String())
	return nil
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	raw, err := a.r.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	var tokens AuthTokens
	if err := decodePayload(raw, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Register creates an account. The returned tokens are empty when the
// backend does not log the new user in.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*AuthTokens, error) {
	raw, err := a.r.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}

	var tokens AuthTokens
	if err := decodePayload(raw, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (a *AuthAPI) GetProfile(ctx context.Context) (*User, error) {
	raw, err := a.r.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/auth/profile"})
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// UpdateProfile returns the updated user when the backend echoes it, else nil
func (a *AuthAPI) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	raw, err := a.r.Do(ctx, httpclient.Request{
		Method: http.MethodPut,
		Path:   "/auth/profile",
		Body:   update,
	})
	if err != nil {
		return nil, err
	}

	user, err := decodeUser(raw)
	if err != nil {
		return nil, err
	}
	if user.Email == "" && user.ID == "" {
		return nil, nil
	}
	return user, nil
}

// decodeUser reads {user: {...}} or the user object itself
func decodeUser(raw json.RawMessage) (*User, error) {
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := decodePayload(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.User != nil {
		return wrapped.User, nil
	}

	var user User
	if err := decodePayload(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
