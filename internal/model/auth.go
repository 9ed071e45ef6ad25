package model

import (
	"net/http"
)

// Redirect is returned by every action that ends in a 302 to another page.
type RedirectResponse struct {
	URL string `json:"-"`
}

func (r RedirectResponse) RedirectInfo() (int, string) {
	return http.StatusFound, r.URL
}

// Sign in
type SignInRequest struct {
	InstanceURL string `form:"instance_url"`
}

type SignInResponse = RedirectResponse

// Sign in callback
type SignInCallbackRequest struct {
	Code  string `form:"code"`
	State string `form:"state"`

	// Error is set by the instance when the user denied access.
	Error string `form:"error"`
}

type SignInCallbackResponse = RedirectResponse

// Sign out
type SignOutRequest struct{}

type SignOutResponse = RedirectResponse

// Reset feed id
type ResetFeedIDRequest struct{}

type ResetFeedIDResponse = RedirectResponse

// Update preferences
type UpdatePrefsRequest struct {
	TimeZone     string `form:"time_zone"`
	UseLocalURLs string `form:"use_local_urls"`
}

type UpdatePrefsResponse = RedirectResponse
