package model

import "github.com/streamspigot/mastofeeder/internal/entity"

type GetAccountRequest struct{}

type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Avatar      string `json:"avatar"`
}

type GetAccountResponse struct {
	SignedIn        bool                  `json:"signed_in"`
	User            *Account              `json:"user,omitempty"`
	Prefs           *entity.ResolvedPrefs `json:"prefs,omitempty"`
	TimelineFeedURL string                `json:"timeline_feed_url,omitempty"`
	ContactEmail    string                `json:"contact_email,omitempty"`
}
