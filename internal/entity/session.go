package entity

import "github.com/streamspigot/mastofeeder/internal/common"

type Session struct {
	SessionID   string `json:"sessionId"`
	FeedID      string `json:"feedId"`
	MastodonID  string `json:"mastodonId"`
	InstanceURL string `json:"instanceUrl"`
	AccessToken string `json:"accessToken"`
	Prefs       *Prefs `json:"prefs,omitempty"`
}

// Prefs are the user-chosen options. Unset fields fall back to the defaults in
// ResolvePrefs.
type Prefs struct {
	TimeZone     *string `json:"timeZone,omitempty"`
	UseLocalURLs *bool   `json:"useLocalUrls,omitempty"`
}

type ResolvedPrefs struct {
	TimeZone     string `json:"time_zone"`
	UseLocalURLs bool   `json:"use_local_urls"`
}

func ResolvePrefs(prefs *Prefs) ResolvedPrefs {
	resolved := ResolvedPrefs{
		TimeZone:     common.DefaultTimeZone,
		UseLocalURLs: false,
	}

	if prefs == nil {
		return resolved
	}

	if prefs.TimeZone != nil && *prefs.TimeZone != "" {
		resolved.TimeZone = *prefs.TimeZone
	}

	if prefs.UseLocalURLs != nil {
		resolved.UseLocalURLs = *prefs.UseLocalURLs
	}

	return resolved
}
