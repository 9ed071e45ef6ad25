package common

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizeInstanceURL reduces user input to the canonical https://host form
// used as the instance identity.
func NormalizeInstanceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("instance url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid instance url: %w", err)
	}

	if !strings.EqualFold(u.Scheme, "https") {
		return "", fmt.Errorf("instance url must use https, got %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", errors.New("instance url has no host")
	}

	return "https://" + strings.ToLower(host), nil
}

func SignInCallbackURL(baseURL string) string {
	return baseURL + "/sign-in-callback"
}

func TimelineFeedURL(baseURL, feedID string) string {
	return fmt.Sprintf("%s/feed/%s/timeline", baseURL, url.PathEscape(feedID))
}

func ListFeedURL(baseURL, feedID, listID string) string {
	return fmt.Sprintf("%s/feed/%s/list/%s", baseURL, url.PathEscape(feedID), url.PathEscape(listID))
}

func StatusParentURL(baseURL, feedID, statusID string) string {
	return fmt.Sprintf("%s/feed/%s/parent/%s", baseURL, url.PathEscape(feedID), url.PathEscape(statusID))
}

func YouTubeEmbedURL(baseURL, feedID, videoID string) string {
	return fmt.Sprintf("%s/feed/%s/youtube/%s", baseURL, url.PathEscape(feedID), url.PathEscape(videoID))
}
