// Package display derives the per-entry fields of a feed from a status.
package display

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"golang.org/x/net/html"
)

const titleMaxLength = 100

type DisplayStatus struct {
	status      mastodon.Status
	prefs       entity.ResolvedPrefs
	instanceURL string
	location    *time.Location
}

// New wraps status for rendering. instanceURL is the viewer's instance, used
// for local permalinks.
func New(status mastodon.Status, prefs entity.ResolvedPrefs, instanceURL string) *DisplayStatus {
	location, err := time.LoadLocation(prefs.TimeZone)
	if err != nil {
		location = time.UTC
	}

	return &DisplayStatus{
		status:      status,
		prefs:       prefs,
		instanceURL: instanceURL,
		location:    location,
	}
}

// permalinkStatus is the status the entry links to: the boosted one for a
// boost, otherwise the status itself.
func (d *DisplayStatus) permalinkStatus() mastodon.Status {
	if d.status.Reblog != nil {
		return *d.status.Reblog
	}

	return d.status
}

func (d *DisplayStatus) Permalink() string {
	status := d.permalinkStatus()
	if d.prefs.UseLocalURLs && d.instanceURL != "" {
		// Status ids in API responses are local to the viewer's instance.
		return fmt.Sprintf("%s/@%s/%s", d.instanceURL, status.Account.Acct, url.PathEscape(status.ID))
	}

	if status.URL != "" {
		return status.URL
	}

	return status.URI
}

func (d *DisplayStatus) ID() string {
	return d.permalinkStatus().URI
}

func (d *DisplayStatus) CreatedAt() time.Time {
	return d.status.CreatedAt
}

func (d *DisplayStatus) CreatedAtFormatted() string {
	return d.status.CreatedAt.In(d.location).Format("3:04 PM")
}

func (d *DisplayStatus) UpdatedAt() time.Time {
	if d.status.EditedAt != nil {
		return *d.status.EditedAt
	}

	return d.status.CreatedAt
}

func (d *DisplayStatus) TitleAsText() string {
	status := d.status

	var title string
	if status.Reblog != nil {
		title = fmt.Sprintf("↺ %s: %s", DisplayName(status.Reblog.Account), statusTitleText(*status.Reblog))
		if status.Reblog.Poll != nil {
			title += " 📊"
		}
	} else {
		title = statusTitleText(status)
		if status.Poll != nil {
			title += " 📊"
		}
	}

	return fmt.Sprintf("%s: %s", DisplayName(status.Account), title)
}

func statusTitleText(status mastodon.Status) string {
	if status.SpoilerText != "" {
		return truncate(status.SpoilerText)
	}

	if status.Text != "" {
		return truncate(status.Text)
	}

	if text := truncate(firstParagraphText(status.Content)); text != "" {
		return text
	}

	if len(status.MediaAttachments) > 0 {
		attachment := status.MediaAttachments[0]
		if attachment.Description != "" {
			return fmt.Sprintf("[%s: %s]", attachment.Type, truncate(attachment.Description))
		}

		return attachment.Type
	}

	return ""
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) < titleMaxLength {
		return s
	}

	runes := []rune(s)
	return string(runes[:titleMaxLength]) + "…"
}

// firstParagraphText returns the text up to the first closing </p>.
func firstParagraphText(content string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "p" {
				return strings.TrimSpace(b.String())
			}
		}
	}
}

// DisplayName is the account's display name without custom emoji shortcodes,
// or the username when no display name is set.
func DisplayName(account mastodon.Account) string {
	if account.DisplayName == "" {
		return account.Username
	}

	name := account.DisplayName
	if strings.Contains(name, ":") {
		for _, emoji := range account.Emojis {
			name = strings.ReplaceAll(name, ":"+emoji.Shortcode+":", "")
		}
	}

	return name
}
