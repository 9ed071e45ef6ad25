package display

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
)

// RenderOptions carry the links that depend on the feed being rendered.
type RenderOptions struct {
	// ParentURL returns the link that resolves the parent of a reply.
	ParentURL func(statusID string) string

	// YouTubeURL returns the embed page for a YouTube video id.
	YouTubeURL func(videoID string) string
}

var statusTemplate = template.Must(template.New("status").Parse(
	`{{if .Reblog}}<div style="opacity:0.5;margin-bottom:0.5em">↺ boosted ` +
		`<a href="{{.Reblog.AccountURL}}" style="color: ` + common.UserLinkColor + `">{{.Reblog.AccountName}}</a></div>` +
		`{{end}}` +
		`{{with .Body}}` +
		`{{if .ParentURL}}<div style="opacity:0.5;margin-bottom:0.5em"><a href="{{.ParentURL}}">In reply to</a></div>{{end}}` +
		`{{.Content}}` +
		`{{range .Attachments}}<p>{{if eq .Type "image"}}` +
		` <a href="{{.URL}}"><img src="{{.PreviewURL}}" alt="{{.Alt}}" class="nnw-nozoom" border="0"/></a>` +
		`{{else if eq .Type "video"}} <video src="{{.URL}}" alt="{{.Alt}}" controls></video>` +
		`{{else if eq .Type "gifv"}} <video src="{{.URL}}" alt="{{.Alt}}" autoplay loop muted></video>` +
		`{{else}} <a href="{{.URL}}">{{.Alt}}</a>{{end}}</p>{{end}}` +
		`{{with .Poll}}<ul>{{range .Options}}<li>{{.Title}}</li>{{end}}</ul>{{end}}` +
		`{{with .Card}}<p><a href="{{.Link}}">{{.Title}}</a></p>{{end}}` +
		`{{end}}` +
		`<p style="opacity:0.5"><a href="{{.Permalink}}">{{.Time}}</a></p>`))

type reblogView struct {
	AccountURL  string
	AccountName string
}

type attachmentView struct {
	Type       string
	URL        string
	PreviewURL string
	Alt        string
}

type cardView struct {
	Link  string
	Title string
}

type bodyView struct {
	ParentURL   string
	Content     template.HTML
	Attachments []attachmentView
	Poll        *mastodon.Poll
	Card        *cardView
}

type statusView struct {
	Reblog    *reblogView
	Body      bodyView
	Permalink string
	Time      string
}

// Render produces the HTML body of a feed entry. Status content comes from the
// instance already sanitized and is embedded as is.
func (d *DisplayStatus) Render(opts RenderOptions) (string, error) {
	view := statusView{
		Permalink: d.Permalink(),
		Time:      d.CreatedAtFormatted(),
	}

	content := d.status
	if d.status.Reblog != nil {
		content = *d.status.Reblog
		view.Reblog = &reblogView{
			AccountURL:  content.Account.URL,
			AccountName: DisplayName(content.Account),
		}
	}

	view.Body = newBodyView(content, opts)

	var buf bytes.Buffer
	if err := statusTemplate.Execute(&buf, view); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func newBodyView(status mastodon.Status, opts RenderOptions) bodyView {
	body := bodyView{
		Content: template.HTML(unwrapParagraphs(status.Content)),
		Poll:    status.Poll,
	}

	if status.InReplyToID != "" && opts.ParentURL != nil {
		body.ParentURL = opts.ParentURL(status.ID)
	}

	for _, attachment := range status.MediaAttachments {
		alt := attachment.Description
		if alt == "" {
			alt = attachment.Type
		}

		body.Attachments = append(body.Attachments, attachmentView{
			Type:       attachment.Type,
			URL:        attachment.URL,
			PreviewURL: attachment.PreviewURL,
			Alt:        alt,
		})
	}

	if status.Card != nil && status.Card.URL != "" {
		card := &cardView{Link: status.Card.URL, Title: status.Card.Title}
		if card.Title == "" {
			card.Title = status.Card.URL
		}

		if videoID := YouTubeVideoID(status.Card.URL); videoID != "" && opts.YouTubeURL != nil {
			card.Link = opts.YouTubeURL(videoID)
		}

		body.Card = card
	}

	return body
}

// unwrapParagraphs replaces paragraph markup with line breaks so that readers
// do not add margins around the post.
func unwrapParagraphs(content string) string {
	if strings.HasPrefix(content, "<p>") && strings.HasSuffix(content, "</p>") {
		content = content[len("<p>") : len(content)-len("</p>")]
		content = strings.ReplaceAll(content, "</p><p>", "<br><br>")
	}

	return content
}

// YouTubeVideoID extracts the video id from a youtube.com or youtu.be link.
func YouTubeVideoID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	var id string
	switch strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") {
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		} else if strings.HasPrefix(u.Path, "/shorts/") {
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}

	if !IsValidVideoID(id) {
		return ""
	}

	return id
}

func IsValidVideoID(id string) bool {
	if id == "" {
		return false
	}

	for _, r := range id {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}

	return true
}
