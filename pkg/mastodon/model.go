package mastodon

import "time"

type Application struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type Account struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Acct        string  `json:"acct"`
	DisplayName string  `json:"display_name"`
	URL         string  `json:"url"`
	Avatar      string  `json:"avatar"`
	Emojis      []Emoji `json:"emojis"`
}

type Emoji struct {
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
}

type Status struct {
	ID                 string            `json:"id"`
	URI                string            `json:"uri"`
	URL                string            `json:"url,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	EditedAt           *time.Time        `json:"edited_at,omitempty"`
	Account            Account           `json:"account"`
	Content            string            `json:"content"`
	Text               string            `json:"text,omitempty"`
	SpoilerText        string            `json:"spoiler_text"`
	Visibility         string            `json:"visibility"`
	InReplyToID        string            `json:"in_reply_to_id,omitempty"`
	InReplyToAccountID string            `json:"in_reply_to_account_id,omitempty"`
	Reblog             *Status           `json:"reblog,omitempty"`
	MediaAttachments   []MediaAttachment `json:"media_attachments"`
	Poll               *Poll             `json:"poll,omitempty"`
	Card               *Card             `json:"card,omitempty"`
}

type MediaAttachment struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description,omitempty"`
}

type Poll struct {
	ID         string       `json:"id"`
	Expired    bool         `json:"expired"`
	VotesCount int          `json:"votes_count"`
	Options    []PollOption `json:"options"`
}

type PollOption struct {
	Title      string `json:"title"`
	VotesCount *int   `json:"votes_count"`
}

type Card struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Image       string `json:"image,omitempty"`
}

type List struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Context struct {
	Ancestors   []Status `json:"ancestors"`
	Descendants []Status `json:"descendants"`
}
