package model

import (
	"net/http"
	"time"
)

// RawResponse is written to the client as is, bypassing the JSON envelope.
type RawResponse struct {
	ContentType  string
	Body         []byte
	LastModified time.Time
}

func (r RawResponse) RawInfo() (string, []byte) {
	return r.ContentType, r.Body
}

func (r RawResponse) HeaderInfo() http.Header {
	header := http.Header{}
	if !r.LastModified.IsZero() {
		header.Set("Last-Modified", r.LastModified.UTC().Format(http.TimeFormat))
	}

	return header
}

// Timeline feed
type TimelineFeedRequest struct {
	FeedID string `uri:"feedId"`

	// Debug and HTML are presence flags: ?debug and ?html enable them.
	Debug *string `form:"debug"`
	HTML  *string `form:"html"`
}

type TimelineFeedResponse = RawResponse

// List feed
type ListFeedRequest struct {
	FeedID string  `uri:"feedId"`
	ListID string  `uri:"listId"`
	Debug  *string `form:"debug"`
	HTML   *string `form:"html"`
}

type ListFeedResponse = RawResponse

// Status parent
type StatusParentRequest struct {
	FeedID   string `uri:"feedId"`
	StatusID string `uri:"statusId"`
}

type StatusParentResponse = RedirectResponse

// YouTube embed
type YouTubeEmbedRequest struct {
	FeedID  string `uri:"feedId"`
	VideoID string `uri:"videoId"`
}

type YouTubeEmbedResponse = RawResponse
