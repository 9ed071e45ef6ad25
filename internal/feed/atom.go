// Package feed serializes rendered entries as Atom or as an HTML preview.
package feed

import (
	"bytes"
	"encoding/xml"
	"time"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

type Feed struct {
	Title   string
	FeedURL string
	HomeURL string
	Author  string
	Updated time.Time
	Entries []Entry
}

type Entry struct {
	ID        string
	Link      string
	Title     string
	Published time.Time
	Updated   time.Time
	Content   string

	// Debug is shown only in the HTML preview.
	Debug string
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	ID      string      `xml:"id"`
	Links   []atomLink  `xml:"link"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Author  atomAuthor  `xml:"author"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomText struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type atomEntry struct {
	ID        string   `xml:"id"`
	Link      atomLink `xml:"link"`
	Title     atomText `xml:"title"`
	Published string   `xml:"published"`
	Updated   string   `xml:"updated"`
	Content   atomText `xml:"content"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Atom writes the feed as an Atom 1.0 document. Entries carry no author; the
// feed-level author keeps the document valid.
func (f Feed) Atom() ([]byte, error) {
	doc := atomFeed{
		Xmlns: atomNamespace,
		ID:    f.FeedURL,
		Links: []atomLink{
			{Rel: "self", Href: f.FeedURL},
			{Rel: "alternate", Href: f.HomeURL, Type: "text/html"},
		},
		Title:   f.Title,
		Updated: formatTime(f.Updated),
		Author:  atomAuthor{Name: f.Author},
	}

	for _, entry := range f.Entries {
		doc.Entries = append(doc.Entries, atomEntry{
			ID:        entry.ID,
			Link:      atomLink{Rel: "alternate", Href: entry.Link, Type: "text/html"},
			Title:     atomText{Type: "text", Body: entry.Title},
			Published: formatTime(entry.Published),
			Updated:   formatTime(entry.Updated),
			Content:   atomText{Type: "html", Body: entry.Content},
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}

	buf.WriteString("\n")
	return buf.Bytes(), nil
}
