package feed

import (
	"bytes"
	"html/template"
)

var previewTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Entries}}<div style="border-bottom:1px solid #ccc;padding:1em 0">
<h2><a href="{{.Link}}">{{.Title}}</a></h2>
<div>{{.HTML}}</div>
{{if .Debug}}<pre>{{.Debug}}</pre>{{end}}
</div>
{{end}}</body>
</html>
`))

var youTubeTemplate = template.Must(template.New("youtube").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>html,body{margin:0;height:100%;background:#000}iframe{border:0;width:100%;height:100%}</style>
</head>
<body>
<iframe src="https://www.youtube-nocookie.com/embed/{{.}}" allow="autoplay; encrypted-media; picture-in-picture" allowfullscreen></iframe>
</body>
</html>
`))

type previewEntry struct {
	Entry
	HTML template.HTML
}

// HTML renders the feed as a page for checking entries in a browser.
func (f Feed) HTML() ([]byte, error) {
	view := struct {
		Title   string
		Entries []previewEntry
	}{Title: f.Title}

	for _, entry := range f.Entries {
		view.Entries = append(view.Entries, previewEntry{Entry: entry, HTML: template.HTML(entry.Content)})
	}

	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// YouTubeEmbed renders a page that plays one video. videoID must already be
// validated.
func YouTubeEmbed(videoID string) ([]byte, error) {
	var buf bytes.Buffer
	if err := youTubeTemplate.Execute(&buf, videoID); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
