package api

import "net/http"

type headerOpt struct {
	name  string
	value string
}

// OAuth2 authorizes the request with a token of the given type, usually Bearer.
func OAuth2(tokenType, token string) Opt {
	return headerOpt{name: "Authorization", value: tokenType + " " + token}
}

func Accept(mediaType string) Opt {
	return headerOpt{name: "Accept", value: mediaType}
}

func (o headerOpt) Do(req *http.Request) {
	req.Header.Set(o.name, o.value)
}
