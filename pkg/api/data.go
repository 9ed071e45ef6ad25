package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Parameter is a query string or form body. Empty values are left out.
type Parameter map[string]string

func (p Parameter) ToReader() (io.Reader, string, error) {
	return bytes.NewBufferString(p.Encode()), "application/x-www-form-urlencoded", nil
}

func (p Parameter) Encode() string {
	var parameters []string
	for key, value := range p {
		if value == "" {
			continue
		}
		parameters = append(parameters, url.QueryEscape(key)+"="+percentEncode(value))
	}
	sort.Strings(parameters)
	return strings.Join(parameters, "&")
}

type JSON map[string]any

func (j JSON) ToReader() (io.Reader, string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewBuffer(b), "application/json", nil
}

type Response struct {
	Code    int
	Header  http.Header
	RawBody []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.RawBody) == 0 {
		return fmt.Errorf("empty body with status %d", r.Code)
	}

	if err := json.Unmarshal(r.RawBody, v); err != nil {
		return fmt.Errorf("invalid body with status %d: %w", r.Code, err)
	}

	return nil
}

// percentEncode escapes spaces as %20, which some instances require in query
// values.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
