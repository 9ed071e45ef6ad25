package testutil

import (
	"time"
)

// MockCookieJar is an in-memory session.Jar. Deleted records which cookies
// were removed during the request.
type MockCookieJar struct {
	Values  map[string]string
	MaxAges map[string]time.Duration
	Deleted []string
}

func NewMockCookieJar() *MockCookieJar {
	return &MockCookieJar{
		Values:  map[string]string{},
		MaxAges: map[string]time.Duration{},
	}
}

func (j *MockCookieJar) Get(name string) (string, bool) {
	value, ok := j.Values[name]
	return value, ok
}

func (j *MockCookieJar) Set(name, value string, maxAge time.Duration) error {
	j.Values[name] = value
	j.MaxAges[name] = maxAge
	return nil
}

func (j *MockCookieJar) Delete(name string) error {
	delete(j.Values, name)
	j.Deleted = append(j.Deleted, name)
	return nil
}
