package session

import (
	"net/http"

	"golang.org/x/oauth2"
)

// EnvironmentHeader carries the active environment id on API calls.
const EnvironmentHeader = "X-Environment-Id"

// Transport attaches the session's bearer token and environment id to every request.
type Transport struct {
	Session *Session
	Base    http.RoundTripper
}

// NewTransport wraps base, defaulting to http.DefaultTransport.
func NewTransport(s *Session, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Session: s, Base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	st := t.Session.Snapshot()
	if st.Token == "" && st.EnvironmentID == "" {
		return t.Base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	if st.Token != "" {
		tok := &oauth2.Token{AccessToken: st.Token, TokenType: "Bearer"}
		tok.SetAuthHeader(r)
	}
	if st.EnvironmentID != "" {
		r.Header.Set(EnvironmentHeader, st.EnvironmentID)
	}
	return t.Base.RoundTrip(r)
}
