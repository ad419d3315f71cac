// Package backendtest provides an in-process odometer backend that records
// what it receives.
package backendtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is one call seen by the Server.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

// Server wraps httptest.Server. Replies default to 200 {"status":"ok"}.
type Server struct {
	*httptest.Server

	t        testing.TB
	mu       sync.Mutex
	requests []Request
	status   int
	received chan Request
	release  chan struct{}
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:        t,
		status:   http.StatusOK,
		received: make(chan Request, 16),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// SetStatus changes the status code of later replies.
func (s *Server) SetStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// Hold makes later replies wait until the returned func is called.
func (s *Server) Hold() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.release = ch
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Received delivers each request as soon as its body has been read. The channel
// holds 16 requests; later ones are dropped from it but still show up in Requests.
func (s *Server) Received() <-chan Request {
	return s.received
}

// Requests returns a copy of everything recorded so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.t.Errorf("backendtest: read request body: %v", err)
	}
	req := Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := s.status
	release := s.release
	s.mu.Unlock()

	select {
	case s.received <- req:
	default:
	}

	if release != nil {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
		return
	}
	_, _ = io.WriteString(w, `{"code":"internal","message":"backend unavailable"}`)
}
