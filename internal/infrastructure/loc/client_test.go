package loc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/config"
)

const subjectsScheme = "http://id.loc.gov/authorities/subjects"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.LOCClientConfig{
		BaseURL:   srv.URL,
		Scheme:    subjectsScheme,
		Timeout:   2 * time.Second,
		UserAgent: "lcsh-test",
	})
}

func serveFixture(t *testing.T, name string) http.HandlerFunc {
	body, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	}
}

func TestSearchURLEscapesPhrase(t *testing.T) {
	c := NewClient(&config.LOCClientConfig{BaseURL: "https://id.loc.gov/", Scheme: subjectsScheme})
	raw := c.SearchURL("China--History--Republic, 1912-1949 & more")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Path != "/search/" {
		t.Fatalf("unexpected path %q", u.Path)
	}
	qs := u.Query()["q"]
	if len(qs) != 2 || qs[0] != "China--History--Republic, 1912-1949 & more" || qs[1] != "cs:"+subjectsScheme {
		t.Fatalf("unexpected query %v", qs)
	}
}

func TestRetrieveParsesListing(t *testing.T) {
	var gotQuery url.Values
	var gotUA string
	fixture := serveFixture(t, "search_republic.html")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		fixture(w, r)
	})

	got, err := c.Retrieve(context.Background(), "China--History--Republic, 1912-1949")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0].ID != "sh85024107" {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if gotQuery.Get("q") != "China--History--Republic, 1912-1949" {
		t.Fatalf("phrase not sent verbatim: %v", gotQuery)
	}
	if gotUA != "lcsh-test" {
		t.Fatalf("user agent not set: %q", gotUA)
	}
}

func TestRetrieveZeroResults(t *testing.T) {
	c := newTestClient(t, serveFixture(t, "search_empty.html"))
	got, err := c.Retrieve(context.Background(), "zzqxj")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected zero candidates, got %+v", got)
	}
}

func TestRetrieveErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: recommend.ErrUpstreamUnavailable,
		},
		{
			name: "throttled",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: recommend.ErrUpstreamUnavailable,
		},
		{
			name: "json body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"error":"nope"}`)
			},
			want: recommend.ErrUpstreamMalformed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.Retrieve(context.Background(), "anything")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRetrieveSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(&config.LOCClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if _, err := c.Retrieve(context.Background(), "anything"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestRetrieveConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(&config.LOCClientConfig{BaseURL: base, Timeout: time.Second})
	if _, err := c.Retrieve(context.Background(), "anything"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
