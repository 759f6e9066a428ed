package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetSetsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	resp, err := Get(context.Background(), New(), server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	resp.Body.Close()

	if gotAgent != UserAgent {
		t.Errorf("Expected user agent %q, got %q", UserAgent, gotAgent)
	}
}

func TestGetCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Get(ctx, New(), server.URL); err == nil {
		t.Fatal("Expected an error for a cancelled context")
	}
}

func TestRedirectCap(t *testing.T) {
	var server *httptest.Server
	hops := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", server.URL, hops), http.StatusFound)
	}))
	defer server.Close()

	_, err := Get(context.Background(), New(), server.URL)
	if err == nil {
		t.Fatal("Expected an error for an endless redirect chain")
	}
	if !strings.Contains(err.Error(), "stopped after 5 redirects") {
		t.Errorf("Expected the redirect cap to trip, got %v", err)
	}
}
