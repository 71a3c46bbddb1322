package controller

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nickheyer/madproxy/pkg/logger"
)

func TestStartFiresAndForgets(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotAuth string
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", logger.New())

	before := time.Now()
	c.Start("s1")
	if time.Since(before) > 100*time.Millisecond {
		t.Fatal("Start blocked instead of firing a detached goroutine")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wake request never reached the server")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/api/servers/s1/start" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestStartNoopWithoutBaseURL(t *testing.T) {
	c := New("", "", logger.New())
	// Must not panic or block; there's nothing to call.
	c.Start("s1")
}
