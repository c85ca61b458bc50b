package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lvcoi/ytapi-go/internal/apierr"
)

func waitFor(t *testing.T, done <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-done:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Finished event")
		return Event{}
	}
}

func TestExecuteReadyOnJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"abc"}]}`))
	}))
	defer server.Close()

	r := New(server.Client())
	r.SetURL(server.URL)
	done := r.Execute(context.Background(), http.MethodGet, false)
	ev := waitFor(t, done)

	if ev.Status != Ready {
		t.Fatalf("Status = %v, want Ready", ev.Status)
	}
	if r.Status() != Ready {
		t.Fatalf("r.Status() = %v, want Ready", r.Status())
	}
	if id := r.Result().Get("items").GetIndex(0).Get("id").MustString(); id != "abc" {
		t.Fatalf("Result id = %q, want abc", id)
	}
	if r.Err() != nil {
		t.Fatalf("Err() = %v, want nil", r.Err())
	}
}

func TestExecuteFailedOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	r := New(server.Client())
	r.SetURL(server.URL)
	done := r.Execute(context.Background(), http.MethodGet, false)
	waitFor(t, done)

	if r.Status() != Failed {
		t.Fatalf("Status() = %v, want Failed", r.Status())
	}
	if r.Err() == nil {
		t.Fatalf("Err() should be non-nil on Failed")
	}
}

func TestExecuteFollowsRedirects(t *testing.T) {
	var finalHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		finalHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	r := New(server.Client())
	r.SetURL(server.URL + "/start")
	done := r.Execute(context.Background(), http.MethodGet, false)
	waitFor(t, done)

	if r.Status() != Ready {
		t.Fatalf("Status() = %v, want Ready", r.Status())
	}
	if finalHits.Load() != 1 {
		t.Fatalf("final handler hit %d times, want 1", finalHits.Load())
	}
}

func TestExecuteRedirectLimitExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	// server.Client() alone still carries the stdlib's default
	// CheckRedirect, which would auto-follow and mask whether the engine's
	// own MAX_REDIRECTS/RedirectLimit path ever ran. Disable it here so
	// this test actually exercises that path, the way transport.NewClient
	// does in production.
	client := server.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	r := New(client)
	r.SetURL(server.URL + "/a")
	done := r.Execute(context.Background(), http.MethodGet, false)
	waitFor(t, done)

	if r.Status() != Failed {
		t.Fatalf("Status() = %v, want Failed", r.Status())
	}
	if got := apierr.CategoryOf(r.Err()); got != apierr.RedirectLimit {
		t.Fatalf("CategoryOf(Err()) = %v, want RedirectLimit", got)
	}
}

func TestExecuteCancelDuringLoading(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.Write([]byte(`{}`))
	}))
	defer server.Close()
	defer close(block)

	r := New(server.Client())
	r.SetURL(server.URL)
	done := r.Execute(context.Background(), http.MethodGet, false)
	r.Cancel()
	ev := waitFor(t, done)

	if ev.Status != Canceled {
		t.Fatalf("Status = %v, want Canceled", ev.Status)
	}
}

func TestExecuteWhileLoadingCancelsPrevious(t *testing.T) {
	firstBlock := make(chan struct{})
	firstArrived := make(chan struct{})
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(firstArrived)
			<-firstBlock
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()
	defer close(firstBlock)

	r := New(server.Client())
	r.SetURL(server.URL)
	firstDone := r.Execute(context.Background(), http.MethodGet, false)
	// Wait until the first attempt's request is the one held by the
	// handler; otherwise the second Execute can cancel it before it is
	// sent, and the second attempt's request would be held instead.
	select {
	case <-firstArrived:
	case <-time.After(5 * time.Second):
		t.Fatal("first Execute's request never reached the server")
	}
	secondDone := r.Execute(context.Background(), http.MethodGet, false)

	secondEv := waitFor(t, secondDone)
	if secondEv.Status != Ready {
		t.Fatalf("second Execute Status = %v, want Ready", secondEv.Status)
	}

	select {
	case ev := <-firstDone:
		if ev.Status != Canceled {
			t.Fatalf("first Execute Status = %v, want Canceled", ev.Status)
		}
	case <-time.After(time.Second):
		t.Fatalf("first Execute never finished after being superseded")
	}
}

func TestExecuteRefreshesAccessTokenOn401(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-token"}`))
	}))
	defer tokenServer.Close()
	oldTokenURL := TokenURL
	TokenURL = tokenServer.URL
	defer func() { TokenURL = oldTokenURL }()

	var sawAuth []string
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = append(sawAuth, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") != "Bearer new-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer apiServer.Close()

	r := New(apiServer.Client())
	r.SetURL(apiServer.URL)
	r.SetAccessToken("stale-token")
	r.SetRefreshToken("refresh-me")
	done := r.Execute(context.Background(), http.MethodGet, true)
	waitFor(t, done)

	if r.Status() != Ready {
		t.Fatalf("Status() = %v, want Ready", r.Status())
	}
	if len(sawAuth) != 2 {
		t.Fatalf("expected 2 attempts, got %d: %v", len(sawAuth), sawAuth)
	}
	if r.AccessToken() != "new-token" {
		t.Fatalf("AccessToken() = %q, want new-token", r.AccessToken())
	}
}

func TestSetJSONBodySetsContentType(t *testing.T) {
	var gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	r := New(server.Client())
	r.SetURL(server.URL)
	if err := r.SetJSONBody(map[string]interface{}{"title": "hi"}); err != nil {
		t.Fatalf("SetJSONBody error: %v", err)
	}
	done := r.Execute(context.Background(), http.MethodPost, false)
	waitFor(t, done)

	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody == "" {
		t.Fatalf("expected a non-empty request body")
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Null:     "null",
		Loading:  "loading",
		Ready:    "ready",
		Failed:   "failed",
		Canceled: "canceled",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}
