package youtube

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	oldAPIURL := APIURL
	APIURL = server.URL
	t.Cleanup(func() { APIURL = oldAPIURL })
	return &Client{HTTPClient: server.Client(), APIKey: "key123"}, server
}

func TestResourcesClientList(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"v1"}]}`))
	})

	resources := NewResourcesClient(client)
	result, err := resources.List(context.Background(), "/videos", []string{"snippet"}, map[string]interface{}{"id": "v1"}, nil)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if gotPath != "/videos" {
		t.Fatalf("path = %q, want /videos", gotPath)
	}
	if !strings.Contains(gotQuery, "part=snippet") {
		t.Fatalf("query = %q, missing part=snippet", gotQuery)
	}
	if id := result.Get("items").GetIndex(0).Get("id").MustString(); id != "v1" {
		t.Fatalf("id = %q, want v1", id)
	}
}

func TestResourcesClientInsert(t *testing.T) {
	var gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"new1"}`))
	})

	resources := NewResourcesClient(client)
	result, err := resources.Insert(context.Background(), map[string]interface{}{"snippet": map[string]interface{}{"title": "hi"}}, "/playlists", []string{"snippet"}, nil)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if !strings.Contains(gotBody, "\"title\":\"hi\"") {
		t.Fatalf("body = %q, missing title", gotBody)
	}
	if id := result.Get("id").MustString(); id != "new1" {
		t.Fatalf("id = %q, want new1", id)
	}
}

func TestResourcesClientUpdate(t *testing.T) {
	var gotMethod string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"v1"}`))
	})

	resources := NewResourcesClient(client)
	_, err := resources.Update(context.Background(), "/videos", map[string]interface{}{"id": "v1"}, []string{"snippet"})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %q, want PUT", gotMethod)
	}
}

func TestResourcesClientDelete(t *testing.T) {
	var gotMethod, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})

	resources := NewResourcesClient(client)
	_, err := resources.Delete(context.Background(), "v1", "/videos")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("method = %q, want DELETE", gotMethod)
	}
	if !strings.Contains(gotQuery, "id=v1") {
		t.Fatalf("query = %q, missing id=v1", gotQuery)
	}
}

func TestVideosClientRate(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})

	videos := NewVideosClient(client)
	_, err := videos.Rate(context.Background(), "v1", "like")
	if err != nil {
		t.Fatalf("Rate error: %v", err)
	}
	if !strings.Contains(gotQuery, "id=v1") || !strings.Contains(gotQuery, "rating=like") {
		t.Fatalf("query = %q, missing id/rating", gotQuery)
	}
}

func TestVideosClientGetRating(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"rating":"like"}]}`))
	})

	videos := NewVideosClient(client)
	result, err := videos.GetRating(context.Background(), "v1", nil)
	if err != nil {
		t.Fatalf("GetRating error: %v", err)
	}
	if r := result.Get("items").GetIndex(0).Get("rating").MustString(); r != "like" {
		t.Fatalf("rating = %q, want like", r)
	}
}

func TestPlaylistItemsClientListInsertUpdateDelete(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"items":[]}`))
		case http.MethodPost:
			w.Write([]byte(`{"id":"pi1"}`))
		case http.MethodPut:
			w.Write([]byte(`{"id":"pi1"}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	playlistItems := NewPlaylistItemsClient(client)
	ctx := context.Background()

	if _, err := playlistItems.List(ctx, []string{"snippet"}, nil, nil); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if _, err := playlistItems.Insert(ctx, map[string]interface{}{"snippet": map[string]interface{}{}}, []string{"snippet"}, nil); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if _, err := playlistItems.Update(ctx, map[string]interface{}{"id": "pi1"}, []string{"snippet"}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if _, err := playlistItems.Delete(ctx, "pi1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestBuildListURLNoQuery(t *testing.T) {
	got := buildListURL("https://example.com/x", listOptions{})
	if got != "https://example.com/x?part=" {
		t.Fatalf("buildListURL = %q", got)
	}
}

func TestResourceURL(t *testing.T) {
	old := APIURL
	APIURL = "https://api.test"
	defer func() { APIURL = old }()

	if got := resourceURL("/videos"); got != "https://api.test/videos" {
		t.Fatalf("resourceURL(/videos) = %q", got)
	}
	if got := resourceURL("videos"); got != "https://api.test/videos" {
		t.Fatalf("resourceURL(videos) = %q", got)
	}
}
