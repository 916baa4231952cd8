package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"google.golang.org/api/option"
)

type fakeYouTubeAPI struct {
	mu          sync.Mutex
	searchQuery map[string]string
	videoIDs    []string
}

func (f *fakeYouTubeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/search"):
		q := r.URL.Query()
		f.mu.Lock()
		f.searchQuery = map[string]string{
			"q":               q.Get("q"),
			"type":            q.Get("type"),
			"videoCategoryId": q.Get("videoCategoryId"),
			"order":           q.Get("order"),
			"maxResults":      q.Get("maxResults"),
			"safeSearch":      q.Get("safeSearch"),
		}
		f.mu.Unlock()

		fmt.Fprint(w, `{"items":[
			{"id":{"kind":"youtube#video","videoId":"aaa"}},
			{"id":{"kind":"youtube#channel","channelId":"chan"}},
			{"id":{"kind":"youtube#video","videoId":"bbb"}}
		]}`)

	case strings.HasSuffix(r.URL.Path, "/videos"):
		var ids []string
		for _, v := range r.URL.Query()["id"] {
			ids = append(ids, strings.Split(v, ",")...)
		}
		f.mu.Lock()
		f.videoIDs = ids
		f.mu.Unlock()

		// Returned out of request order on purpose.
		fmt.Fprint(w, `{"items":[
			{"id":"bbb","snippet":{"title":"Song B","channelTitle":"Artist - Topic"},"statistics":{"viewCount":"42"}},
			{"id":"aaa","snippet":{"title":"Song A","channelTitle":"ArtistVEVO"},"statistics":{"viewCount":"1000"}}
		]}`)

	default:
		http.NotFound(w, r)
	}
}

func newTestYouTubeProvider(t *testing.T, api http.Handler) *YouTubeSearchProvider {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	provider, err := NewYouTubeSearchProvider(context.Background(), YouTubeSearchConfig{
		APIKey: "test-key",
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(server.URL + "/"),
			option.WithHTTPClient(server.Client()),
		},
	})
	if err != nil {
		t.Fatalf("NewYouTubeSearchProvider returned error: %v", err)
	}
	return provider
}

func TestNewYouTubeSearchProvider_MissingKey(t *testing.T) {
	_, err := NewYouTubeSearchProvider(context.Background(), YouTubeSearchConfig{})
	if !errors.Is(err, ports.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestYouTubeSearchProvider_Search(t *testing.T) {
	api := &fakeYouTubeAPI{}
	provider := newTestYouTubeProvider(t, api)

	ids, err := provider.Search(context.Background(), ports.SearchRequest{
		Query:      "some song",
		CategoryID: "10",
		Order:      "viewCount",
		MaxResults: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ids) != 2 || ids[0] != "aaa" || ids[1] != "bbb" {
		t.Errorf("expected video ids [aaa bbb], got %v", ids)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	want := map[string]string{
		"q":               "some song",
		"type":            "video",
		"videoCategoryId": "10",
		"order":           "viewCount",
		"maxResults":      "10",
		"safeSearch":      "none",
	}
	for k, v := range want {
		if api.searchQuery[k] != v {
			t.Errorf("expected %s=%q, got %q", k, v, api.searchQuery[k])
		}
	}
}

func TestYouTubeSearchProvider_Details(t *testing.T) {
	api := &fakeYouTubeAPI{}
	provider := newTestYouTubeProvider(t, api)

	candidates, err := provider.Details(context.Background(), []string{"aaa", "bbb", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Candidate{
		{ID: "aaa", Title: "Song A", ChannelTitle: "ArtistVEVO", ViewCount: 1000},
		{ID: "bbb", Title: "Song B", ChannelTitle: "Artist - Topic", ViewCount: 42},
	}
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %+v", len(want), candidates)
	}
	for i := range want {
		if candidates[i] != want[i] {
			t.Errorf("candidate %d: expected %+v, got %+v", i, want[i], candidates[i])
		}
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if strings.Join(api.videoIDs, ",") != "aaa,bbb,missing" {
		t.Errorf("expected ids aaa,bbb,missing to be requested, got %v", api.videoIDs)
	}
}

func TestYouTubeSearchProvider_DetailsWithoutIDs(t *testing.T) {
	api := &fakeYouTubeAPI{}
	provider := newTestYouTubeProvider(t, api)

	candidates, err := provider.Details(context.Background(), nil)
	if err != nil || candidates != nil {
		t.Errorf("expected no call and no candidates, got %v, %v", candidates, err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.videoIDs != nil {
		t.Error("expected videos.list not to be called")
	}
}

func TestYouTubeSearchProvider_APIError(t *testing.T) {
	provider := newTestYouTubeProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	}))

	if _, err := provider.Search(context.Background(), ports.SearchRequest{Query: "q"}); err == nil {
		t.Error("expected error from Search")
	}
	if _, err := provider.Details(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error from Details")
	}
}
