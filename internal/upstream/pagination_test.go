package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"vidstats/internal/testsupport"
	"vidstats/internal/upstream"
)

func TestListAllVideosWalksUntilNextIsNull(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	fake.JSON("/video?page=1", map[string]any{
		"data":  []map[string]any{{"id": 1, "display_name": "One"}, {"id": 2}},
		"links": map[string]any{"next": "page2"},
	})
	fake.JSON("/video?page=2", map[string]any{
		"data":  []any{},
		"links": map[string]any{"next": "page3"},
	})
	fake.JSON("/video?page=3", map[string]any{
		"data":  []map[string]any{{"id": 3, "video_container": map[string]any{"id": 8, "name": "Folder"}}},
		"links": map[string]any{"next": nil},
	})

	videos, err := newClient(t, fake.URL()).ListAllVideos(context.Background())
	if err != nil {
		t.Fatalf("ListAllVideos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(videos))
	}
	for i, want := range []int64{1, 2, 3} {
		if videos[i].ID != want {
			t.Fatalf("video %d: got id %d want %d", i, videos[i].ID, want)
		}
	}
	if videos[2].VideoContainer == nil || videos[2].VideoContainer.Name != "Folder" {
		t.Fatalf("expected container to decode, got %#v", videos[2].VideoContainer)
	}
	for _, page := range []string{"/video?page=1", "/video?page=2", "/video?page=3"} {
		if fake.Calls(page) != 1 {
			t.Fatalf("expected one call to %s, got %d", page, fake.Calls(page))
		}
	}
	if fake.Calls("/video?page=4") != 0 {
		t.Fatal("expected walk to stop after page 3")
	}
}

func TestListAllVideosStopsWhenLinksAbsent(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	fake.JSON("/video?page=1", map[string]any{"data": []map[string]any{{"id": 1}}})

	videos, err := newClient(t, fake.URL()).ListAllVideos(context.Background())
	if err != nil {
		t.Fatalf("ListAllVideos: %v", err)
	}
	if len(videos) != 1 || fake.Calls("/video?page=2") != 0 {
		t.Fatalf("expected a single page, got %d videos", len(videos))
	}
}

func TestListAllVideosEnforcesPageLimit(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	fake.JSON("/video", map[string]any{
		"data":  []map[string]any{{"id": 1}},
		"links": map[string]any{"next": "more"},
	})

	videos, err := newClient(t, fake.URL(), upstream.WithMaxPages(3)).ListAllVideos(context.Background())
	if !errors.Is(err, upstream.ErrPageLimit) {
		t.Fatalf("expected page limit error, got %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected videos from 3 pages, got %d", len(videos))
	}
}

func TestListAllVideosAbortsOnFailedPage(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	fake.JSON("/video?page=1", map[string]any{
		"data":  []map[string]any{{"id": 1}},
		"links": map[string]any{"next": "page2"},
	})
	fake.Raw("/video?page=2", http.StatusBadGateway, "bad gateway")

	_, err := newClient(t, fake.URL()).ListAllVideos(context.Background())
	if !errors.Is(err, upstream.ErrStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}
