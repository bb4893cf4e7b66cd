package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"vidstats/internal/store"
	"vidstats/internal/testsupport"
)

func seedUpstream(fake *testsupport.FakeUpstream) {
	fake.JSON("/video?page=1", map[string]any{
		"data": []map[string]any{
			{"id": 7, "display_name": "Welcome", "status": "active", "created_at": "2024-02-01T09:00:00Z"},
		},
		"links": map[string]any{"next": nil},
	})
	fake.Data("/video/7", map[string]any{"duration": 30000})
	fake.Data("/video/7/stats/views", []map[string]any{
		{"period": "2024-02", "total": 11, "started": 9, "finished": 4},
	})
	fake.Data("/video/7/stats/interactions/", []map[string]any{
		{"id": 70, "title": "Learn more", "type": "button", "total_clicks": 3},
	})
}

func TestSyncListAndStatus(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	seedUpstream(fake)
	env := setupCLITestEnv(t, testsupport.WithUpstreamURL(fake.URL()))

	out, _, err := runCLI(t, []string{"sync"}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "1/1 videos")

	out, _, err = runCLI(t, []string{"list", "videos"}, env.configPath)
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	requireContains(t, out, "Welcome")
	requireContains(t, out, "2024-02-01")

	out, _, err = runCLI(t, []string{"list", "interactions", "--video", "7", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list interactions: %v", err)
	}
	var interactions []store.InteractionStat
	if err := json.Unmarshal([]byte(out), &interactions); err != nil {
		t.Fatalf("decode interactions: %v\n%s", err, out)
	}
	if len(interactions) != 1 || interactions[0].InteractionID != 70 || interactions[0].TotalClicks != 3 {
		t.Fatalf("unexpected interactions %#v", interactions)
	}

	out, _, err = runCLI(t, []string{"list", "ratings"}, env.configPath)
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	requireContains(t, out, "No ratings stored")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "completed, 1/1 videos")
}

func TestSyncReportsListingFailure(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	fake.Raw("/video", http.StatusServiceUnavailable, `{"message":"down"}`)
	env := setupCLITestEnv(t, testsupport.WithUpstreamURL(fake.URL()))

	out, _, err := runCLI(t, []string{"sync"}, env.configPath)
	if err == nil {
		t.Fatal("expected sync to fail when the listing fails")
	}
	requireContains(t, out, "[ERROR]")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, `"status": "failed"`) {
		t.Fatalf("expected failed run in %s", out)
	}
}

func TestSyncRejectsBadWorkerFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"sync", "--workers", "0"}, env.configPath); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

func TestListRejectsUnknownKind(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"list", "bogus"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown list") {
		t.Fatalf("expected unknown list error, got %v", err)
	}
}
