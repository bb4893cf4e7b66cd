package testsupport

import (
	"context"
	"testing"
	"time"

	"vidstats/internal/config"
	"vidstats/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustVideo upserts a minimal video row and returns it.
func MustVideo(t testing.TB, st *store.Store, videoID int64, title string, created time.Time) *store.Video {
	t.Helper()

	v, err := st.UpsertVideo(context.Background(), store.Video{VideoID: videoID, Title: title, CreatedDate: created})
	if err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	return v
}
