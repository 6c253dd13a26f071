package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/event-comb/app/card"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestRunMigrations(t *testing.T) {
	db := newTestDB(t)

	// A second run is a no-op
	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
	if dirty {
		t.Error("Expected clean migration state")
	}
}

func TestSourceRepository(t *testing.T) {
	repo := NewSourceRepository(newTestDB(t))

	src, err := repo.GetSource("missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src != nil {
		t.Error("Expected nil for unknown source")
	}

	if err := repo.UpsertSource("ba", "https://example.com/a", "activities"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertSource("ba", "https://example.com/b", "pools"); err != nil {
		t.Fatal(err)
	}

	count, err := repo.GetSourceCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 source after upsert, got %d", count)
	}

	fetchedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	nextFetch := fetchedAt.Add(time.Hour)
	if err := repo.UpdateSourceMetadata("ba", "活动一览", "https://example.com/icon.png", "zh-CN", fetchedAt, nextFetch); err != nil {
		t.Fatal(err)
	}

	src, err = repo.GetSource("ba")
	if err != nil {
		t.Fatal(err)
	}
	if src.URL != "https://example.com/b" || src.Kind != "pools" {
		t.Errorf("Expected updated url and kind, got %s / %s", src.URL, src.Kind)
	}
	if src.Title != "活动一览" || src.Language != "zh-CN" {
		t.Errorf("Unexpected metadata: %+v", src)
	}
	if src.LastFetchedAt == nil || !src.LastFetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected last fetch %v, got %v", fetchedAt, src.LastFetchedAt)
	}
	if src.NextFetchAt == nil || !src.NextFetchAt.Equal(nextFetch) {
		t.Errorf("Expected next fetch %v, got %v", nextFetch, src.NextFetchAt)
	}

	if err := repo.UpdateSourceMetadata("missing", "", "", "", fetchedAt, nextFetch); err == nil {
		t.Error("Expected error when updating unknown source")
	}
}

func TestSnapshotRepository(t *testing.T) {
	db := newTestDB(t)
	sources := NewSourceRepository(db)
	snapshots := NewSnapshotRepository(db)

	if err := sources.UpsertSource("ba", "https://example.com", "activities"); err != nil {
		t.Fatal(err)
	}

	latest, err := snapshots.GetLatestSnapshot("ba")
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Error("Expected no snapshot before the first save")
	}

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, card.Location)
	for i := 0; i < 4; i++ {
		_, err := snapshots.SaveSnapshot(Snapshot{
			SourceName: "ba",
			CapturedAt: base.Add(time.Duration(i) * time.Hour),
			Payload:    []byte(`{"cards":[]}`),
			Raw:        []card.RawRecord{{Title: "总力战", StatusText: "进行中", Tags: []string{}}},
			Kept:       i,
		})
		if err != nil {
			t.Fatalf("Failed to save snapshot %d: %v", i, err)
		}
	}

	latest, err = snapshots.GetLatestSnapshot("ba")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Kept != 3 {
		t.Errorf("Expected newest snapshot, got kept=%d", latest.Kept)
	}
	if !latest.CapturedAt.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("Expected captured at %v, got %v", base.Add(3*time.Hour), latest.CapturedAt)
	}
	if latest.CapturedAt.Location() != card.Location {
		t.Errorf("Expected capture instant in card location, got %v", latest.CapturedAt.Location())
	}
	if len(latest.Raw) != 1 || latest.Raw[0].Title != "总力战" {
		t.Errorf("Expected raw records round trip, got %+v", latest.Raw)
	}

	deleted, err := snapshots.PruneSnapshots("ba", 2)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 pruned snapshots, got %d", deleted)
	}

	count, err := snapshots.GetSnapshotCount("ba")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 remaining snapshots, got %d", count)
	}

	if deleted, _ := snapshots.PruneSnapshots("ba", 0); deleted != 0 {
		t.Errorf("Expected pruning disabled for keep=0, got %d deleted", deleted)
	}
}
