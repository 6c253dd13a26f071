package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lysyi3m/event-comb/app/database"
)

type mockSourceRepository struct {
	mu      sync.Mutex
	sources map[string]*database.Source
	err     error
}

func newMockSourceRepository() *mockSourceRepository {
	return &mockSourceRepository{sources: make(map[string]*database.Source)}
}

func (m *mockSourceRepository) GetSource(sourceName string) (*database.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	src, ok := m.sources[sourceName]
	if !ok {
		return nil, nil
	}
	copied := *src
	return &copied, nil
}

func (m *mockSourceRepository) GetSourceCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources), nil
}

func (m *mockSourceRepository) UpsertSource(sourceName, sourceURL, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	src, ok := m.sources[sourceName]
	if !ok {
		src = &database.Source{Name: sourceName, CreatedAt: time.Now()}
		m.sources[sourceName] = src
	}
	src.URL = sourceURL
	src.Kind = kind
	src.UpdatedAt = time.Now()
	return nil
}

func (m *mockSourceRepository) UpdateSourceMetadata(sourceName string, title string, imageURL string, language string, fetchedAt time.Time, nextFetch time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[sourceName]
	if !ok {
		return fmt.Errorf("source not found: %s", sourceName)
	}
	src.Title = title
	src.ImageURL = imageURL
	src.Language = language
	src.LastFetchedAt = &fetchedAt
	src.NextFetchAt = &nextFetch
	return nil
}

type mockSnapshotRepository struct {
	mu        sync.Mutex
	snapshots []database.Snapshot
	pruned    []int
}

func (m *mockSnapshotRepository) SaveSnapshot(snapshot database.Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot.ID = int64(len(m.snapshots) + 1)
	m.snapshots = append(m.snapshots, snapshot)
	return snapshot.ID, nil
}

func (m *mockSnapshotRepository) GetLatestSnapshot(sourceName string) (*database.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].SourceName == sourceName {
			snapshot := m.snapshots[i]
			return &snapshot, nil
		}
	}
	return nil, nil
}

func (m *mockSnapshotRepository) GetSnapshotCount(sourceName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, snapshot := range m.snapshots {
		if snapshot.SourceName == sourceName {
			count++
		}
	}
	return count, nil
}

func (m *mockSnapshotRepository) PruneSnapshots(sourceName string, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, keep)
	return 0, nil
}

func (m *mockSnapshotRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

type mockWriter struct {
	mu        sync.Mutex
	documents map[string][]byte
	err       error
}

func newMockWriter() *mockWriter {
	return &mockWriter{documents: make(map[string][]byte)}
}

func (m *mockWriter) Write(sourceName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.documents[sourceName] = data
	return nil
}

func (m *mockWriter) document(sourceName string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[sourceName]
}

type mockFetcher struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls int
}

func (m *mockFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.body, nil
}

var (
	_ database.SourceRepository   = (*mockSourceRepository)(nil)
	_ database.SnapshotRepository = (*mockSnapshotRepository)(nil)
	_ DocumentWriter              = (*mockWriter)(nil)
	_ PageFetcher                 = (*mockFetcher)(nil)
)
