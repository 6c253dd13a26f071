package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/database"
	"github.com/lysyi3m/event-comb/app/metrics"
	"github.com/lysyi3m/event-comb/app/output"
	"github.com/lysyi3m/event-comb/app/source"
	"github.com/lysyi3m/event-comb/app/tasks"
)

const testAPIKey = "test-key"

type recordingScheduler struct {
	tasks []tasks.TaskInterface
}

func (s *recordingScheduler) Start() {}
func (s *recordingScheduler) Stop()  {}
func (s *recordingScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.tasks = append(s.tasks, task)
	return nil
}

type testEnv struct {
	router    *gin.Engine
	scheduler *recordingScheduler
}

func setupTestEnv(t *testing.T, publish bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sourcesDir := t.TempDir()
	config := `
url: "https://www.gamekee.com/ba/huodong/15"
kind: "activities"
settings:
  enabled: true
`
	if err := os.WriteFile(filepath.Join(sourcesDir, "ba.yml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	configCache := source.NewConfigCache(sourcesDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	sourceRepo := database.NewSourceRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)
	if err := sourceRepo.UpsertSource("ba", "https://www.gamekee.com/ba/huodong/15", "activities"); err != nil {
		t.Fatal(err)
	}

	registry := prometheus.NewRegistry()
	publisher := tasks.NewPublisher(snapshotRepo, output.NewWriter(t.TempDir()), metrics.New(registry))

	if publish {
		sourceConfig, _ := configCache.GetConfig("ba")
		raw := []card.RawRecord{
			{Title: "[活动]总力战", Description: "击败 Binah", ImageURL: "https://cdn.example.com/1.png", StatusText: "进行中", ProgressText: "还剩下3天5小时", Tags: []string{}},
			{Title: "大决战", StatusText: "已结束", ProgressText: "2024/04/01-2024/04/10", Tags: []string{}},
		}
		capturedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, card.Location)
		result := sourceConfig.NewPipeline().Run(raw, capturedAt)
		if _, err := publisher.Publish("ba", sourceConfig.Settings.History, raw, result); err != nil {
			t.Fatal(err)
		}
		if err := sourceRepo.UpdateSourceMetadata("ba", "活动一览", "", "zh-CN", capturedAt, capturedAt.Add(time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	scheduler := &recordingScheduler{}
	handler := NewHandler(configCache, sourceRepo, snapshotRepo,
		output.NewGenerator("https://cards.example.com", "test"), publisher, scheduler,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &testEnv{
		router:    NewServer(handler, testAPIKey),
		scheduler: scheduler,
	}
}

func (e *testEnv) request(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetSource(t *testing.T) {
	env := setupTestEnv(t, true)

	w := env.request(http.MethodGet, "/sources/ba", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Expected JSON content type, got %s", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Snapshot-Cards") != "2" {
		t.Errorf("Expected 2 cards header, got %s", w.Header().Get("X-Snapshot-Cards"))
	}

	var doc output.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if doc.Source != "ba" || len(doc.Cards) != 2 {
		t.Fatalf("Unexpected document: %+v", doc)
	}
	if doc.CrawlTime != "2024-05-01T10:00:00+08:00" {
		t.Errorf("Expected crawl time in UTC+8, got %s", doc.CrawlTime)
	}
	if doc.Cards[0].EndTime == nil || *doc.Cards[0].EndTime != "2024-05-04T15:00:00+08:00" {
		t.Errorf("Expected resolved end time, got %v", doc.Cards[0].EndTime)
	}
}

func TestGetSource_NotFound(t *testing.T) {
	env := setupTestEnv(t, false)

	if w := env.request(http.MethodGet, "/sources/unknown", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
	if w := env.request(http.MethodGet, "/sources/ba", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before the first snapshot, got %d", w.Code)
	}
	if w := env.request(http.MethodGet, "/sources/ba/rss", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 RSS before the first snapshot, got %d", w.Code)
	}
}

func TestGetSourceRSS(t *testing.T) {
	env := setupTestEnv(t, true)

	w := env.request(http.MethodGet, "/sources/ba/rss", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	if err != nil {
		t.Fatalf("Failed to parse RSS: %v", err)
	}
	if feed.Title != "活动一览" {
		t.Errorf("Expected channel title from page metadata, got %s", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(feed.Items))
	}
	if feed.Items[0].Title != "[活动]总力战" {
		t.Errorf("Expected ongoing card first, got %s", feed.Items[0].Title)
	}
}

func TestGetHealth(t *testing.T) {
	env := setupTestEnv(t, false)

	w := env.request(http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["sources"] != float64(1) {
		t.Errorf("Expected 1 source, got %v", health["sources"])
	}
	if health["loaded_configurations"] != float64(1) {
		t.Errorf("Expected 1 loaded configuration, got %v", health["loaded_configurations"])
	}
}

func TestGetMetrics(t *testing.T) {
	env := setupTestEnv(t, true)

	w := env.request(http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `eventcomb_snapshot_cards{source="ba"} 2`) {
		t.Errorf("Expected snapshot gauge in exposition, got:\n%s", w.Body.String())
	}
}

func TestAPIAuthentication(t *testing.T) {
	env := setupTestEnv(t, false)

	tests := []struct {
		name     string
		headers  map[string]string
		expected int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": testAPIKey}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer " + testAPIKey}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.request(http.MethodGet, "/api/sources", tt.headers); w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestAPIGetSourceDetails(t *testing.T) {
	env := setupTestEnv(t, true)

	w := env.request(http.MethodGet, "/api/sources/ba/details", map[string]string{"X-API-Key": testAPIKey})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var details map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &details); err != nil {
		t.Fatal(err)
	}
	snapshots, ok := details["snapshots"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected snapshots section, got %v", details["snapshots"])
	}
	if snapshots["stored"] != float64(1) {
		t.Errorf("Expected 1 stored snapshot, got %v", snapshots["stored"])
	}

	if w := env.request(http.MethodGet, "/api/sources/unknown/details", map[string]string{"X-API-Key": testAPIKey}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
}

func TestAPIReclassifySource(t *testing.T) {
	env := setupTestEnv(t, true)

	w := env.request(http.MethodPost, "/api/sources/ba/reclassify", map[string]string{"X-API-Key": testAPIKey})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	if len(env.scheduler.tasks) != 2 {
		t.Fatalf("Expected 2 enqueued tasks, got %d", len(env.scheduler.tasks))
	}
	if env.scheduler.tasks[0].GetType() != tasks.TaskTypeSyncSourceConfig {
		t.Errorf("Expected sync task first, got %s", env.scheduler.tasks[0].GetType())
	}
	if env.scheduler.tasks[1].GetType() != tasks.TaskTypeReclassifySource {
		t.Errorf("Expected reclassify task second, got %s", env.scheduler.tasks[1].GetType())
	}
}
