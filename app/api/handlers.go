package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/event-comb/app/database"
	"github.com/lysyi3m/event-comb/app/output"
	"github.com/lysyi3m/event-comb/app/source"
	"github.com/lysyi3m/event-comb/app/tasks"
)

func NewHandler(configCache *source.ConfigCache, sourceRepo database.SourceRepository,
	snapshotRepo database.SnapshotRepository, generator GeneratorInterface, publisher *tasks.Publisher,
	scheduler tasks.TaskSchedulerInterface, metricsHandler http.Handler) *Handler {
	return &Handler{
		sourceRepo:     sourceRepo,
		snapshotRepo:   snapshotRepo,
		generator:      generator,
		configCache:    configCache,
		publisher:      publisher,
		scheduler:      scheduler,
		metricsHandler: metricsHandler,
	}
}

func (h *Handler) GetSource(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Debug("Source configuration not found", "source", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	snapshot, err := h.snapshotRepo.GetLatestSnapshot(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_snapshot", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if snapshot == nil {
		slog.Debug("No snapshot stored yet", "source", name)
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("X-Source-Name", name)
	c.Header("X-Snapshot-Cards", strconv.Itoa(snapshot.Kept))
	c.Header("X-Captured-At", snapshot.CapturedAt.Format(time.RFC3339))

	c.Data(http.StatusOK, "application/json; charset=utf-8", snapshot.Payload)
}

func (h *Handler) GetSourceRSS(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Debug("Source configuration not found", "source", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	src, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	stored, err := h.snapshotRepo.GetLatestSnapshot(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_snapshot", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if src == nil || stored == nil {
		c.Status(http.StatusNotFound)
		return
	}

	_, snapshot, err := output.Decode(stored.Payload)
	if err != nil {
		slog.Error("Stored snapshot is unreadable", "source", name, "snapshot", stored.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(*src, snapshot)
	if err != nil {
		slog.Error("RSS generation error", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Source-Name", name)
	c.Header("X-Snapshot-Cards", strconv.Itoa(len(snapshot.Records)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetMetrics(c *gin.Context) {
	h.metricsHandler.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) APIListSources(c *gin.Context) {
	names := h.configCache.GetConfigNames()

	sources := make([]map[string]interface{}, 0, len(names))

	for _, name := range names {
		sourceConfig, err := h.configCache.GetConfig(name)
		if err != nil {
			continue
		}

		sourceInfo := map[string]interface{}{
			"name":             sourceConfig.Name,
			"url":              sourceConfig.URL,
			"kind":             sourceConfig.Kind,
			"title":            "",
			"enabled":          sourceConfig.Settings.Enabled,
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
		}

		if src, err := h.sourceRepo.GetSource(name); err == nil && src != nil {
			sourceInfo["title"] = src.Title
			sourceInfo["last_fetched_at"] = src.LastFetchedAt
			sourceInfo["next_fetch_at"] = src.NextFetchAt
		}

		if snapshot, err := h.snapshotRepo.GetLatestSnapshot(name); err == nil && snapshot != nil {
			sourceInfo["cards"] = snapshot.Kept
			sourceInfo["captured_at"] = snapshot.CapturedAt.Format(time.RFC3339)
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIGetSourceDetails(c *gin.Context) {
	name := c.Param("name")

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	src, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if src == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"url":              sourceConfig.URL,
		"kind":             sourceConfig.Kind,
		"title":            src.Title,
		"enabled":          sourceConfig.Settings.Enabled,
		"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(sourceConfig.Settings.Timeout) * time.Second).String(),
		"history":          sourceConfig.Settings.History,
		"retention": gin.H{
			"ended": sourceConfig.Retention.Ended,
			"limit": sourceConfig.Retention.Limit,
			"order": sourceConfig.Retention.Order,
		},
		"selectors":  sourceConfig.Selectors,
		"categories": sourceConfig.Categories,
	}

	details["database"] = map[string]interface{}{
		"last_fetched_at": src.LastFetchedAt,
		"next_fetch_at":   src.NextFetchAt,
		"created_at":      src.CreatedAt,
		"updated_at":      src.UpdatedAt,
	}

	if count, err := h.snapshotRepo.GetSnapshotCount(name); err == nil {
		snapshots := map[string]interface{}{"stored": count}
		if latest, err := h.snapshotRepo.GetLatestSnapshot(name); err == nil && latest != nil {
			snapshots["latest"] = map[string]interface{}{
				"id":          latest.ID,
				"captured_at": latest.CapturedAt.Format(time.RFC3339),
				"kept":        latest.Kept,
				"dropped":     latest.Dropped,
				"unparsed":    latest.Unparsed,
			}
		}
		details["snapshots"] = snapshots
	}

	c.JSON(http.StatusOK, details)
}

// APIReclassifySource reloads the source configuration from disk and
// re-runs classification over the latest snapshot.
func (h *Handler) APIReclassifySource(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Debug("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	src, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if src == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found in database"})
		return
	}

	sourceConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(name, sourceConfig, h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	reclassifyTask := tasks.NewReclassifySourceTask(name, sourceConfig, h.snapshotRepo, h.publisher)
	if err := h.scheduler.EnqueueTask(reclassifyTask); err != nil {
		slog.Error("Error enqueueing reclassify task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue reclassify task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reloaded and tasks enqueued successfully",
		"source": gin.H{
			"name":  name,
			"title": src.Title,
			"url":   sourceConfig.URL,
			"kind":  sourceConfig.Kind,
		},
		"tasks": []gin.H{
			{
				"id":   syncTask.ID,
				"type": syncTask.Type,
			},
			{
				"id":   reclassifyTask.ID,
				"type": reclassifyTask.Type,
			},
		},
	})
}
