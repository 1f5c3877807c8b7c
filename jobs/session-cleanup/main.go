package main

import (
	"log/slog"
	"time"
)

const defaultAbandonedAfter = 24 * time.Hour

func main() {
	slog.Info("Starting session cleanup job")
	start := time.Now()

	abandonedAfter := conf.CleanUpConfig.AbandonedAfter
	if abandonedAfter <= 0 {
		abandonedAfter = defaultAbandonedAfter
	}

	olderThan := start.Add(-abandonedAfter)
	removed, err := surveyDBService.DeleteAbandonedResponses(olderThan)
	if err != nil {
		slog.Error("Failed to delete abandoned responses", slog.String("error", err.Error()))
		return
	}

	slog.Info("Session cleanup job completed",
		slog.Int64("removedResponses", removed),
		slog.String("duration", time.Since(start).String()))
}
