package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/occasion-scraper/internal/dataset"
	"github.com/maltedev/occasion-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeListingScraped is published once per record in a dataset
	EventTypeListingScraped EventType = "LISTING_SCRAPED"
	// EventTypeDatasetCompleted is published once per run, after its listings
	EventTypeDatasetCompleted EventType = "DATASET_COMPLETED"

	DefaultStream = "stream:vehicle_listings"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// ListingScrapedPayload is the data field of a LISTING_SCRAPED entry.
type ListingScrapedPayload struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	RunID     string                `json:"run_id"`
	Position  int                   `json:"position"`
	Listing   *models.ListingRecord `json:"listing"`
	Source    string                `json:"source"`
}

// DatasetCompletedPayload is the data field of a DATASET_COMPLETED entry.
type DatasetCompletedPayload struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	RecordCount int       `json:"record_count"`
	Source      string    `json:"source"`
}

// StreamSink publishes a dataset to a Redis stream.
type StreamSink struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
	now    func() time.Time
}

func NewStreamSink(client RedisClient, stream string, logger *slog.Logger) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamSink{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "stream_sink"),
		now:    time.Now,
	}
}

func (s *StreamSink) Name() string {
	return "redis"
}

func (s *StreamSink) Stream() string {
	return s.stream
}

// Write publishes every record, then the completion marker. It stops at the
// first failed XAdd, so consumers never see DATASET_COMPLETED for a partial run.
func (s *StreamSink) Write(ctx context.Context, d *dataset.Dataset) error {
	meta := d.Meta()
	runID := meta.RunID.String()

	for i, record := range d.Records() {
		payload := &ListingScrapedPayload{
			EventID:   uuid.New().String(),
			EventType: string(EventTypeListingScraped),
			Timestamp: s.now(),
			RunID:     runID,
			Position:  i,
			Listing:   &record,
			Source:    "scraper",
		}
		if err := s.publish(ctx, payload.EventID, EventTypeListingScraped, runID, payload); err != nil {
			return fmt.Errorf("failed to publish listing %d: %w", i, err)
		}
	}

	done := &DatasetCompletedPayload{
		EventID:     uuid.New().String(),
		EventType:   string(EventTypeDatasetCompleted),
		Timestamp:   s.now(),
		RunID:       runID,
		StartedAt:   meta.StartedAt,
		CompletedAt: meta.CompletedAt,
		RecordCount: d.Len(),
		Source:      "scraper",
	}
	if err := s.publish(ctx, done.EventID, EventTypeDatasetCompleted, runID, done); err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}

	s.logger.Info("published dataset to stream",
		"stream", s.stream,
		"run_id", runID,
		"records", d.Len())

	return nil
}

func (s *StreamSink) publish(ctx context.Context, eventID string, eventType EventType, runID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_id":   eventID,
			"event_type": string(eventType),
			"run_id":     runID,
			"timestamp":  fmt.Sprintf("%d", s.now().UnixNano()),
		},
	}

	if _, err := s.redis.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}
