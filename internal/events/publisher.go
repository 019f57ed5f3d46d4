// Package events publishes pipeline results to Redis streams so other
// services can follow prices without reading the spreadsheets.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/price-ledger/internal/models"
)

type EventType string

const (
	EventTypePriceObserved    EventType = "PRICE_OBSERVED"
	EventTypeLookupReconciled EventType = "LOOKUP_RECONCILED"
)

const (
	DefaultPriceStream  = "stream:price_observed"
	DefaultLookupStream = "stream:lookup_reconciled"

	source = "price-ledger"
)

// RedisClient is the part of *redis.Client the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

type Envelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Source      string          `json:"source"`
	RunID       string          `json:"run_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

type PriceObservedPayload struct {
	Name         string    `json:"name"`
	PackWeight   string    `json:"pack_weight,omitempty"`
	OverallPrice *float64  `json:"overall_price,omitempty"`
	PricePerUnit *float64  `json:"price_per_unit,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	URL          string    `json:"url,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

type LookupReconciledPayload struct {
	Entries   int      `json:"entries"`
	Added     int      `json:"added"`
	Conflicts int      `json:"conflicts"`
	Stores    []string `json:"conflicting_stores,omitempty"`
}

type Publisher struct {
	redis        RedisClient
	priceStream  string
	lookupStream string
	runID        string
	now          func() time.Time
	logger       *slog.Logger
}

type Option func(*Publisher)

func WithPriceStream(stream string) Option {
	return func(p *Publisher) {
		if stream != "" {
			p.priceStream = stream
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher tags every event with a fresh run ID so consumers can group
// the events of one tool invocation.
func NewPublisher(client RedisClient, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		redis:        client,
		priceStream:  DefaultPriceStream,
		lookupStream: DefaultLookupStream,
		runID:        uuid.New().String(),
		now:          time.Now,
		logger:       logger.With("component", "event_publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) RunID() string {
	return p.runID
}

func (p *Publisher) PublishPriceObserved(ctx context.Context, rec *models.HistoryRecord) error {
	payload := PriceObservedPayload{
		Name:         rec.Name,
		PackWeight:   rec.PackWeight,
		OverallPrice: rec.OverallPrice,
		PricePerUnit: rec.PricePerUnit,
		Unit:         rec.Unit,
		URL:          rec.URL,
		ScrapedAt:    rec.ScrapedAt,
	}
	return p.publish(ctx, p.priceStream, EventTypePriceObserved, rec.Name, payload)
}

func (p *Publisher) PublishLookupReconciled(ctx context.Context, payload LookupReconciledPayload) error {
	return p.publish(ctx, p.lookupStream, EventTypeLookupReconciled, "lookup", payload)
}

func (p *Publisher) publish(ctx context.Context, stream string, eventType EventType, aggregateID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	env := Envelope{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Timestamp:   p.now().UTC(),
		Source:      source,
		RunID:       p.runID,
		Payload:     data,
	}
	envJSON, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":         string(envJSON),
			"type":         string(eventType),
			"event_id":     env.ID,
			"aggregate_id": aggregateID,
			"timestamp":    fmt.Sprintf("%d", env.Timestamp.UnixNano()),
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", eventType,
		"event_id", env.ID,
		"stream", stream,
		"stream_id", id,
		"aggregate_id", aggregateID)
	return nil
}

// NewRedisClient connects and pings. Callers close the returned client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", addr, err)
	}
	return client, nil
}
