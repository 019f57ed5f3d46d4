package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-ledger/internal/models"
)

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestPublisher_PublishPriceObserved(t *testing.T) {
	ctx := context.Background()
	mockRedis := new(MockRedisClient)

	var captured *redis.XAddArgs
	mockRedis.On("XAdd", ctx, mock.AnythingOfType("*redis.XAddArgs")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*redis.XAddArgs) }).
		Return(nil)

	p := NewPublisher(mockRedis, slog.Default(), WithPriceStream("stream:test_prices"), WithClock(fixedClock))

	price := 1.85
	rec := &models.HistoryRecord{
		Name:         "Oat Milk",
		PackWeight:   "1L",
		OverallPrice: &price,
		URL:          "https://shop.example/p/oat-milk",
		ScrapedAt:    fixedClock(),
	}
	require.NoError(t, p.PublishPriceObserved(ctx, rec))
	mockRedis.AssertExpectations(t)

	require.NotNil(t, captured)
	assert.Equal(t, "stream:test_prices", captured.Stream)

	values := captured.Values.(map[string]interface{})
	assert.Equal(t, "PRICE_OBSERVED", values["type"])
	assert.Equal(t, "Oat Milk", values["aggregate_id"])

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &env))
	assert.Equal(t, values["event_id"], env.ID)
	assert.Equal(t, p.RunID(), env.RunID)
	assert.Equal(t, "price-ledger", env.Source)
	assert.True(t, fixedClock().Equal(env.Timestamp))

	var payload PriceObservedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "1L", payload.PackWeight)
	require.NotNil(t, payload.OverallPrice)
	assert.Equal(t, 1.85, *payload.OverallPrice)
	assert.Nil(t, payload.PricePerUnit)
}

func TestPublisher_PublishLookupReconciled(t *testing.T) {
	ctx := context.Background()
	mockRedis := new(MockRedisClient)
	mockRedis.On("XAdd", ctx, mock.MatchedBy(func(a *redis.XAddArgs) bool {
		return a.Stream == DefaultLookupStream
	})).Return(nil)

	p := NewPublisher(mockRedis, slog.Default())
	err := p.PublishLookupReconciled(ctx, LookupReconciledPayload{Entries: 10, Added: 2, Conflicts: 1, Stores: []string{"Tesco"}})

	require.NoError(t, err)
	mockRedis.AssertExpectations(t)
}

func TestPublisher_RedisError(t *testing.T) {
	ctx := context.Background()
	mockRedis := new(MockRedisClient)
	mockRedis.On("XAdd", ctx, mock.Anything).Return(errors.New("connection refused"))

	p := NewPublisher(mockRedis, slog.Default())
	err := p.PublishPriceObserved(ctx, models.NewHistoryRecord("https://shop.example", fixedClock()))

	assert.ErrorContains(t, err, "failed to publish to redis")
}

func TestNewPublisher_RunIDsDiffer(t *testing.T) {
	a := NewPublisher(new(MockRedisClient), slog.Default())
	b := NewPublisher(new(MockRedisClient), slog.Default())

	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestWithPriceStream_EmptyKeepsDefault(t *testing.T) {
	p := NewPublisher(new(MockRedisClient), slog.Default(), WithPriceStream(""))
	assert.Equal(t, DefaultPriceStream, p.priceStream)
}
