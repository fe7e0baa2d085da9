package generator_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shubham-shewale/livemarket/cmd/generator/internal/generator"
	"github.com/shubham-shewale/livemarket/cmd/generator/internal/testutils"
	"github.com/shubham-shewale/livemarket/pkg/models"
)

func TestPublisher_OneMessagePerQuotePlusBoard(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{}
	mockClock := &testutils.MockClock{CurrentTime: time.Unix(0, 0)}
	symbols := []generator.Symbol{
		{Symbol: "AAPL", SeedPrice: 100},
		{Symbol: "TSLA", SeedPrice: 400},
	}

	// Float 0.5 means no price move
	feed, err := generator.NewFeed(symbols,
		generator.WithClock(mockClock),
		generator.WithRand(&testutils.MockRand{ValFloat: 0.5}),
		generator.WithFeedID("feed-1"),
	)
	require.NoError(t, err)

	pub := generator.NewPublisher(zap.NewNop(), mockWriter)
	require.NoError(t, pub.Publish(context.Background(), feed.Tick()))

	require.Len(t, mockWriter.Messages, 3)
	assert.Equal(t, "AAPL", string(mockWriter.Messages[0].Key))
	assert.Equal(t, "TSLA", string(mockWriter.Messages[1].Key))
	assert.Equal(t, models.BoardMessageKey, string(mockWriter.Messages[2].Key))

	var update models.StockUpdate
	require.NoError(t, json.Unmarshal(mockWriter.Messages[0].Value, &update))
	assert.Equal(t, "AAPL", update.Symbol)
	assert.Equal(t, 100.0, update.Price)
	assert.Equal(t, int64(1), update.SeqID)
	assert.Equal(t, "feed-1", update.FeedID)
	assert.Equal(t, int64(0), update.Timestamp)

	var board models.Board
	require.NoError(t, json.Unmarshal(mockWriter.Messages[2].Value, &board))
	assert.Equal(t, "feed-1", board.FeedID)
	assert.Equal(t, int64(1), board.SeqID)
	require.Len(t, board.Quotes, 2)
	assert.Equal(t, "AAPL", board.Quotes[0].Symbol, "board keeps universe order")
	assert.Equal(t, "TSLA", board.Quotes[1].Symbol)
}

func TestPublisher_SkipsEmptySnapshot(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{ShouldFail: true}
	pub := generator.NewPublisher(zap.NewNop(), mockWriter)

	assert.NoError(t, pub.Publish(context.Background(), generator.Snapshot{}))
}

func TestPublisher_WriteError(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{ShouldFail: true}
	feed, err := generator.NewFeed(tsla())
	require.NoError(t, err)

	pub := generator.NewPublisher(zap.NewNop(), mockWriter)
	assert.Error(t, pub.Publish(context.Background(), feed.Tick()))
}

func TestPublisher_ListenerFollowsTicks(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{}
	feed, err := generator.NewFeed(generator.DefaultUniverse())
	require.NoError(t, err)

	feed.OnTick(generator.NewPublisher(zap.NewNop(), mockWriter).Listener(context.Background()))
	feed.Tick()
	feed.Refresh()

	perTick := len(generator.DefaultUniverse()) + 1
	require.Equal(t, 2*perTick, mockWriter.Count())

	var last models.StockUpdate
	require.NoError(t, json.Unmarshal(mockWriter.Messages[2*perTick-2].Value, &last))
	assert.Equal(t, int64(2), last.SeqID)
	assert.Equal(t, feed.ID(), last.FeedID)

	var board models.Board
	require.NoError(t, json.Unmarshal(mockWriter.Messages[2*perTick-1].Value, &board))
	assert.Equal(t, int64(2), board.SeqID)
	assert.Equal(t, feed.Quotes(), board.Quotes)
}

func TestTopicCreator_Flow(t *testing.T) {
	mockDialer := &testutils.MockKafkaDialer{}
	mockClock := &testutils.MockClock{}

	tc := generator.NewTopicCreator(zap.NewNop(), mockDialer, mockClock)

	require.NoError(t, tc.Create(context.Background(), []string{"broker:9092"}, "my-topic"))
	require.NotNil(t, mockDialer.ConnSpy, "Dialer was never called")
	assert.Equal(t, []string{"my-topic"}, mockDialer.ConnSpy.CreatedTopics)
	assert.Equal(t, []string{"broker:9092", "localhost:9092"}, mockDialer.Dialed)
}

func TestTopicCreator_DialFailure(t *testing.T) {
	mockDialer := &testutils.MockKafkaDialer{Fail: true}
	tc := generator.NewTopicCreator(zap.NewNop(), mockDialer, &testutils.MockClock{})

	assert.Error(t, tc.Create(context.Background(), []string{"a:9092", "b:9092"}, "my-topic"))
	assert.Len(t, mockDialer.Dialed, 2)
}

func TestTopicCreator_NeverReady(t *testing.T) {
	mockDialer := &testutils.MockKafkaDialer{ConnSpy: &testutils.MockKafkaConn{NoPartitions: true}}
	mockClock := &testutils.MockClock{CurrentTime: time.Unix(0, 0)}
	tc := generator.NewTopicCreator(zap.NewNop(), mockDialer, mockClock)

	err := tc.Create(context.Background(), []string{"broker:9092"}, "my-topic")
	assert.ErrorIs(t, err, generator.ErrTopicNotReady)
	assert.Equal(t, time.Unix(1, 0), mockClock.CurrentTime, "five polls of 200ms")
}
