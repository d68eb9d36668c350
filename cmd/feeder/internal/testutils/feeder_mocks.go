package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/publisher"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

type MockClock struct {
	CurrentTime time.Time
	Waits       int
	// OnAfter runs after each wait with the wait count; tests use it to cancel Run.
	OnAfter func(n int)
	Mu      sync.Mutex
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.Mu.Lock()
	m.CurrentTime = m.CurrentTime.Add(d)
	m.Waits++
	n, now, hook := m.Waits, m.CurrentTime, m.OnAfter
	m.Mu.Unlock()

	if hook != nil {
		hook(n)
	}
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// MockProvider answers FetchBatch from Fn, or from Prices when Fn is nil.
type MockProvider struct {
	Prices map[string]float64
	Err    error
	Fn     func(symbols []string) (map[string]float64, error)
	Limit  int

	Calls [][]string
	Mu    sync.Mutex
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) MaxBatch() int { return m.Limit }

func (m *MockProvider) FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	m.Mu.Lock()
	m.Calls = append(m.Calls, append([]string(nil), symbols...))
	fn, prices, err := m.Fn, m.Prices, m.Err
	m.Mu.Unlock()

	if fn != nil {
		return fn(symbols)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, s := range symbols {
		if p, ok := prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

func (m *MockProvider) CallCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Calls)
}

type PublishedUpdate struct {
	Channel string
	Update  models.PriceUpdate
}

// MockBroker records publishes. ConnectErr/PublishErr simulate an unreachable broker.
type MockBroker struct {
	ConnectErr   error
	PublishErr   error
	ConnectCalls int
	Published    []PublishedUpdate
	Closed       bool
	Mu           sync.Mutex
}

var _ publisher.Broker = (*MockBroker)(nil)

func (m *MockBroker) Connect(ctx context.Context) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.ConnectCalls++
	return m.ConnectErr
}

func (m *MockBroker) Publish(ctx context.Context, channel string, update models.PriceUpdate) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, PublishedUpdate{Channel: channel, Update: update})
	return nil
}

func (m *MockBroker) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockBroker) SetConnectErr(err error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.ConnectErr = err
}

func (m *MockBroker) Tickers() []string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	out := make([]string, len(m.Published))
	for i, p := range m.Published {
		out[i] = p.Update.Ticker
	}
	return out
}

type MockPipeline struct {
	redis.Pipeliner // Embed interface to satisfy the rest of Pipeliner

	ExecErr      error
	ExecCount    int
	RecordedCmds []string
	Mu           sync.Mutex
}

func (m *MockPipeline) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RecordedCmds = append(m.RecordedCmds, "SET "+key)
	return redis.NewStatusCmd(ctx)
}

func (m *MockPipeline) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RecordedCmds = append(m.RecordedCmds, "PUBLISH "+channel)
	return redis.NewIntCmd(ctx)
}

func (m *MockPipeline) Exec(ctx context.Context) ([]redis.Cmder, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.ExecCount++
	return nil, m.ExecErr
}

type MockRedisClient struct {
	PipelineSpy *MockPipeline
	PingErr     error
	Closed      bool
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{PipelineSpy: &MockPipeline{}}
}

func (m *MockRedisClient) Pipeline() redis.Pipeliner {
	return m.PipelineSpy
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.PingErr != nil {
		cmd.SetErr(m.PingErr)
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	m.Closed = true
	return nil
}

type MockKafkaWriter struct {
	Messages   []kafka.Message
	Mu         sync.Mutex
	ShouldFail bool
	Closed     bool
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("kafka error")
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

type MockKafkaConn struct {
	CreatedTopics []string
	NotReady      bool
}

func (m *MockKafkaConn) Controller() (kafka.Broker, error) {
	return kafka.Broker{Host: "localhost", Port: 9092}, nil
}
func (m *MockKafkaConn) Close() error { return nil }
func (m *MockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	for _, t := range topics {
		m.CreatedTopics = append(m.CreatedTopics, t.Topic)
	}
	return nil
}
func (m *MockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.NotReady {
		return nil, nil
	}
	return []kafka.Partition{{ID: 0}}, nil
}

type MockKafkaDialer struct {
	ConnSpy *MockKafkaConn
	Err     error
	Dialed  []string
}

func (m *MockKafkaDialer) DialContext(ctx context.Context, network, address string) (publisher.KafkaConn, error) {
	m.Dialed = append(m.Dialed, address)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.ConnSpy == nil {
		m.ConnSpy = &MockKafkaConn{}
	}
	return m.ConnSpy, nil
}
