package kafka

import (
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"courier-dispatch/internal/metrics"
	testlog "courier-dispatch/internal/testutil"
)

type fakeProducer struct {
	mu      sync.Mutex
	sent    []*sarama.ProducerMessage
	sendErr error
	block   chan struct{}
	started chan struct{}
	closed  bool
}

func (f *fakeProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, 0, f.sendErr
	}
	f.sent = append(f.sent, msg)
	return 0, int64(len(f.sent)), nil
}

func (f *fakeProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	for _, m := range msgs {
		if _, _, err := f.SendMessage(m); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProducer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeProducer) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Topic)
	}
	return out
}

func (f *fakeProducer) TxnStatus() sarama.ProducerTxnStatusFlag { return sarama.ProducerTxnFlagReady }
func (f *fakeProducer) IsTransactional() bool                   { return false }
func (f *fakeProducer) BeginTxn() error                         { return nil }
func (f *fakeProducer) CommitTxn() error                        { return nil }
func (f *fakeProducer) AbortTxn() error                         { return nil }
func (f *fakeProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return nil
}
func (f *fakeProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error { return nil }

// swapProducer installs the fake for the test's lifetime. Tests using it must
// not run in parallel.
func swapProducer(t *testing.T, fp *fakeProducer) {
	t.Helper()
	orig := newSyncProducer
	newSyncProducer = func([]string, *sarama.Config) (sarama.SyncProducer, error) {
		return fp, nil
	}
	t.Cleanup(func() { newSyncProducer = orig })
}

func TestPublisher_NilWhenUnconfigured(t *testing.T) {
	t.Parallel()

	p, err := NewPublisher(testlog.New().Logger(), nil, 8, 1, metrics.NewNop())
	require.NoError(t, err)
	require.Nil(t, p)

	// nil publisher is safe to use
	p.Publish("any", map[string]int{"x": 1})
	require.NoError(t, p.Close())
}

func TestPublisher_SendsQueuedMessages(t *testing.T) {
	fp := &fakeProducer{}
	swapProducer(t, fp)

	p, err := NewPublisher(testlog.New().Logger(), []string{"broker:9092"}, 8, 2, metrics.NewNop())
	require.NoError(t, err)
	require.NotNil(t, p)

	p.Publish(TopicDeliveryUpdated, map[string]int64{"id": 1})
	p.Publish(TopicCourierLocation, map[string]int64{"id": 2})
	require.NoError(t, p.Close())

	require.ElementsMatch(t, []string{TopicDeliveryUpdated, TopicCourierLocation}, fp.topics())
	require.True(t, fp.closed)
}

func TestPublisher_DropsOnOverflow(t *testing.T) {
	fp := &fakeProducer{
		block:   make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	swapProducer(t, fp)

	rec := testlog.New()
	p, err := NewPublisher(rec.Logger(), []string{"broker:9092"}, 1, 1, metrics.NewNop())
	require.NoError(t, err)

	// the worker takes the first message and blocks inside SendMessage
	p.Publish("t", 1)
	<-fp.started
	// the queue holds one more; a third cannot fit and is dropped
	p.Publish("t", 2)
	p.Publish("t", 3)
	require.True(t, rec.Contains("warn", "publish queue full, dropping message"))

	close(fp.block)
	require.NoError(t, p.Close())
	require.Len(t, fp.topics(), 2)
}

func TestPublisher_SendFailureIsLoggedNotFatal(t *testing.T) {
	fp := &fakeProducer{sendErr: errors.New("broker gone")}
	swapProducer(t, fp)

	rec := testlog.New()
	p, err := NewPublisher(rec.Logger(), []string{"broker:9092"}, 8, 1, metrics.NewNop())
	require.NoError(t, err)

	p.Publish("t", 1)
	require.NoError(t, p.Close())
	require.True(t, rec.Contains("error", "publish failed"))
}

func TestPublisher_MarshalFailure(t *testing.T) {
	fp := &fakeProducer{}
	swapProducer(t, fp)

	rec := testlog.New()
	p, err := NewPublisher(rec.Logger(), []string{"broker:9092"}, 8, 1, metrics.NewNop())
	require.NoError(t, err)

	p.Publish("t", func() {}) // functions have no JSON form
	require.NoError(t, p.Close())
	require.True(t, rec.Contains("error", "publish marshal failed"))
	require.Empty(t, fp.topics())
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	fp := &fakeProducer{}
	swapProducer(t, fp)

	p, err := NewPublisher(testlog.New().Logger(), []string{"broker:9092"}, 8, 1, metrics.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
