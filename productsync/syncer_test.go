package productsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/metasync/catalog"
	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/product"
)

type fakeBatcher struct {
	mu      sync.Mutex
	calls   [][]catalog.BatchRequest
	failFor map[int]error
}

func (f *fakeBatcher) ItemsBatch(ctx context.Context, catalogID string, requests []catalog.BatchRequest) (*catalog.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, requests)
	if err, ok := f.failFor[len(requests)]; ok {
		return nil, err
	}
	return &catalog.BatchResponse{Handles: []string{fmt.Sprintf("h-%s", retailerIDOf(requests[0]))}}, nil
}

type tagExcluder string

func (t tagExcluder) Excluded(p product.Product) (string, bool) {
	for _, tag := range p.Tags {
		if tag == string(t) {
			return "tag", true
		}
	}
	return "", false
}

func validProduct(id int64) product.Product {
	return product.Product{
		ID:       id,
		Title:    fmt.Sprintf("Product %d", id),
		Price:    10,
		Currency: "USD",
		URL:      fmt.Sprintf("https://shop.test/p/%d", id),
	}
}

func TestQueueReplacesPendingChange(t *testing.T) {
	q := NewQueue()
	q.Put("a", catalog.BatchRequest{Method: catalog.MethodUpdate, Data: map[string]any{"id": "a"}})
	q.Put("b", catalog.BatchRequest{Method: catalog.MethodUpdate, Data: map[string]any{"id": "b"}})
	q.Put("a", catalog.BatchRequest{Method: catalog.MethodDelete, Data: map[string]any{"id": "a"}})

	assert.Equal(t, 2, q.Len())
	reqs := q.Drain()
	require.Len(t, reqs, 2)
	assert.Equal(t, catalog.MethodDelete, reqs[0].Method)
	assert.Equal(t, "b", retailerIDOf(reqs[1]))
	assert.Zero(t, q.Len())
}

func TestUpdateRoutesSkippedProductsToDelete(t *testing.T) {
	s := New(&fakeBatcher{}, "42", zerolog.Nop(), WithExcluder(tagExcluder("no-facebook")))

	ok := validProduct(1)
	draft := validProduct(2)
	draft.Status = "draft"
	excluded := validProduct(3)
	excluded.Tags = []string{"no-facebook"}
	invalid := product.Product{ID: 4}

	for _, p := range []product.Product{ok, draft, excluded, invalid} {
		s.Update(p)
	}

	tests := []struct {
		id     string
		method string
	}{
		{"wc_post_id_1", catalog.MethodUpdate},
		{"wc_post_id_2", catalog.MethodDelete},
		{"wc_post_id_3", catalog.MethodDelete},
		{"wc_post_id_4", catalog.MethodDelete},
	}
	for _, tt := range tests {
		req, ok := s.Queue().Get(tt.id)
		require.True(t, ok, tt.id)
		assert.Equal(t, tt.method, req.Method, tt.id)
	}

	req, _ := s.Queue().Get("wc_post_id_1")
	assert.Equal(t, "10.00 USD", req.Data["price"])
	req, _ = s.Queue().Get("wc_post_id_2")
	assert.Equal(t, map[string]any{"id": "wc_post_id_2"}, req.Data)
}

func TestUpdateIgnoresVariableParents(t *testing.T) {
	s := New(&fakeBatcher{}, "42", zerolog.Nop())

	parent := validProduct(10)
	parent.Type = product.TypeVariable
	variation := validProduct(11)
	variation.ParentID = 10

	s.Update(parent)
	s.Update(variation)

	_, ok := s.Queue().Get("wc_post_id_10")
	assert.False(t, ok, "variable parents must not become catalog items")
	req, ok := s.Queue().Get("wc_post_id_11")
	require.True(t, ok)
	assert.Equal(t, catalog.MethodUpdate, req.Method)
	assert.Equal(t, "wc_post_id_10", req.Data["item_group_id"])
	assert.Equal(t, 1, s.Queue().Len())
}

func TestFlushChunks(t *testing.T) {
	batcher := &fakeBatcher{}
	s := New(batcher, "42", zerolog.Nop(), WithBatchSize(2), WithConcurrency(2))

	for id := int64(1); id <= 5; id++ {
		s.Update(validProduct(id))
	}

	result := s.Flush(context.Background())
	require.NoError(t, result.Err())
	assert.Equal(t, 5, result.Requests)
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, []string{"h-wc_post_id_1", "h-wc_post_id_3", "h-wc_post_id_5"}, result.Handles)
	assert.Len(t, batcher.calls, 3)
	assert.Zero(t, s.Queue().Len())
}

func TestFlushRequeuesFailedBatches(t *testing.T) {
	throttled := &graph.RateLimitError{Bucket: graph.BucketCatalog, ThrottleEnd: time.Now().Add(time.Minute)}
	batcher := &fakeBatcher{failFor: map[int]error{1: throttled}}
	s := New(batcher, "42", zerolog.Nop(), WithBatchSize(2))

	for id := int64(1); id <= 3; id++ {
		s.Update(validProduct(id))
	}

	result := s.Flush(context.Background())
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.True(t, graph.IsRateLimited(result.Err()))
	assert.Equal(t, []string{"h-wc_post_id_1"}, result.Handles)

	_, ok := s.Queue().Get("wc_post_id_3")
	assert.True(t, ok, "failed change must be requeued")
	assert.Equal(t, 1, s.Queue().Len())
}

func TestRequeueKeepsNewerChange(t *testing.T) {
	q := NewQueue()
	q.Put("a", catalog.BatchRequest{Method: catalog.MethodDelete, Data: map[string]any{"id": "a"}})
	q.requeue([]catalog.BatchRequest{{Method: catalog.MethodUpdate, Data: map[string]any{"id": "a"}}})

	req, _ := q.Get("a")
	assert.Equal(t, catalog.MethodDelete, req.Method)
}

func TestFlushEmpty(t *testing.T) {
	batcher := &fakeBatcher{}
	result := New(batcher, "42", zerolog.Nop()).Flush(context.Background())
	assert.Zero(t, result.Requests)
	assert.Empty(t, batcher.calls)
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		method  string
		wantErr bool
	}{
		{"update", `{"method":"update","product":{"id":7,"title":"Mug"}}`, "UPDATE", false},
		{"delete", `{"method":"DELETE","product":{"id":7}}`, "DELETE", false},
		{"unknown method", `{"method":"PATCH","product":{"id":7}}`, "", true},
		{"missing id", `{"method":"UPDATE","product":{}}`, "", true},
		{"malformed", `{`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeEvent([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.method, event.Method)
			assert.Equal(t, int64(7), event.Product.ID)
		})
	}
}

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	commitErr error
	block     bool
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) == 0 {
		r.mu.Unlock()
		if r.block {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		}
		return kafka.Message{}, io.EOF
	}
	defer r.mu.Unlock()
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var offsets []int64
	for _, msg := range r.committed {
		offsets = append(offsets, msg.Offset)
	}
	return offsets
}

func (r *fakeReader) remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func productEvents() []kafka.Message {
	return []kafka.Message{
		{Offset: 10, Value: []byte(`{"method":"UPDATE","product":{"id":1,"title":"Mug","price":5,"currency":"USD","url":"https://shop.test/mug"}}`)},
		{Offset: 11, Value: []byte(`not json`)},
		{Offset: 12, Value: []byte(`{"method":"DELETE","product":{"id":2,"sku":"cup"}}`)},
	}
}

func TestKafkaSourceConsume(t *testing.T) {
	s := New(&fakeBatcher{}, "42", zerolog.Nop())
	reader := &fakeReader{messages: productEvents()}

	source := NewKafkaSourceWithReader(reader, s, zerolog.Nop())
	err := source.Consume(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, io.EOF))

	req, ok := s.Queue().Get("wc_post_id_1")
	require.True(t, ok)
	assert.Equal(t, catalog.MethodUpdate, req.Method)

	req, ok = s.Queue().Get("cup_2")
	require.True(t, ok)
	assert.Equal(t, catalog.MethodDelete, req.Method)
	assert.Equal(t, 2, s.Queue().Len())

	assert.Empty(t, reader.offsets(), "offsets must not be committed before the changes are sent")
	assert.Equal(t, 3, source.Uncommitted())
}

func TestKafkaSourceCommitsAfterFlush(t *testing.T) {
	batcher := &fakeBatcher{}
	s := New(batcher, "42", zerolog.Nop())
	reader := &fakeReader{messages: productEvents()}
	source := NewKafkaSourceWithReader(reader, s, zerolog.Nop())
	require.Error(t, source.Consume(context.Background()))

	result, err := source.Flush(context.Background())
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Len(t, batcher.calls, 1)
	assert.Equal(t, []int64{10, 11, 12}, reader.offsets())
	assert.Zero(t, source.Uncommitted())
}

func TestKafkaSourceHoldsCommitsWhileBatchFails(t *testing.T) {
	batcher := &fakeBatcher{failFor: map[int]error{2: errors.New("graph unavailable")}}
	s := New(batcher, "42", zerolog.Nop())
	reader := &fakeReader{messages: productEvents()}
	source := NewKafkaSourceWithReader(reader, s, zerolog.Nop())
	require.Error(t, source.Consume(context.Background()))

	result, err := source.Flush(context.Background())
	require.NoError(t, err)
	assert.Error(t, result.Err())
	assert.Empty(t, reader.offsets())
	assert.Equal(t, 3, source.Uncommitted())
	assert.Equal(t, 2, s.Queue().Len())

	batcher.failFor = nil
	result, err = source.Flush(context.Background())
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Equal(t, []int64{10, 11, 12}, reader.offsets())
	assert.Zero(t, source.Uncommitted())
}

func TestKafkaSourceCommitFailure(t *testing.T) {
	s := New(&fakeBatcher{}, "42", zerolog.Nop())
	reader := &fakeReader{messages: productEvents(), commitErr: errors.New("coordinator moved")}
	source := NewKafkaSourceWithReader(reader, s, zerolog.Nop())
	require.Error(t, source.Consume(context.Background()))

	_, err := source.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, source.Uncommitted())
}

func TestKafkaSourceRunFlushesOnShutdown(t *testing.T) {
	batcher := &fakeBatcher{}
	s := New(batcher, "42", zerolog.Nop())
	reader := &fakeReader{messages: productEvents(), block: true}
	source := NewKafkaSourceWithReader(reader, s, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- source.Run(ctx, time.Hour)
	}()

	require.Eventually(t, func() bool {
		return reader.remaining() == 0 && source.Uncommitted() == 3
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, []int64{10, 11, 12}, reader.offsets())
	assert.Zero(t, s.Queue().Len())
	assert.True(t, reader.closed)
}

func TestKafkaSourceRunDefaultsInterval(t *testing.T) {
	s := New(&fakeBatcher{}, "42", zerolog.Nop())
	reader := &fakeReader{}
	source := NewKafkaSourceWithReader(reader, s, zerolog.Nop())

	assert.NotPanics(t, func() {
		err := source.Run(context.Background(), 0)
		assert.ErrorIs(t, err, io.EOF)
	})
	assert.True(t, reader.closed)
}

func TestNewKafkaSourceValidation(t *testing.T) {
	s := New(&fakeBatcher{}, "42", zerolog.Nop())

	_, err := NewKafkaSource(KafkaConfig{}, s, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewKafkaSource(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "products"}, s, zerolog.Nop())
	assert.Error(t, err)
}

func TestSyncerRunDefaultsInterval(t *testing.T) {
	batcher := &fakeBatcher{}
	s := New(batcher, "42", zerolog.Nop())
	s.Update(validProduct(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		s.Run(ctx, 0)
	})
	assert.Len(t, batcher.calls, 1)
	assert.Zero(t, s.Queue().Len())
}
