package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	appoutbox "stayrate/internal/app/outbox"
)

type fakeQueue struct {
	mu      sync.Mutex
	pending []*Message
	sent    []string
	failed  map[string]time.Time
}

func (q *fakeQueue) Claim(context.Context, string) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	msg := q.pending[0]
	q.pending = q.pending[1:]
	return msg, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	out  []published
	fail map[string]bool
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail[key] {
		return errors.New("broker down")
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func record(id, aggregate string) *Message {
	return &Message{EventRecord: appoutbox.EventRecord{
		ID:         id,
		Name:       "booking.created",
		Payload:    []byte(`{"booking_id":"` + aggregate + `"}`),
		OccurredAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Aggregate:  aggregate,
		Headers:    map[string]string{"content-type": "application/json", "traceparent": "00-abc"},
	}}
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	q := &fakeQueue{pending: []*Message{record("e-1", "b-1"), record("e-2", "b-2")}}
	p := &fakeProducer{}
	w := &Worker{Queue: q, Producer: p, TopicPrefix: "test.", ID: "w-1"}

	n, err := w.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 2 || len(q.sent) != 2 {
		t.Fatalf("sent %d, marked %v", n, q.sent)
	}
	first := p.out[0]
	if first.topic != "test.booking.events.v1" || first.key != "b-1" {
		t.Fatalf("unexpected message: %+v", first)
	}
	if first.headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("headers = %v", first.headers)
	}
	var env map[string]any
	if err := json.Unmarshal(first.payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env["specversion"] != "1.0" || env["type"] != "booking.created.v1" || env["id"] != "e-1" {
		t.Fatalf("envelope = %v", env)
	}
	if env["traceparent"] != "00-abc" {
		t.Fatalf("traceparent lost: %v", env)
	}
}

func TestWorkerSchedulesRetryOnFailure(t *testing.T) {
	now := time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQueue{pending: []*Message{record("e-1", "b-1"), record("e-2", "b-2")}}
	p := &fakeProducer{fail: map[string]bool{"b-1": true}}
	w := &Worker{
		Queue:    q,
		Producer: p,
		Backoff:  []time.Duration{time.Second, time.Minute},
		Now:      func() time.Time { return now },
	}

	n, err := w.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 1 || len(q.sent) != 1 || q.sent[0] != "e-2" {
		t.Fatalf("sent %d %v", n, q.sent)
	}
	if next := q.failed["e-1"]; !next.Equal(now.Add(time.Second)) {
		t.Fatalf("next attempt = %v", next)
	}
}

func TestWorkerRequiresDependencies(t *testing.T) {
	w := &Worker{}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("expected ErrWorkerNotConfigured, got %v", err)
	}
}

func TestDirectPublisherUsesTopicPrefix(t *testing.T) {
	p := &fakeProducer{}
	pub := DirectPublisher{Producer: p, TopicPrefix: "dev."}
	if err := pub.Publish(context.Background(), record("e-1", "b-1").EventRecord); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(p.out) != 1 || p.out[0].topic != "dev.booking.events.v1" {
		t.Fatalf("published = %+v", p.out)
	}
}
