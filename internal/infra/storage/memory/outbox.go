package memory

import (
	"context"
	"sync"

	appoutbox "stayrate/internal/app/outbox"
)

// Publisher ships event records to a broker.
type Publisher interface {
	Publish(ctx context.Context, rec appoutbox.EventRecord) error
}

// Outbox buffers records until Flush. With a Publisher set, Flush publishes
// them in order and keeps whatever failed for the next flush.
type Outbox struct {
	mu        sync.Mutex
	records   []appoutbox.EventRecord
	publisher Publisher
	published int
}

func NewOutbox(publisher Publisher) *Outbox {
	return &Outbox{publisher: publisher}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.publisher == nil {
		o.published += len(o.records)
		o.records = nil
		return nil
	}
	for i, rec := range o.records {
		if err := o.publisher.Publish(ctx, rec); err != nil {
			o.records = o.records[i:]
			return err
		}
		o.published++
	}
	o.records = nil
	return nil
}

// Pending returns the number of records not yet flushed.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

// Published returns the number of records flushed so far.
func (o *Outbox) Published() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.published
}

var _ appoutbox.Outbox = (*Outbox)(nil)
