package memory

import (
	"context"
	"sync"

	domainbooking "stayrate/internal/domain/booking"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

// PropertyRepository is an in-memory implementation for tests and local runs.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.PropertyID]domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.PropertyID]domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrPropertyNotFound
	}
	return &p, nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainproperty.Property, 0, len(r.items))
	for _, p := range r.items {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = *p
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id domainproperty.PropertyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainproperty.ErrPropertyNotFound
	}
	delete(r.items, id)
	return nil
}

// RuleRepository keeps rules by id. Stored rules are cloned on the way in so
// callers never share pointer fields with the store.
type RuleRepository struct {
	mu    sync.RWMutex
	items map[domainrules.RuleID]domainrules.Rule
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{items: make(map[domainrules.RuleID]domainrules.Rule)}
}

func (r *RuleRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.items[id]
	if !ok {
		return nil, domainrules.ErrRuleNotFound
	}
	rule = rule.Clone()
	return &rule, nil
}

func (r *RuleRepository) ByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]domainrules.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainrules.Rule
	for _, rule := range r.items {
		if rule.PropertyID == propertyID {
			out = append(out, rule.Clone())
		}
	}
	return out, nil
}

func (r *RuleRepository) List(ctx context.Context) ([]domainrules.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainrules.Rule, 0, len(r.items))
	for _, rule := range r.items {
		out = append(out, rule.Clone())
	}
	return out, nil
}

func (r *RuleRepository) Save(ctx context.Context, rule *domainrules.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rule.ID] = rule.Clone()
	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrules.ErrRuleNotFound
	}
	delete(r.items, id)
	return nil
}

// BookingRepository stores booking snapshots. Pending events stay with the
// caller's aggregate.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return snapshot(b), nil
}

func (r *BookingRepository) ByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.PropertyID == propertyID {
			out = append(out, snapshot(b))
		}
	}
	return out, nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		out = append(out, snapshot(b))
	}
	return out, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[b.ID]; ok && current.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	stored := snapshot(b)
	stored.Version++
	b.Version = stored.Version
	r.items[b.ID] = stored
	return nil
}

func snapshot(b *domainbooking.Booking) *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         b.ID,
		PropertyID: b.PropertyID,
		Range:      b.Range,
		Quote:      b.Quote.Copy(),
		State:      b.State,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		Version:    b.Version,
	}
}

var (
	_ domainproperty.Repository = (*PropertyRepository)(nil)
	_ domainrules.Repository    = (*RuleRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
)
