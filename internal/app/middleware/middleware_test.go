package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/outbox"
	"stayrate/internal/app/uow"
	domainbooking "stayrate/internal/domain/booking"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
)

type result struct {
	ID string `json:"id"`
}

type echoCommand struct {
	Value   string
	IdemKey string
}

func (echoCommand) Key() string               { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.IdemKey }
func (echoCommand) ResultPrototype() any       { return &result{} }

type fakeUnit struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (u *fakeUnit) Properties() domainproperty.Repository { return nil }
func (u *fakeUnit) Rules() domainrules.Repository         { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository    { return nil }
func (u *fakeUnit) Commit(context.Context) error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	return nil
}
func (u *fakeUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units     []*fakeUnit
	commitErr error
}

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{commitErr: f.commitErr}
	f.units = append(f.units, u)
	return u, nil
}

type memoryStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *memoryStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memoryStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[string]IdempotencyRecord)
	}
	s.items[rec.Key] = rec
	return nil
}

type countingOutbox struct {
	flushes int
}

func (o *countingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(context.Context) error {
	o.flushes++
	return nil
}

func echoBus(calls *int, fail error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.Register[echoCommand, result](bus, commands.HandlerFunc[echoCommand, result](func(ctx context.Context, cmd echoCommand) (result, error) {
		*calls++
		if fail != nil {
			return result{}, fail
		}
		if _, ok := uow.FromContext(ctx); !ok {
			return result{}, uow.ErrUnitOfWorkMissing
		}
		return result{ID: cmd.Value}, nil
	}))
	return bus
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	calls := 0
	factory := &fakeFactory{}
	bus := ChainCommands(echoBus(&calls, nil), Transaction(factory, nil))
	res, err := commands.Dispatch[echoCommand, result](context.Background(), bus, echoCommand{Value: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "a" {
		t.Errorf("result = %+v", res)
	}
	if len(factory.units) != 1 || !factory.units[0].committed || factory.units[0].rolledBack {
		t.Errorf("unexpected unit state: %+v", factory.units[0])
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	factory := &fakeFactory{}
	bus := ChainCommands(echoBus(&calls, boom), Transaction(factory, nil))
	if _, err := bus.Dispatch(context.Background(), echoCommand{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if factory.units[0].committed || !factory.units[0].rolledBack {
		t.Errorf("unexpected unit state: %+v", factory.units[0])
	}
}

func hookBus(ran *[]string, fail error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.Register[echoCommand, result](bus, commands.HandlerFunc[echoCommand, result](func(ctx context.Context, cmd echoCommand) (result, error) {
		uow.AfterCommit(ctx, func(context.Context) { *ran = append(*ran, cmd.Value) })
		if fail != nil {
			return result{}, fail
		}
		return result{ID: cmd.Value}, nil
	}))
	return bus
}

func TestAfterCommitHooksRunOnlyOnCommit(t *testing.T) {
	var ran []string
	bus := ChainCommands(hookBus(&ran, nil), Transaction(&fakeFactory{}, nil))
	if _, err := bus.Dispatch(context.Background(), echoCommand{Value: "ok"}); err != nil {
		t.Fatal(err)
	}
	if len(ran) != 1 || ran[0] != "ok" {
		t.Fatalf("hooks after commit = %v", ran)
	}

	ran = nil
	boom := errors.New("boom")
	bus = ChainCommands(hookBus(&ran, boom), Transaction(&fakeFactory{}, nil))
	if _, err := bus.Dispatch(context.Background(), echoCommand{Value: "handler"}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	conflict := errors.New("write conflict")
	bus = ChainCommands(hookBus(&ran, nil), Transaction(&fakeFactory{commitErr: conflict}, nil))
	if _, err := bus.Dispatch(context.Background(), echoCommand{Value: "commit"}); !errors.Is(err, conflict) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("hooks ran without a commit: %v", ran)
	}
}

type lockedHookCommand struct{ key string }

func (lockedHookCommand) Key() string       { return "test.locked_hook" }
func (c lockedHookCommand) LockKey() string { return c.key }

func TestCommitHooksRunAfterLockIsReleased(t *testing.T) {
	locks := NewKeyedMutex()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var (
		lockFree bool
		hookErr  error
	)
	bus := commands.NewInMemoryBus()
	commands.Register[lockedHookCommand, struct{}](bus, commands.HandlerFunc[lockedHookCommand, struct{}](func(ctx context.Context, cmd lockedHookCommand) (struct{}, error) {
		uow.AfterCommit(ctx, func(hookCtx context.Context) {
			hookErr = hookCtx.Err()
			tryCtx, stop := context.WithTimeout(context.Background(), 5*time.Millisecond)
			defer stop()
			if unlock, err := locks.Lock(tryCtx, cmd.key); err == nil {
				lockFree = true
				unlock()
			}
		})
		// the client goes away before the command finishes
		cancel()
		return struct{}{}, nil
	}))
	wrapped := ChainCommands(bus, CommitHooks(time.Second), Serialize(locks), Transaction(&fakeFactory{}, nil))
	if _, err := wrapped.Dispatch(ctx, lockedHookCommand{key: "p1"}); err != nil {
		t.Fatal(err)
	}
	if !lockFree {
		t.Error("hook ran while the property lock was held")
	}
	if hookErr != nil {
		t.Errorf("hook context already done: %v", hookErr)
	}
}

func TestCommitHooksSkippedWhenCommitFails(t *testing.T) {
	var ran []string
	conflict := errors.New("write conflict")
	bus := ChainCommands(hookBus(&ran, nil), CommitHooks(0), Transaction(&fakeFactory{commitErr: conflict}, nil))
	if _, err := bus.Dispatch(context.Background(), echoCommand{Value: "x"}); !errors.Is(err, conflict) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("hooks ran without a commit: %v", ran)
	}
}

func TestAfterCommitWithoutTransactionRunsNow(t *testing.T) {
	ran := false
	uow.AfterCommit(context.Background(), func(context.Context) { ran = true })
	if !ran {
		t.Error("hook outside a transaction must run immediately")
	}
}

func TestIdempotencyReplaysSuccessfulResult(t *testing.T) {
	calls := 0
	bus := ChainCommands(echoBus(&calls, nil), Idempotency(&memoryStore{}, nil), Transaction(&fakeFactory{}, nil))
	ctx := context.Background()
	first, err := commands.Dispatch[echoCommand, result](ctx, bus, echoCommand{Value: "a", IdemKey: "k1"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := commands.Dispatch[echoCommand, result](ctx, bus, echoCommand{Value: "b", IdemKey: "k1"})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("handler called %d times", calls)
	}
	if first != second {
		t.Errorf("replayed %+v, want %+v", second, first)
	}
	if _, err := commands.Dispatch[echoCommand, result](ctx, bus, echoCommand{Value: "c"}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("commands without a key must not be deduplicated")
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	store := &memoryStore{}
	bus := ChainCommands(echoBus(&calls, boom), Idempotency(store, nil))
	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(context.Background(), echoCommand{IdemKey: "k1"}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
	if len(store.items) != 0 {
		t.Errorf("failures must not be stored")
	}
}

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	calls := 0
	box := &countingOutbox{}
	bus := ChainCommands(echoBus(&calls, nil), Transaction(&fakeFactory{}, nil), OutboxFlush(box))
	if _, err := bus.Dispatch(context.Background(), echoCommand{}); err != nil {
		t.Fatal(err)
	}
	failing := ChainCommands(echoBus(&calls, errors.New("x")), OutboxFlush(box))
	_, _ = failing.Dispatch(context.Background(), echoCommand{})
	if box.flushes != 1 {
		t.Errorf("flushes = %d, want 1", box.flushes)
	}
}

type rejectAll struct{ err error }

func (v rejectAll) Validate(context.Context, any) error { return v.err }

func TestValidationShortCircuits(t *testing.T) {
	calls := 0
	invalid := errors.New("invalid")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := ChainCommands(echoBus(&calls, nil), Logging(logger), Validation(rejectAll{err: invalid}))
	if _, err := bus.Dispatch(context.Background(), echoCommand{}); !errors.Is(err, invalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if calls != 0 {
		t.Errorf("handler must not run")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	bus := commands.NewInMemoryBus()
	if _, err := bus.Dispatch(context.Background(), echoCommand{}); !errors.Is(err, commands.ErrHandlerNotFound) {
		t.Fatalf("expected ErrHandlerNotFound, got %v", err)
	}
}

type lockedCommand struct{ key string }

func (lockedCommand) Key() string       { return "test.locked" }
func (c lockedCommand) LockKey() string { return c.key }

func TestSerializeRunsSameKeyOneAtATime(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	bus := commands.NewInMemoryBus()
	commands.Register[lockedCommand, struct{}](bus, commands.HandlerFunc[lockedCommand, struct{}](func(ctx context.Context, cmd lockedCommand) (struct{}, error) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return struct{}{}, nil
	}))
	locks := NewKeyedMutex()
	wrapped := ChainCommands(bus, Serialize(locks))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := wrapped.Dispatch(context.Background(), lockedCommand{key: "p1"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", maxSeen)
	}
	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Errorf("locks not released: %d", len(locks.locks))
	}
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	locks := NewKeyedMutex()
	unlock, err := locks.Lock(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, "p1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	unlock()
	again, err := locks.Lock(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	again()
}
