package properties

import (
	"context"
	"errors"
	"testing"
	"time"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/dto"
	"stayrate/internal/app/middleware"
	"stayrate/internal/app/queries"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/infra/storage/memory"
)

func setup(t *testing.T) (memory.Factory, commands.Bus, queries.Bus) {
	t.Helper()
	factory := memory.NewFactory()
	now := func() time.Time { return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC) }
	ids := []string{"p1", "p2", "p3"}
	next := 0
	newID := func() string {
		id := ids[next]
		next++
		return id
	}
	cmdBus := commands.NewInMemoryBus()
	commands.Register[CreatePropertyCommand, CreatePropertyResult](cmdBus, &CreatePropertyHandler{Now: now, NewID: newID})
	commands.Register[UpdatePropertyCommand, struct{}](cmdBus, &UpdatePropertyHandler{Now: now})
	commands.Register[DeletePropertyCommand, struct{}](cmdBus, &DeletePropertyHandler{})
	qBus := queries.NewInMemoryBus()
	queries.Register[GetPropertyQuery, dto.Property](qBus, &GetPropertyHandler{UoWFactory: factory})
	queries.Register[ListPropertiesQuery, dto.PropertyCollection](qBus, &ListPropertiesHandler{UoWFactory: factory})
	return factory, middleware.ChainCommands(cmdBus, middleware.Transaction(factory, nil)), qBus
}

func TestPropertyLifecycle(t *testing.T) {
	factory, cmds, qs := setup(t)
	ctx := context.Background()

	created, err := commands.Dispatch[CreatePropertyCommand, CreatePropertyResult](ctx, cmds, CreatePropertyCommand{Name: " Cabin ", BasePrice: 10})
	if err != nil {
		t.Fatal(err)
	}
	if created.PropertyID != "p1" {
		t.Fatalf("id = %s", created.PropertyID)
	}
	if _, err := commands.Dispatch[UpdatePropertyCommand, struct{}](ctx, cmds, UpdatePropertyCommand{PropertyID: "p1", BasePrice: 12.5}); err != nil {
		t.Fatal(err)
	}
	got, err := queries.Ask[GetPropertyQuery, dto.Property](ctx, qs, GetPropertyQuery{PropertyID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Cabin" || got.BasePrice != 12.5 {
		t.Errorf("property = %+v", got)
	}

	rule, err := domainrules.New(domainrules.CreateParams{ID: "r1", PropertyID: "p1", FixedPrice: ptr(5.0), MinStayLength: ptr(2)})
	if err != nil {
		t.Fatal(err)
	}
	if err := factory.RuleRepo.Save(ctx, rule); err != nil {
		t.Fatal(err)
	}
	if _, err := commands.Dispatch[DeletePropertyCommand, struct{}](ctx, cmds, DeletePropertyCommand{PropertyID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := queries.Ask[GetPropertyQuery, dto.Property](ctx, qs, GetPropertyQuery{PropertyID: "p1"}); !errors.Is(err, domainproperty.ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound, got %v", err)
	}
	if _, err := factory.RuleRepo.ByID(ctx, "r1"); !errors.Is(err, domainrules.ErrRuleNotFound) {
		t.Errorf("rules of a deleted property must be removed, got %v", err)
	}
}

func TestCreatePropertyRejectsNegativePrice(t *testing.T) {
	_, cmds, _ := setup(t)
	_, err := commands.Dispatch[CreatePropertyCommand, CreatePropertyResult](context.Background(), cmds, CreatePropertyCommand{Name: "x", BasePrice: -1})
	if !errors.Is(err, domainproperty.ErrInvalidBasePrice) {
		t.Fatalf("expected ErrInvalidBasePrice, got %v", err)
	}
}

func TestListPropertiesOrdered(t *testing.T) {
	_, cmds, qs := setup(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B"} {
		if _, err := commands.Dispatch[CreatePropertyCommand, CreatePropertyResult](ctx, cmds, CreatePropertyCommand{Name: name, BasePrice: 1}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := queries.Ask[ListPropertiesQuery, dto.PropertyCollection](ctx, qs, ListPropertiesQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 2 || list.Items[0].ID != "p1" || list.Items[1].ID != "p2" {
		t.Errorf("items = %+v", list.Items)
	}
}

func ptr[T any](v T) *T { return &v }
