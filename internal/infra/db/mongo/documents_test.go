package mongo

import (
	"testing"
	"time"

	domainbooking "stayrate/internal/domain/booking"
	domainpricing "stayrate/internal/domain/pricing"
	domainproperty "stayrate/internal/domain/property"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/domain/shared/daterange"
	"stayrate/internal/domain/shared/money"
)

func TestBookingDocumentKeepsExactAmounts(t *testing.T) {
	dr, err := daterange.Parse("2022-01-01", "2022-01-02")
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}
	amount, err := parseMoney("45.45")
	if err != nil {
		t.Fatalf("parse money: %v", err)
	}
	total, _ := parseMoney("90.9")
	b := &domainbooking.Booking{
		ID:         "b-1",
		PropertyID: "p-1",
		Range:      dr,
		Quote: domainpricing.Quote{
			Days: []domainpricing.DayCharge{
				{Date: dr.Start, Amount: amount, Source: domainpricing.SourceMinStay, RuleID: "r-1"},
				{Date: dr.End, Amount: amount, Source: domainpricing.SourceMinStay, RuleID: "r-1"},
			},
			Total:   total,
			Applied: []domainrules.RuleID{"r-1"},
		},
		State:     domainbooking.StateConfirmed,
		CreatedAt: time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC),
		Version:   3,
	}

	doc := newBookingDocument(b)
	if doc.Total != "90.9" || doc.StartDate != "2022-01-01" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	got, err := doc.toAggregate()
	if err != nil {
		t.Fatalf("toAggregate: %v", err)
	}
	if !got.Quote.Total.Amount.Equal(total.Amount) {
		t.Fatalf("total = %s", got.Quote.Total.Amount)
	}
	if len(got.Quote.Days) != 2 || got.Quote.Days[1].RuleID != "r-1" {
		t.Fatalf("days = %+v", got.Quote.Days)
	}
	if got.Version != 3 || got.State != domainbooking.StateConfirmed {
		t.Fatalf("unexpected booking: %+v", got)
	}
}

func TestRuleDocumentDoesNotValidate(t *testing.T) {
	mod := 0.5
	day := "2022-01-03"
	doc := ruleDocument{ID: "r-1", PropertyID: "p-1", PriceModifier: &mod, SpecificDay: &day}
	// a specific-day rule with only a modifier is stored as-is
	rule, err := doc.toEntity()
	if err != nil {
		t.Fatalf("toEntity: %v", err)
	}
	if d, ok := rule.Day(); !ok || d.Format(daterange.Layout) != day {
		t.Fatalf("day = %v %v", d, ok)
	}
	back := newRuleDocument(&rule)
	if back.SpecificDay == nil || *back.SpecificDay != day {
		t.Fatalf("specific day lost: %+v", back)
	}
}

func TestPropertyDocumentRejectsBadAmount(t *testing.T) {
	doc := newPropertyDocument(&domainproperty.Property{ID: "p-1", Name: "Flat", BasePrice: money.Money{}})
	doc.BasePrice = "abc"
	if _, err := doc.toEntity(); err == nil {
		t.Fatal("expected decode error")
	}
}
