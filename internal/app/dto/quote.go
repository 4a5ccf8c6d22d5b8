package dto

import (
	domainpricing "stayrate/internal/domain/pricing"
	"stayrate/internal/domain/shared/daterange"
)

func MapQuote(propertyID string, dr daterange.DateRange, q domainpricing.Quote, available bool) Quote {
	out := Quote{
		PropertyID:   propertyID,
		StartDate:    dr.Start.Format(daterange.Layout),
		EndDate:      dr.End.Format(daterange.Layout),
		Nights:       q.Nights(),
		FinalPrice:   q.FinalPrice(),
		Available:    available,
		Breakdown:    MapDayCharges(q.Days),
		AppliedRules: ruleIDs(q.Applied),
	}
	if len(q.Dropped) > 0 {
		out.DroppedRules = ruleIDs(q.Dropped)
	}
	return out
}
