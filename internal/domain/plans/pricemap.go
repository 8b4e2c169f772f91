package plans

// PriceMapping ties a Stripe price id to a local plan and billing interval.
type PriceMapping struct {
	PlanID   string
	Interval string // "monthly" | "yearly"
}

// PriceMap is the static lookup from Stripe price ids to local plans.
type PriceMap map[string]PriceMapping

// NewPriceMap builds a PriceMap from a priceID -> {plan, interval} table
// (see config.StripePriceTable).
func NewPriceMap(table map[string][2]string) PriceMap {
	m := make(PriceMap, len(table))
	for priceID, pair := range table {
		m[priceID] = PriceMapping{PlanID: pair[0], Interval: pair[1]}
	}
	return m
}

// PlanFor maps a Stripe price id to a local plan id. Unknown price ids map
// to the free plan rather than failing: a paying user must never be stranded
// in a denied state because the catalog drifted.
func (m PriceMap) PlanFor(priceID string) string {
	if mapping, ok := m[priceID]; ok {
		return mapping.PlanID
	}
	return FreePlanID
}

// IntervalFor returns the billing interval for a price id, or "" if unknown.
func (m PriceMap) IntervalFor(priceID string) string {
	if mapping, ok := m[priceID]; ok {
		return mapping.Interval
	}
	return ""
}

// PriceFor returns the Stripe price id for a plan/interval combination.
func (m PriceMap) PriceFor(planID, interval string) (string, bool) {
	for priceID, mapping := range m {
		if mapping.PlanID == planID && mapping.Interval == interval {
			return priceID, true
		}
	}
	return "", false
}
