package plans

// FreePlanID is the sentinel plan every user can always fall back to.
// It requires no Stripe subscription.
const FreePlanID = "free"

type Plan struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PriceMonthlyEUR float64 `json:"price_monthly_eur"`
	PriceYearlyEUR  float64 `json:"price_yearly_eur"`
	MaxEvents       int     `json:"max_events"` // -1 = unlimited
}

// Catalog is the static plan catalog. Prices here are display values; the
// amounts Stripe actually charges come from the configured price ids.
func Catalog() []Plan {
	return []Plan{
		{ID: FreePlanID, Name: "Free", PriceMonthlyEUR: 0, PriceYearlyEUR: 0, MaxEvents: 3},
		{ID: "starter", Name: "Starter", PriceMonthlyEUR: 9, PriceYearlyEUR: 90, MaxEvents: 25},
		{ID: "pro", Name: "Pro", PriceMonthlyEUR: 29, PriceYearlyEUR: 290, MaxEvents: 100},
		{ID: "business", Name: "Business", PriceMonthlyEUR: 79, PriceYearlyEUR: 790, MaxEvents: -1},
	}
}

func ByID(id string) (Plan, bool) {
	for _, p := range Catalog() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
