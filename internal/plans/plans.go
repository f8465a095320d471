package plans

// UnlimitedUsage is the usage_limit sentinel for plans with no cap.
const UnlimitedUsage = -1

// DefaultUsageLimit is applied when an event carries an unknown plan name.
const DefaultUsageLimit = 100

// Plan is one purchasable tier. Key is the API-facing identifier
// (STARTER/PROFESSIONAL/LIFETIME); Name is the display name carried in
// Polar metadata and stored on the ledger.
type Plan struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Price      int      `json:"price"`
	ProductID  string   `json:"-"`
	UsageLimit int      `json:"usage_limit"`
	Features   []string `json:"features"`
}

// Catalog is the single plan lookup table consumed by the webhook
// reconciler, the usage gate, the checkout initiator, and the pricing
// endpoint. Product IDs come from config; everything else is static.
type Catalog struct {
	byKey  map[string]*Plan
	byName map[string]*Plan
	order  []string
}

// ProductIDs carries the Polar product identifiers for the paid plans.
type ProductIDs struct {
	Starter      string
	Professional string
	Lifetime     string
}

func NewCatalog(ids ProductIDs) *Catalog {
	all := []*Plan{
		{
			Key:        "STARTER",
			Name:       "Starter",
			Price:      0,
			ProductID:  ids.Starter,
			UsageLimit: 100,
			Features: []string{
				"100 transformations/month",
				"All tone adjustments",
				"Email support",
			},
		},
		{
			Key:        "PROFESSIONAL",
			Name:       "Professional",
			Price:      9,
			ProductID:  ids.Professional,
			UsageLimit: 1000,
			Features: []string{
				"1,000 transformations/month",
				"Advanced tone & length control",
				"Priority support",
				"14-day free trial",
			},
		},
		{
			Key:        "LIFETIME",
			Name:       "Lifetime",
			Price:      49,
			ProductID:  ids.Lifetime,
			UsageLimit: UnlimitedUsage,
			Features: []string{
				"Unlimited transformations",
				"Dedicated support",
				"One-time payment",
			},
		},
	}

	c := &Catalog{
		byKey:  make(map[string]*Plan, len(all)),
		byName: make(map[string]*Plan, len(all)),
	}
	for _, p := range all {
		c.byKey[p.Key] = p
		c.byName[p.Name] = p
		c.order = append(c.order, p.Key)
	}
	return c
}

// ByKey looks up a plan by its API key (STARTER/PROFESSIONAL/LIFETIME).
func (c *Catalog) ByKey(key string) *Plan {
	return c.byKey[key]
}

// ByName looks up a plan by display name (Starter/Professional/Lifetime).
func (c *Catalog) ByName(name string) *Plan {
	return c.byName[name]
}

// LimitFor returns the usage limit for a plan display name. Unknown plans
// fall back to the Starter limit so a malformed event can never grant
// unlimited usage.
func (c *Catalog) LimitFor(name string) int {
	if p := c.byName[name]; p != nil {
		return p.UsageLimit
	}
	return DefaultUsageLimit
}

// All returns the plans in display order.
func (c *Catalog) All() []*Plan {
	result := make([]*Plan, 0, len(c.order))
	for _, key := range c.order {
		result = append(result, c.byKey[key])
	}
	return result
}
