package types

// Activity type tags shared by activities, results and summaries.
const (
	ActivityTypeElectricity   = "Electricity"
	ActivityTypeAirTravel     = "Air Travel"
	ActivityTypeGoodsServices = "Purchased Goods and Services"
)

// GHG Protocol scopes.
const (
	Scope1 = 1
	Scope2 = 2
	Scope3 = 3
)

// GHG Protocol Scope 3 categories used by this system.
const (
	CategoryPurchasedGoods = 1
	CategoryBusinessTravel = 6
)

// Summary period types.
const (
	SummaryTypeDaily   = "daily"
	SummaryTypeMonthly = "monthly"
	SummaryTypeCustom  = "custom"
)

// AllActivityTypes lists the known activity type tags in a fixed order.
func AllActivityTypes() []string {
	return []string{ActivityTypeElectricity, ActivityTypeAirTravel, ActivityTypeGoodsServices}
}
