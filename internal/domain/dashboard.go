package domain

import "time"

// Product moderation statuses.
const (
	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
	ProductStatusRejected = "rejected"
)

// ValidProductStatuses returns the set of moderation statuses.
func ValidProductStatuses() []string {
	return []string{ProductStatusPending, ProductStatusApproved, ProductStatusRejected}
}

// IsValidProductStatus checks whether status is a known moderation status.
func IsValidProductStatus(status string) bool {
	for _, s := range ValidProductStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Analytics chart ranges.
const (
	AnalyticsDaily   = "daily"
	AnalyticsMonthly = "monthly"
)

// IsValidAnalyticsRange checks whether r is a supported analytics range.
func IsValidAnalyticsRange(r string) bool {
	return r == AnalyticsDaily || r == AnalyticsMonthly
}

// OverviewCards holds the headline counters shown on the dashboard.
type OverviewCards struct {
	TotalProducts int     `json:"total_products"`
	TotalOrders   int     `json:"total_orders"`
	PendingOrders int     `json:"pending_orders"`
	Revenue       float64 `json:"revenue"`
}

// RevenuePoint is one month of revenue.
type RevenuePoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// RevenueSummary is the monthly revenue series with derived statistics.
type RevenueSummary struct {
	Points       []RevenuePoint `json:"points"`
	Total        float64        `json:"total"`
	Average      float64        `json:"average"`
	Max          float64        `json:"max"`
	MaxMonth     string         `json:"max_month"`
	TrendPercent float64        `json:"trend_percent"`
	Positive     bool           `json:"positive"`
}

// AnalyticsPoint joins sales and revenue for one period.
type AnalyticsPoint struct {
	Date    string  `json:"date"`
	Sales   float64 `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// AnalyticsSummary is the merged analytics series with totals and trend.
type AnalyticsSummary struct {
	Range        string           `json:"range"`
	Points       []AnalyticsPoint `json:"points"`
	TotalSales   float64          `json:"total_sales"`
	TotalRevenue float64          `json:"total_revenue"`
	TrendPercent float64          `json:"trend_percent"`
	Positive     bool             `json:"positive"`
}

// OrderCustomer is the buyer attached to an order, when known.
type OrderCustomer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// OrderProduct is one line of an order.
type OrderProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	CreatorEmail string  `json:"creator_email,omitempty"`
	CreatorName  string  `json:"creator_name,omitempty"`
}

// Order is a paid order. Products may belong to several sellers.
type Order struct {
	ID                string         `json:"id"`
	Customer          *OrderCustomer `json:"customer,omitempty"`
	Products          []OrderProduct `json:"products"`
	Amount            float64        `json:"amount"`
	Status            string         `json:"status"`
	CheckoutSessionID string         `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ForSeller returns a copy of the order holding only the products created
// by sellerEmail, and false when none remain.
func (o Order) ForSeller(sellerEmail string) (Order, bool) {
	if sellerEmail == "" {
		return Order{}, false
	}
	kept := make([]OrderProduct, 0, len(o.Products))
	for _, p := range o.Products {
		if p.CreatorEmail == sellerEmail {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return Order{}, false
	}
	o.Products = kept
	return o, true
}

// ProductOwner is the account that listed a product.
type ProductOwner struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Product is a catalog listing awaiting or past moderation.
type Product struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Price         float64       `json:"price"`
	DiscountPrice float64       `json:"discount_price"`
	Image         string        `json:"image,omitempty"`
	CategoryID    string        `json:"category_id,omitempty"`
	CategoryName  string        `json:"category_name,omitempty"`
	Status        string        `json:"status"`
	Owner         *ProductOwner `json:"owner,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ListedBySeller reports whether the product's owner is a seller account.
func (p Product) ListedBySeller() bool {
	return p.Owner != nil && p.Owner.Role == RoleSeller
}
