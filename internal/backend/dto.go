package backend

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
)

// The backend speaks Mongo-shaped JSON: "_id" keys, camelCase fields, and
// references that are either populated objects or bare ID strings.

type overviewDTO struct {
	TotalProducts int      `json:"totalProducts"`
	TotalOrders   int      `json:"totalOrders"`
	PendingOrders int      `json:"pendingOrders"`
	Revenue       *float64 `json:"revenue"`
	TotalRevenue  float64  `json:"totalRevenue"`
}

func (d overviewDTO) toDomain() domain.OverviewCards {
	revenue := d.TotalRevenue
	if d.Revenue != nil {
		revenue = *d.Revenue
	}
	return domain.OverviewCards{
		TotalProducts: d.TotalProducts,
		TotalOrders:   d.TotalOrders,
		PendingOrders: d.PendingOrders,
		Revenue:       revenue,
	}
}

type revenueChartDTO struct {
	RevenueData []struct {
		Month string  `json:"month"`
		Value float64 `json:"value"`
	} `json:"revenueData"`
}

type seriesDTO []struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (s seriesDTO) toSeries() []SeriesPoint {
	out := make([]SeriesPoint, 0, len(s))
	for _, p := range s {
		out = append(out, SeriesPoint{Date: p.Date, Value: p.Value})
	}
	return out
}

type analyticsChartDTO struct {
	SalesData   seriesDTO `json:"salesData"`
	RevenueData seriesDTO `json:"revenueData"`
}

// ref is a populated reference; a bare ID string decodes to just the ID.
type ref struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	type plain ref
	return json.Unmarshal(b, (*plain)(r))
}

type orderProductDTO struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	CreatedBy *ref    `json:"createdBy"`
}

type orderDTO struct {
	ID                string            `json:"_id"`
	UserID            *ref              `json:"userId"`
	Products          []orderProductDTO `json:"products"`
	Amount            float64           `json:"amount"`
	Status            string            `json:"status"`
	CheckoutSessionID string            `json:"checkoutSessionId"`
	CreatedAt         string            `json:"createdAt"`
	UpdatedAt         string            `json:"updatedAt"`
}

func (d orderDTO) toDomain() domain.Order {
	o := domain.Order{
		ID:                d.ID,
		Products:          make([]domain.OrderProduct, 0, len(d.Products)),
		Amount:            d.Amount,
		Status:            d.Status,
		CheckoutSessionID: d.CheckoutSessionID,
		CreatedAt:         parseTime(d.CreatedAt),
		UpdatedAt:         parseTime(d.UpdatedAt),
	}
	if d.UserID != nil && (d.UserID.Name != "" || d.UserID.Email != "") {
		o.Customer = &domain.OrderCustomer{Name: d.UserID.Name, Email: d.UserID.Email}
	}
	for _, p := range d.Products {
		op := domain.OrderProduct{
			ID:       p.ID,
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price,
		}
		if p.CreatedBy != nil {
			op.CreatorEmail = p.CreatedBy.Email
			op.CreatorName = p.CreatedBy.Name
		}
		o.Products = append(o.Products, op)
	}
	return o
}

type ordersDTO struct {
	Orders []orderDTO `json:"orders"`
	Data   []orderDTO `json:"data"`
}

type singleOrderDTO struct {
	Order *orderDTO `json:"order"`
	Data  *orderDTO `json:"data"`
}

type productDTO struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	DiscountPrice float64 `json:"discountPrice"`
	Image         string  `json:"image"`
	Category      *ref    `json:"category"`
	Status        string  `json:"status"`
	User          *ref    `json:"user"`
	CreatedAt     string  `json:"createdAt"`
}

func (d productDTO) toDomain() domain.Product {
	p := domain.Product{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		Image:         d.Image,
		Status:        d.Status,
		CreatedAt:     parseTime(d.CreatedAt),
	}
	if d.Category != nil {
		p.CategoryID = d.Category.ID
		p.CategoryName = d.Category.Name
	}
	if d.User != nil {
		p.Owner = &domain.ProductOwner{ID: d.User.ID, Role: d.User.Role}
	}
	return p
}

type productsDTO struct {
	Data []productDTO `json:"data"`
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
