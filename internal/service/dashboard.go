package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Tanvirgit07/Tomato-seller/internal/backend"
	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	"github.com/Tanvirgit07/Tomato-seller/pkg/pagination"
	"github.com/Tanvirgit07/Tomato-seller/pkg/validator"
)

// DashboardBackend is the subset of the commerce backend the dashboard reads
// and mutates. *backend.Client satisfies it.
type DashboardBackend interface {
	OverviewCards(ctx context.Context) (domain.OverviewCards, error)
	RevenueChart(ctx context.Context) ([]domain.RevenuePoint, error)
	AnalyticsChart(ctx context.Context, rangeType string) (sales, revenue []backend.SeriesPoint, err error)
	Orders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, id string) (domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Products(ctx context.Context) ([]domain.Product, error)
	UpdateProductStatus(ctx context.Context, id, status string) error
	DeleteProduct(ctx context.Context, id string) error
	DeleteCategory(ctx context.Context, id string) error
	DeleteSubcategory(ctx context.Context, id string) error
}

// DashboardService shapes backend data into the seller's dashboard views.
type DashboardService struct {
	backend DashboardBackend
	logger  *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(b DashboardBackend, logger *slog.Logger) *DashboardService {
	return &DashboardService{backend: b, logger: logger}
}

// Overview returns the headline counters unchanged.
func (s *DashboardService) Overview(ctx context.Context) (domain.OverviewCards, error) {
	cards, err := s.backend.OverviewCards(ctx)
	if err != nil {
		return domain.OverviewCards{}, fmt.Errorf("get overview cards: %w", err)
	}
	return cards, nil
}

// RevenueSummary returns the monthly revenue series with its statistics.
func (s *DashboardService) RevenueSummary(ctx context.Context) (*domain.RevenueSummary, error) {
	points, err := s.backend.RevenueChart(ctx)
	if err != nil {
		return nil, fmt.Errorf("get revenue chart: %w", err)
	}
	return summarizeRevenue(points), nil
}

func summarizeRevenue(points []domain.RevenuePoint) *domain.RevenueSummary {
	summary := &domain.RevenueSummary{
		Points:   points,
		MaxMonth: "N/A",
	}
	if summary.Points == nil {
		summary.Points = []domain.RevenuePoint{}
	}

	for _, p := range points {
		summary.Total += p.Revenue
		if p.Revenue > summary.Max {
			summary.Max = p.Revenue
		}
	}
	if len(points) > 0 {
		summary.Average = summary.Total / float64(len(points))
	}
	for _, p := range points {
		if p.Revenue == summary.Max {
			summary.MaxMonth = p.Month
			break
		}
	}

	// Last three months against the three before them.
	n := len(points)
	recent := sumRevenue(points[max(0, n-3):])
	previous := sumRevenue(points[max(0, n-6):max(0, n-3)])

	switch {
	case previous > 0:
		summary.TrendPercent = roundTenth((recent - previous) / previous * 100)
	case recent > 0:
		summary.TrendPercent = 100
	}
	summary.Positive = summary.TrendPercent >= 0
	return summary
}

func sumRevenue(points []domain.RevenuePoint) float64 {
	var total float64
	for _, p := range points {
		total += p.Revenue
	}
	return total
}

// AnalyticsSummary merges the sales and revenue series for rangeType and
// compares revenue in the second half of the range with the first.
func (s *DashboardService) AnalyticsSummary(ctx context.Context, rangeType string) (*domain.AnalyticsSummary, error) {
	if !domain.IsValidAnalyticsRange(rangeType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("range must be %q or %q", domain.AnalyticsDaily, domain.AnalyticsMonthly))
	}

	sales, revenue, err := s.backend.AnalyticsChart(ctx, rangeType)
	if err != nil {
		return nil, fmt.Errorf("get analytics chart: %w", err)
	}
	return summarizeAnalytics(rangeType, sales, revenue), nil
}

func summarizeAnalytics(rangeType string, sales, revenue []backend.SeriesPoint) *domain.AnalyticsSummary {
	summary := &domain.AnalyticsSummary{
		Range:  rangeType,
		Points: make([]domain.AnalyticsPoint, 0, len(sales)),
	}

	// Series are aligned by position; the sales series drives the length.
	for i, sale := range sales {
		p := domain.AnalyticsPoint{Date: sale.Date, Sales: sale.Value}
		if i < len(revenue) {
			p.Revenue = revenue[i].Value
		}
		summary.Points = append(summary.Points, p)
		summary.TotalSales += p.Sales
		summary.TotalRevenue += p.Revenue
	}

	mid := len(summary.Points) / 2
	var first, second float64
	for i, p := range summary.Points {
		if i < mid {
			first += p.Revenue
		} else {
			second += p.Revenue
		}
	}
	if first > 0 {
		summary.TrendPercent = roundTenth((second - first) / first * 100)
	}
	summary.Positive = summary.TrendPercent >= 0
	return summary
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// SellerOrders lists the orders containing the seller's products. Each order
// keeps only those products; orders left empty are dropped.
func (s *DashboardService) SellerOrders(ctx context.Context, sellerEmail string, params pagination.Params) (*pagination.Result[domain.Order], error) {
	orders, err := s.backend.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	mine := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if filtered, ok := o.ForSeller(sellerEmail); ok {
			mine = append(mine, filtered)
		}
	}

	s.logger.DebugContext(ctx, "filtered seller orders",
		slog.Int("total", len(orders)),
		slog.Int("seller", len(mine)),
	)

	result := pagination.Paginate(mine, params)
	return &result, nil
}

// SellerOrder returns one order restricted to the seller's products. An order
// with none of them is reported as not found.
func (s *DashboardService) SellerOrder(ctx context.Context, id, sellerEmail string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	o, err := s.backend.Order(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	filtered, ok := o.ForSeller(sellerEmail)
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return &filtered, nil
}

// DeleteOrder deletes an order.
func (s *DashboardService) DeleteOrder(ctx context.Context, id string) error {
	if err := requireID("order", id); err != nil {
		return err
	}
	if err := s.backend.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", id))
	return nil
}

// Products lists seller-listed products with the given moderation status.
func (s *DashboardService) Products(ctx context.Context, status string) ([]domain.Product, error) {
	if !domain.IsValidProductStatus(status) {
		return nil, apperrors.InvalidInput("status must be one of " + strings.Join(domain.ValidProductStatuses(), ", "))
	}

	products, err := s.backend.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Status == status && p.ListedBySeller() {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateProductStatusInput is the body of a status change.
type UpdateProductStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// UpdateProductStatus changes a product's moderation status.
func (s *DashboardService) UpdateProductStatus(ctx context.Context, id, status string) error {
	if err := requireID("product", id); err != nil {
		return err
	}
	if err := validator.Var(status, "required,oneof=pending approved rejected"); err != nil {
		return apperrors.InvalidInput("status must be one of " + strings.Join(domain.ValidProductStatuses(), ", "))
	}
	if err := s.backend.UpdateProductStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	s.logger.InfoContext(ctx, "product status updated",
		slog.String("product_id", id),
		slog.String("status", status),
	)
	return nil
}

// DeleteProduct deletes a product.
func (s *DashboardService) DeleteProduct(ctx context.Context, id string) error {
	if err := requireID("product", id); err != nil {
		return err
	}
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// DeleteCategory deletes a category request.
func (s *DashboardService) DeleteCategory(ctx context.Context, id string) error {
	if err := requireID("category", id); err != nil {
		return err
	}
	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}

// DeleteSubcategory deletes a subcategory request.
func (s *DashboardService) DeleteSubcategory(ctx context.Context, id string) error {
	if err := requireID("subcategory", id); err != nil {
		return err
	}
	if err := s.backend.DeleteSubcategory(ctx, id); err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	s.logger.InfoContext(ctx, "subcategory deleted", slog.String("subcategory_id", id))
	return nil
}

func requireID(resource, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidInput(resource + " id is required")
	}
	return nil
}
