package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tanvirgit07/Tomato-seller/internal/backend"
	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	"github.com/Tanvirgit07/Tomato-seller/pkg/logger"
	"github.com/Tanvirgit07/Tomato-seller/pkg/pagination"
)

// --- Mock Backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) OverviewCards(ctx context.Context) (domain.OverviewCards, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.OverviewCards), args.Error(1)
}

func (m *mockBackend) RevenueChart(ctx context.Context) ([]domain.RevenuePoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RevenuePoint), args.Error(1)
}

func (m *mockBackend) AnalyticsChart(ctx context.Context, rangeType string) ([]backend.SeriesPoint, []backend.SeriesPoint, error) {
	args := m.Called(ctx, rangeType)
	sales, _ := args.Get(0).([]backend.SeriesPoint)
	revenue, _ := args.Get(1).([]backend.SeriesPoint)
	return sales, revenue, args.Error(2)
}

func (m *mockBackend) Orders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockBackend) Order(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockBackend) DeleteOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) Products(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockBackend) UpdateProductStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockBackend) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) DeleteCategory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) DeleteSubcategory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newTestDashboardService() (*DashboardService, *mockBackend) {
	b := new(mockBackend)
	return NewDashboardService(b, logger.Discard()), b
}

func months(values ...float64) []domain.RevenuePoint {
	names := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	out := make([]domain.RevenuePoint, len(values))
	for i, v := range values {
		out[i] = domain.RevenuePoint{Month: names[i], Revenue: v}
	}
	return out
}

// --- Overview ---

func TestOverview_PassesThrough(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	cards := domain.OverviewCards{TotalProducts: 4, TotalOrders: 9, PendingOrders: 1, Revenue: 1200}
	b.On("OverviewCards", ctx).Return(cards, nil)

	got, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, cards, got)
}

func TestOverview_BackendErrorKeepsStatus(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("OverviewCards", ctx).Return(domain.OverviewCards{}, apperrors.Unauthenticated("No token provided"))

	_, err := svc.Overview(ctx)
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}

// --- Revenue ---

func TestSummarizeRevenue(t *testing.T) {
	tests := []struct {
		name     string
		points   []domain.RevenuePoint
		total    float64
		average  float64
		max      float64
		maxMonth string
		trend    float64
		positive bool
	}{
		{
			name:     "empty",
			points:   nil,
			maxMonth: "N/A",
			positive: true,
		},
		{
			name:     "six months growth",
			points:   months(100, 100, 100, 150, 150, 150),
			total:    750,
			average:  125,
			max:      150,
			maxMonth: "Apr",
			trend:    50,
			positive: true,
		},
		{
			name:     "decline rounds to one decimal",
			points:   months(300, 0, 0, 100, 0, 0),
			total:    400,
			average:  400.0 / 6,
			max:      300,
			maxMonth: "Jan",
			trend:    -66.7,
			positive: false,
		},
		{
			name:     "no previous revenue with recent revenue",
			points:   months(0, 0, 0, 10),
			total:    10,
			average:  2.5,
			max:      10,
			maxMonth: "Apr",
			trend:    100,
			positive: true,
		},
		{
			name:     "short series compares against the leading months",
			points:   months(50, 100, 100, 100),
			total:    350,
			average:  87.5,
			max:      100,
			maxMonth: "Feb",
			trend:    500,
			positive: true,
		},
		{
			name:     "all zero",
			points:   months(0, 0, 0),
			maxMonth: "Jan",
			positive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := summarizeRevenue(tt.points)
			assert.NotNil(t, s.Points)
			assert.InDelta(t, tt.total, s.Total, 1e-9)
			assert.InDelta(t, tt.average, s.Average, 1e-9)
			assert.Equal(t, tt.max, s.Max)
			assert.Equal(t, tt.maxMonth, s.MaxMonth)
			assert.Equal(t, tt.trend, s.TrendPercent)
			assert.Equal(t, tt.positive, s.Positive)
		})
	}
}

func TestRevenueSummary_BackendError(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("RevenueChart", ctx).Return(nil, apperrors.Upstream("revenue chart failed"))

	_, err := svc.RevenueSummary(ctx)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

// --- Analytics ---

func TestAnalyticsSummary_RejectsUnknownRange(t *testing.T) {
	svc, b := newTestDashboardService()

	_, err := svc.AnalyticsSummary(context.Background(), "weekly")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	b.AssertNotCalled(t, "AnalyticsChart", mock.Anything, mock.Anything)
}

func TestAnalyticsSummary_MergesByIndex(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()

	sales := []backend.SeriesPoint{{Date: "2026-04-01", Value: 2}, {Date: "2026-04-02", Value: 3}, {Date: "2026-04-03", Value: 1}, {Date: "2026-04-04", Value: 4}}
	revenue := []backend.SeriesPoint{{Date: "2026-04-01", Value: 100}, {Date: "2026-04-02", Value: 100}, {Date: "2026-04-03", Value: 300}}
	b.On("AnalyticsChart", ctx, domain.AnalyticsDaily).Return(sales, revenue, nil)

	s, err := svc.AnalyticsSummary(ctx, domain.AnalyticsDaily)
	require.NoError(t, err)

	require.Len(t, s.Points, 4)
	assert.Equal(t, domain.AnalyticsPoint{Date: "2026-04-04", Sales: 4, Revenue: 0}, s.Points[3])
	assert.Equal(t, 10.0, s.TotalSales)
	assert.Equal(t, 500.0, s.TotalRevenue)
	// first half 200, second half 300
	assert.Equal(t, 50.0, s.TrendPercent)
	assert.True(t, s.Positive)
	assert.Equal(t, domain.AnalyticsDaily, s.Range)
}

func TestSummarizeAnalytics_EdgeCases(t *testing.T) {
	s := summarizeAnalytics(domain.AnalyticsMonthly, nil, nil)
	assert.NotNil(t, s.Points)
	assert.Empty(t, s.Points)
	assert.Equal(t, 0.0, s.TrendPercent)
	assert.True(t, s.Positive)

	// A single point puts everything in the second half.
	s = summarizeAnalytics(domain.AnalyticsMonthly,
		[]backend.SeriesPoint{{Date: "2026-01", Value: 1}},
		[]backend.SeriesPoint{{Date: "2026-01", Value: 900}})
	assert.Equal(t, 0.0, s.TrendPercent)

	s = summarizeAnalytics(domain.AnalyticsMonthly,
		[]backend.SeriesPoint{{Date: "2026-01", Value: 1}, {Date: "2026-02", Value: 1}},
		[]backend.SeriesPoint{{Date: "2026-01", Value: 300}, {Date: "2026-02", Value: 100}})
	assert.Equal(t, -66.7, s.TrendPercent)
	assert.False(t, s.Positive)
}

// --- Orders ---

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: "o1", Products: []domain.OrderProduct{
			{ID: "p1", CreatorEmail: "seller@x.com"},
			{ID: "p2", CreatorEmail: "other@x.com"},
		}},
		{ID: "o2", Products: []domain.OrderProduct{{ID: "p3", CreatorEmail: "other@x.com"}}},
		{ID: "o3", Products: []domain.OrderProduct{{ID: "p4", CreatorEmail: "seller@x.com"}}},
		{ID: "o4"},
	}
}

func TestSellerOrders_FiltersAndPaginates(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("Orders", ctx).Return(sampleOrders(), nil)

	result, err := svc.SellerOrders(ctx, "seller@x.com", pagination.Params{Page: 1, PerPage: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 2, result.TotalPages)
	assert.True(t, result.HasNext)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "o1", result.Data[0].ID)
	require.Len(t, result.Data[0].Products, 1)
	assert.Equal(t, "p1", result.Data[0].Products[0].ID)

	result, err = svc.SellerOrders(ctx, "seller@x.com", pagination.Params{Page: 2, PerPage: 1})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "o3", result.Data[0].ID)
}

func TestSellerOrders_NoneForSeller(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("Orders", ctx).Return(sampleOrders(), nil)

	result, err := svc.SellerOrders(ctx, "nobody@x.com", pagination.DefaultParams())
	require.NoError(t, err)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, 0, result.TotalCount)
}

func TestSellerOrder(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	orders := sampleOrders()
	b.On("Order", ctx, "o1").Return(orders[0], nil)
	b.On("Order", ctx, "o2").Return(orders[1], nil)

	o, err := svc.SellerOrder(ctx, "o1", "seller@x.com")
	require.NoError(t, err)
	assert.Len(t, o.Products, 1)

	_, err = svc.SellerOrder(ctx, "o2", "seller@x.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.SellerOrder(ctx, " ", "seller@x.com")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDeleteOrder(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("DeleteOrder", ctx, "o1").Return(nil)

	require.NoError(t, svc.DeleteOrder(ctx, "o1"))
	assert.ErrorIs(t, svc.DeleteOrder(ctx, ""), apperrors.ErrInvalidInput)
	b.AssertNumberOfCalls(t, "DeleteOrder", 1)
}

// --- Products ---

func TestProducts_FiltersBySellerAndStatus(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("Products", ctx).Return([]domain.Product{
		{ID: "f1", Status: "pending", Owner: &domain.ProductOwner{Role: domain.RoleSeller}},
		{ID: "f2", Status: "pending", Owner: &domain.ProductOwner{Role: "admin"}},
		{ID: "f3", Status: "approved", Owner: &domain.ProductOwner{Role: domain.RoleSeller}},
		{ID: "f4", Status: "pending"},
	}, nil)

	got, err := svc.Products(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f1", got[0].ID)

	got, err = svc.Products(ctx, "rejected")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProducts_InvalidStatus(t *testing.T) {
	svc, b := newTestDashboardService()

	_, err := svc.Products(context.Background(), "archived")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	b.AssertNotCalled(t, "Products", mock.Anything)
}

func TestUpdateProductStatus(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("UpdateProductStatus", ctx, "f1", "approved").Return(nil)

	require.NoError(t, svc.UpdateProductStatus(ctx, "f1", "approved"))

	for _, status := range []string{"", "APPROVED", "archived"} {
		err := svc.UpdateProductStatus(ctx, "f1", status)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "status %q", status)
	}
	assert.ErrorIs(t, svc.UpdateProductStatus(ctx, "", "approved"), apperrors.ErrInvalidInput)
	b.AssertNumberOfCalls(t, "UpdateProductStatus", 1)
}

func TestCatalogDeletes(t *testing.T) {
	svc, b := newTestDashboardService()
	ctx := context.Background()
	b.On("DeleteProduct", ctx, "f1").Return(nil)
	b.On("DeleteCategory", ctx, "c1").Return(apperrors.Forbidden("Not allowed"))
	b.On("DeleteSubcategory", ctx, "s1").Return(nil)

	require.NoError(t, svc.DeleteProduct(ctx, "f1"))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, "c1"), apperrors.ErrForbidden)
	require.NoError(t, svc.DeleteSubcategory(ctx, "s1"))
	b.AssertExpectations(t)
}
