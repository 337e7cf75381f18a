package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	"github.com/Tanvirgit07/Tomato-seller/internal/session"
	apperrors "github.com/Tanvirgit07/Tomato-seller/pkg/errors"
	"github.com/Tanvirgit07/Tomato-seller/pkg/httpclient"
)

const maxResponseBytes = 8 << 20

// Client calls the commerce backend's dashboard endpoints on behalf of the
// signed-in seller. The bearer token is taken from the request context.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(hc *httpclient.CircuitBreakerClient, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// OverviewCards fetches the seller's headline counters.
func (c *Client) OverviewCards(ctx context.Context) (domain.OverviewCards, error) {
	var dto overviewDTO
	if err := c.do(ctx, http.MethodGet, "/summery/seller-overview-cards", nil, "overview", &dto); err != nil {
		return domain.OverviewCards{}, err
	}
	return dto.toDomain(), nil
}

// RevenueChart fetches the monthly revenue series.
func (c *Client) RevenueChart(ctx context.Context) ([]domain.RevenuePoint, error) {
	var dto revenueChartDTO
	if err := c.do(ctx, http.MethodGet, "/summery/seller-revenue-chart", nil, "revenue chart", &dto); err != nil {
		return nil, err
	}
	points := make([]domain.RevenuePoint, 0, len(dto.RevenueData))
	for _, p := range dto.RevenueData {
		points = append(points, domain.RevenuePoint{Month: p.Month, Revenue: p.Value})
	}
	return points, nil
}

// SeriesPoint is one raw analytics sample.
type SeriesPoint struct {
	Date  string
	Value float64
}

// AnalyticsChart fetches the sales and revenue series for a range
// ("daily" or "monthly"). The two series are returned unmerged.
func (c *Client) AnalyticsChart(ctx context.Context, rangeType string) (sales, revenue []SeriesPoint, err error) {
	var dto analyticsChartDTO
	path := "/summery/seller-analytics-chart?type=" + url.QueryEscape(rangeType)
	if err := c.do(ctx, http.MethodGet, path, nil, "analytics chart", &dto); err != nil {
		return nil, nil, err
	}
	return dto.SalesData.toSeries(), dto.RevenueData.toSeries(), nil
}

// Orders fetches every order visible to the caller.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var dto ordersDTO
	if err := c.do(ctx, http.MethodGet, "/payment/getorders", nil, "orders", &dto); err != nil {
		return nil, err
	}
	list := dto.Orders
	if len(list) == 0 {
		list = dto.Data
	}
	orders := make([]domain.Order, 0, len(list))
	for _, o := range list {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

// Order fetches a single order.
func (c *Client) Order(ctx context.Context, id string) (domain.Order, error) {
	var dto singleOrderDTO
	if err := c.do(ctx, http.MethodGet, "/payment/singeorder/"+url.PathEscape(id), nil, "order", &dto); err != nil {
		return domain.Order{}, err
	}
	o := dto.Order
	if o == nil {
		o = dto.Data
	}
	if o == nil || o.ID == "" {
		return domain.Order{}, apperrors.NotFound("order", id)
	}
	return o.toDomain(), nil
}

// DeleteOrder deletes an order.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/payment/deleteorder/"+url.PathEscape(id), nil, "order", nil)
}

// Products fetches the full product catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var dto productsDTO
	if err := c.do(ctx, http.MethodGet, "/food/getAllFood", nil, "products", &dto); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(dto.Data))
	for _, p := range dto.Data {
		products = append(products, p.toDomain())
	}
	return products, nil
}

// UpdateProductStatus changes a product's moderation status.
func (c *Client) UpdateProductStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/food/update-status/"+url.PathEscape(id), body, "product", nil)
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/food/deletefood/"+url.PathEscape(id), nil, "product", nil)
}

// DeleteCategory deletes a requested category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/category/deletecategory/"+url.PathEscape(id), nil, "category", nil)
}

// DeleteSubcategory deletes a requested subcategory.
func (c *Client) DeleteSubcategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/subcategory/deletesubcategory/"+url.PathEscape(id), nil, "subcategory", nil)
}

// do sends one request. Non-2xx answers become AppErrors via the backend's
// {success, message} envelope; a 2xx body is decoded into out when set.
func (c *Client) do(ctx context.Context, method, path string, body any, resource string, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("marshal %s request: %w", resource, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("build %s request: %w", resource, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if httpclient.IsCircuitOpen(err) {
			return apperrors.ServiceUnavailable("the commerce backend is temporarily unavailable")
		}
		e := apperrors.Upstream(resource + " request failed")
		e.Err = fmt.Errorf("%w: %s %s: %v", apperrors.ErrUpstream, method, path, err)
		return e
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, resource)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		e := apperrors.Upstream(resource + " request failed")
		e.Err = fmt.Errorf("%w: read body: %v", apperrors.ErrUpstream, err)
		return e
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.ErrorContext(ctx, "backend returned undecodable body",
			slog.String("resource", resource),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		e := apperrors.Upstream("the commerce backend returned an unexpected " + resource + " response")
		e.Err = fmt.Errorf("%w: decode %s: %v", apperrors.ErrUpstream, resource, err)
		return e
	}
	return nil
}
