package supplier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mercabridge/internal/model"
)

type searchRequest struct {
	Params string `json:"params"`
}

type searchResponse struct {
	Hits []map[string]any `json:"hits"`
}

type listResponse struct {
	Items []map[string]any `json:"items"`
}

// Warehouse resolves the warehouse serving postcode. The store answers a
// postcode change with the warehouse in a response header.
func (c *Client) Warehouse(ctx context.Context, postcode string) (string, error) {
	const op = "warehouse"

	target, err := c.storeURL("api/postal-codes/actions/change-pc/", nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req, err := newJSONRequest(http.MethodPut, target, map[string]string{"new_postal_code": postcode})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return "", err
	}

	wh := strings.TrimSpace(resp.Header.Get(warehouseHeader))
	if wh == "" {
		return "", fmt.Errorf("%s %q: %w", op, postcode, ErrNoWarehouse)
	}
	return wh, nil
}

// Search queries the warehouse product index.
func (c *Client) Search(ctx context.Context, warehouse, query string) ([]model.SourceRecord, error) {
	const op = "search"

	index := fmt.Sprintf("products_prod_%s_%s", warehouse, c.lang)
	target := c.algolia.ResolveReference(&url.URL{Path: "/1/indexes/" + index + "/query"})

	body := searchRequest{Params: "query=" + url.QueryEscape(strings.TrimSpace(query))}
	req, err := newJSONRequest(http.MethodPost, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("x-algolia-application-id", c.appID)
	req.Header.Set("x-algolia-api-key", c.apiKey)

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var result searchResponse
	if err := decode(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return toRecords(result.Hits), nil
}

// NewArrivals lists the products the store currently flags as new.
func (c *Client) NewArrivals(ctx context.Context, warehouse string) ([]model.SourceRecord, error) {
	const op = "new_arrivals"

	target, err := c.storeURL("api/home/new-arrivals/", c.storeQuery(warehouse))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := newJSONRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var result listResponse
	if err := decode(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return toRecords(result.Items), nil
}

// Product fetches one product. A product the store does not know is
// returned as a not-found record, not as an error.
func (c *Client) Product(ctx context.Context, warehouse, id string) (model.SourceRecord, error) {
	const op = "product"

	target, err := c.storeURL("api/products/"+url.PathEscape(strings.TrimSpace(id))+"/", c.storeQuery(warehouse))
	if err != nil {
		return model.SourceRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	req, err := newJSONRequest(http.MethodGet, target, nil)
	if err != nil {
		return model.SourceRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return model.SourceRecord{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.NotFoundRecord(id), nil
	}
	if err := checkStatus(op, resp); err != nil {
		return model.SourceRecord{}, err
	}

	var raw map[string]any
	if err := decode(resp.Body, &raw); err != nil {
		return model.SourceRecord{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if raw == nil {
		return model.NotFoundRecord(id), nil
	}
	return toRecord(raw), nil
}
