// Package stripe implements the read-only billing processor boundary: a
// paginated subscription listing client and the deterministic reconciliation
// that synthesizes Retainer rows from active subscriptions.
//
// Only the handful of fields the reconciliation reads are modeled; everything
// else in the API payload is ignored on decode.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/digitalwiz/go-crm-backend/internal/config"
)

// Recurring describes a price's billing cadence.
type Recurring struct {
	Interval      string `json:"interval"` // day, week, month, year
	IntervalCount int64  `json:"interval_count"`
}

// Price is the billed price attached to a subscription item.
type Price struct {
	ID         string     `json:"id"`
	Nickname   string     `json:"nickname"`
	UnitAmount int64      `json:"unit_amount"` // minor currency units
	Recurring  *Recurring `json:"recurring"`
}

// SubscriptionItem is one billed line item.
type SubscriptionItem struct {
	Quantity int64  `json:"quantity"`
	Price    *Price `json:"price"`
}

// ItemList wraps the items array of a subscription.
type ItemList struct {
	Data []SubscriptionItem `json:"data"`
}

// Customer is the (expanded) customer attached to a subscription. The API
// returns either a bare id string or an expanded object depending on the
// expand parameters, so decoding accepts both.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts either "cus_123" or a full customer object.
func (c *Customer) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.ID)
	}
	type alias Customer
	return json.Unmarshal(data, (*alias)(c))
}

// Subscription is one subscription record from the listing endpoint.
type Subscription struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	Created          int64     `json:"created"` // Unix seconds
	StartDate        int64     `json:"start_date"`
	CurrentPeriodEnd int64     `json:"current_period_end"`
	Customer         *Customer `json:"customer"`
	Items            ItemList  `json:"items"`
}

// subscriptionPage is the list envelope returned by the API.
type subscriptionPage struct {
	Data    []Subscription `json:"data"`
	HasMore bool           `json:"has_more"`
}

// apiError mirrors the processor's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client lists subscriptions from the billing processor's REST API.
type Client struct {
	baseURL   string
	secretKey string
	pageSize  int
	http      *http.Client
}

// NewClient builds a Client from the billing configuration.
func NewClient(cfg config.StripeConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		pageSize:  cfg.PageSize,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ListAllSubscriptions walks the paginated subscription list to completion,
// using the last-seen subscription id as the continuation token. Customer
// and price data are expanded inline so reconciliation needs no further
// calls. Any page error aborts the whole listing.
func (c *Client) ListAllSubscriptions(ctx context.Context) ([]Subscription, error) {
	var all []Subscription
	startingAfter := ""

	for {
		page, err := c.listPage(ctx, startingAfter)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
		startingAfter = page.Data[len(page.Data)-1].ID
	}
}

func (c *Client) listPage(ctx context.Context, startingAfter string) (*subscriptionPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("status", "all")
	q.Add("expand[]", "data.customer")
	q.Add("expand[]", "data.items.data.price")
	if startingAfter != "" {
		q.Set("starting_after", startingAfter)
	}

	u := c.baseURL + "/v1/subscriptions?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("list subscriptions: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("list subscriptions: status %d", resp.StatusCode)
	}

	var page subscriptionPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("list subscriptions: decode: %w", err)
	}
	return &page, nil
}
