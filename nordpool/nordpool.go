package nordpool

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/angas/spotprice-go/price"
)

const baseURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPrices"

// The data portal sits behind bot filtering that rejects requests not
// looking like they come from the official web client. These headers are
// compatibility plumbing, not a security mechanism.
var browserHeaders = map[string]string{
	"Accept":         "application/json, text/plain, */*",
	"Sec-Fetch-Dest": "empty",
	"Sec-Fetch-Mode": "cors",
	"Sec-Fetch-Site": "same-site",
	"Origin":         "https://data.nordpoolgroup.com",
	"Referer":        "https://data.nordpoolgroup.com/",
	"User-Agent":     "Mozilla/5.0 (X11; Linux x86_64; rv:131.0) Gecko/20100101 Firefox/131.0",
}

// Query identifies one day-ahead fetch.
type Query struct {
	Date          string // delivery date, YYYY-MM-DD
	Area          string // delivery area code, e.g. "FI", "SE3"
	Currency      string // ISO currency code, e.g. "EUR"
	VatMultiplier float64
}

type Client struct {
	http    *http.Client
	baseURL string
}

func New() *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second, Transport: transport},
		baseURL: baseURL,
	}
}

// NewWithBaseURL is used by tests to point the client at a local server.
func NewWithBaseURL(base string) *Client {
	c := New()
	c.baseURL = base
	return c
}

// FetchDayAhead retrieves the hourly day-ahead prices for one delivery
// date and converts them from currency/MWh excluding VAT to
// currency-cents/kWh including VAT. The points are returned in the order
// the API delivered them; for a single date the API guarantees ascending
// hourly order.
//
// An HTTP 204 means the prices for that date have not been published yet
// and is reported as ErrNoData.
func (c *Client) FetchDayAhead(ctx context.Context, q Query) (price.Series, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return price.Series{}, fmt.Errorf("parsing base url: %w", err)
	}
	qs := url.Values{}
	qs.Set("date", q.Date)
	qs.Set("market", "DayAhead")
	qs.Set("deliveryArea", q.Area)
	qs.Set("currency", q.Currency)
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return price.Series{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return price.Series{}, fmt.Errorf("fetching day-ahead prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return price.Series{}, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return price.Series{}, &StatusError{Code: resp.StatusCode}
	}

	var body dayAheadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return price.Series{}, &MalformedPriceError{Reason: "decoding response body", Cause: err}
	}
	if body.MultiAreaEntries == nil {
		return price.Series{}, &MalformedPriceError{Reason: "response has no multiAreaEntries"}
	}

	points := make([]price.Point, 0, len(body.MultiAreaEntries))
	for _, entry := range body.MultiAreaEntries {
		start, err := time.Parse(time.RFC3339, entry.DeliveryStart)
		if err != nil {
			return price.Series{}, &MalformedPriceError{
				Reason: fmt.Sprintf("parsing deliveryStart %q", entry.DeliveryStart),
				Cause:  err,
			}
		}
		raw, ok := entry.EntryPerArea[q.Area]
		if !ok {
			return price.Series{}, &MalformedPriceError{
				Reason: fmt.Sprintf("no price for delivery area %s", q.Area),
				Cause:  fmt.Errorf("entryPerArea is missing key %q", q.Area),
			}
		}
		var rawPrice float64
		if err := json.Unmarshal(raw, &rawPrice); err != nil {
			return price.Series{}, &MalformedPriceError{
				Reason: fmt.Sprintf("price for area %s is not numeric", q.Area),
				Cause:  err,
			}
		}
		points = append(points, price.Point{
			Start: start.UTC(),
			Price: price.ConvertRaw(rawPrice, q.VatMultiplier),
		})
	}

	return price.Series{Date: q.Date, Points: points}, nil
}
