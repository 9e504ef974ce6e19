package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUpstreamUnavailable = errors.New("storefront unavailable")
	ErrUpstreamBadStatus   = errors.New("storefront bad status")
	ErrUpstreamRejected    = errors.New("storefront rejected request")
)

const maxUpstreamBody = 8 << 20

// RejectedError carries the storefront's own failure message.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return ErrUpstreamRejected.Error() + ": " + e.Reason }

func (e *RejectedError) Unwrap() error { return ErrUpstreamRejected }

// RemoteRepository reads collections from a storefront action endpoint at
// {BaseURL}/collections/{name}, which answers with
// {"success":true,"data":{...}} or {"success":false,"error":"..."}.
type RemoteRepository struct {
	BaseURL string
	Client  *http.Client
}

func NewRemoteRepository(baseURL string) *RemoteRepository {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &RemoteRepository{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type actionResult struct {
	Success bool                     `json:"success"`
	Data    map[string][]wireProduct `json:"data"`
	Error   string                   `json:"error"`
}

// wireProduct tolerates ids sent as strings or numbers, and prices sent as
// numbers, strings or garbage.
type wireProduct struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       json.RawMessage `json:"price"`
	Categories  []string        `json:"categories"`
	Variations  []Variation     `json:"variations"`
	Image       *FeaturedImage  `json:"featured_image"`
}

func (w wireProduct) product() Product {
	p := Product{
		ID:         rawID(w.ID),
		Name:       w.Name,
		Price:      rawPrice(w.Price),
		Categories: w.Categories,
		Variations: w.Variations,
		Image:      w.Image,
	}
	if w.Description != nil {
		p.Description = *w.Description
	}
	return p
}

// rawID keeps a numeric id's literal text so 42 and "42" name the same product.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func rawPrice(raw json.RawMessage) decimal.NullDecimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.NullDecimal{}
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return ParsePrice(str)
	}
	return ParsePrice(s)
}

func (c *RemoteRepository) FetchCollection(ctx context.Context, col Collection) (CategorizedProducts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/collections/%s", c.BaseURL, url.PathEscape(col.Name)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var res actionResult
	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity:
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrUpstreamBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBody)).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode storefront response: %w", err)
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &RejectedError{Reason: msg}
	}

	out := make(CategorizedProducts, len(res.Data))
	for k, ws := range res.Data {
		ps := make([]Product, 0, len(ws))
		for _, w := range ws {
			ps = append(ps, w.product())
		}
		out[CategoryKey(k)] = ps
	}
	return out, nil
}
