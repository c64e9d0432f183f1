// Package vies checks EU VAT identifiers against the European Commission's
// VIES registry. Registration uses it to pre-fill company data and to reject
// VAT ids the registry does not know. The registry is slow and flaky, so the
// HTTP provider runs behind retries and a circuit breaker.
package vies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agroflight/backend-shop/internal/obs"
	"github.com/agroflight/backend-shop/internal/resilience"
)

// ErrUnavailable is returned when the registry cannot be reached; callers
// decide whether to fail closed or accept the registration unverified.
var ErrUnavailable = errors.New("vies: registry unavailable")

// ErrMalformedVATID is returned before any network call for inputs that are
// not a country prefix followed by 2-12 alphanumerics.
var ErrMalformedVATID = errors.New("vies: malformed vat id")

// Result is the registry's answer for one VAT id.
type Result struct {
	VATID   string `json:"vatId"`
	Valid   bool   `json:"valid"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Provider checks a VAT id against the registry.
type Provider interface {
	Check(ctx context.Context, vatID string) (Result, error)
}

var vatIDPattern = regexp.MustCompile(`^[A-Z]{2}[A-Za-z0-9+*.]{2,12}$`)

// SplitVATID normalises and splits a VAT id into country code and number.
func SplitVATID(raw string) (country, number string, err error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if !vatIDPattern.MatchString(cleaned) {
		return "", "", ErrMalformedVATID
	}
	return cleaned[:2], cleaned[2:], nil
}

// Client talks to the VIES REST API.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
	Logger  zerolog.Logger
}

// NewClient wires the registry client with its breaker and retry policy.
func NewClient(baseURL string, timeout time.Duration, maxAttempts, breakerMinReqs int, breakerRatio float64, breakerOpenFor time.Duration, logger zerolog.Logger) *Client {
	breaker := resilience.NewBreaker(breakerMinReqs, breakerRatio, breakerOpenFor).
		WithTarget("vies").
		WithLogger(logger)
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     breaker,
			BaseBackoff: 200 * time.Millisecond,
			MaxAttempts: maxAttempts,
			Jitter:      0.2,
			Timeout:     timeout,
		},
		Logger: logger,
	}
}

type restResponse struct {
	IsValid bool   `json:"isValid"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Check implements Provider against the registry's REST endpoint.
func (c *Client) Check(ctx context.Context, vatID string) (Result, error) {
	country, number, err := SplitVATID(vatID)
	if err != nil {
		c.observe("malformed")
		return Result{}, err
	}
	url := fmt.Sprintf("%s/rest-api/ms/%s/vat/%s", c.BaseURL, country, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("vies: build request: %w", err)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		c.observe("unavailable")
		c.Logger.Warn().Err(err).Str("country", country).Msg("vat registry lookup failed")
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe("unavailable")
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var decoded restResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.observe("unavailable")
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	result := Result{
		VATID:   country + number,
		Valid:   decoded.IsValid,
		Name:    cleanRegistryField(decoded.Name),
		Address: cleanRegistryField(decoded.Address),
	}
	if result.Valid {
		c.observe("valid")
	} else {
		c.observe("invalid")
	}
	return result, nil
}

func (c *Client) observe(result string) {
	if obs.ViesLookupTotal != nil {
		obs.ViesLookupTotal.WithLabelValues(result).Inc()
	}
}

// cleanRegistryField strips the registry's "---" placeholder and folds the
// multi-line address format into one line.
func cleanRegistryField(v string) string {
	v = strings.TrimSpace(v)
	if v == "---" {
		return ""
	}
	return strings.Join(strings.Fields(v), " ")
}

// Mock is a canned provider for tests and local development.
type Mock struct {
	Results map[string]Result
	Err     error
}

// Check implements Provider from the canned map. Unknown ids come back
// invalid rather than erroring.
func (m *Mock) Check(_ context.Context, vatID string) (Result, error) {
	if m.Err != nil {
		return Result{}, m.Err
	}
	country, number, err := SplitVATID(vatID)
	if err != nil {
		return Result{}, err
	}
	if r, ok := m.Results[country+number]; ok {
		return r, nil
	}
	return Result{VATID: country + number, Valid: false}, nil
}
