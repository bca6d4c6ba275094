package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pump_bot/internal/modules/config"
)

// Client is a signed gate.io v4 spot REST client.
type Client struct {
	key        string
	secret     string
	baseURL    string
	quote      string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		key:     cfg.Gate.Key,
		secret:  cfg.Gate.Secret,
		baseURL: cfg.Gate.BaseURL,
		quote:   cfg.Gate.QuoteCurrency,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sign builds the gate.io v4 APIv4 signature headers:
// HMAC-SHA512(method\npath\nquery\nSHA512(body)\ntimestamp).
func (c *Client) sign(req *http.Request, body []byte) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	bodyHash := sha512.Sum512(body)
	payload := fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		req.Method, req.URL.Path, req.URL.RawQuery, hex.EncodeToString(bodyHash[:]), ts)

	mac := hmac.New(sha512.New, []byte(c.secret))
	mac.Write([]byte(payload))

	req.Header.Set("KEY", c.key)
	req.Header.Set("Timestamp", ts)
	req.Header.Set("SIGN", hex.EncodeToString(mac.Sum(nil)))
}

// do issues a signed request and returns the raw response body. Non-2xx
// responses come back as an error carrying the exchange body verbatim.
func (c *Client) do(ctx context.Context, method, path, query string, body []byte) ([]byte, error) {
	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	c.sign(req, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apiError{Status: resp.StatusCode, Body: string(raw), Endpoint: path}
	}
	return raw, nil
}

type apiError struct {
	Status   int
	Body     string
	Endpoint string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gate %s: http %d: %s", e.Endpoint, e.Status, e.Body)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
