// Package smartapi is a minimal Angel One SmartAPI client covering the
// pieces this engine needs: TOTP session generation and the historical
// daily-candle endpoint. It implements model.HistorySource.
package smartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"daily-sma/internal/model"

	"github.com/pquerna/otp/totp"
)

const (
	defaultRoot = "https://apiconnect.angelone.in"
	loginRoute  = "/rest/auth/angelbroking/user/v1/loginByPassword"
	candleRoute = "/rest/secure/angelbroking/historical/v1/getCandleData"
)

// Config holds SmartAPI credentials and connection settings.
type Config struct {
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string

	RootURL  string        // default: https://apiconnect.angelone.in
	Exchange string        // default: NSE
	Timeout  time.Duration // default: 7s
}

// Client is a SmartAPI historical-candle client.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	accessToken string
}

// New creates a Client. The session is generated lazily on the first
// history request.
func New(cfg Config) *Client {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "NSE"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GenerateSession logs in with password + current TOTP code and stores the
// JWT for subsequent requests.
func (c *Client) GenerateSession(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("totp generate: %w", err)
	}

	payload := map[string]string{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	}
	var resp apiResponse
	if err := c.post(ctx, loginRoute, payload, &resp); err != nil {
		return fmt.Errorf("smartapi login: %w", err)
	}
	if !resp.Status {
		return fmt.Errorf("smartapi login rejected: %s", resp.Message)
	}

	var session struct {
		JWTToken string `json:"jwtToken"`
	}
	if err := json.Unmarshal(resp.Data, &session); err != nil {
		return fmt.Errorf("smartapi login payload: %w", err)
	}
	if session.JWTToken == "" {
		return fmt.Errorf("smartapi login: empty token")
	}

	c.accessToken = session.JWTToken
	log.Printf("[smartapi] session generated for %s", c.cfg.ClientCode)
	return nil
}

// DailyBars requests ONE_DAY candles for [start, now) and wraps them in a
// BarWindow. Any transport, auth, or payload failure surfaces as an error
// so the loader classifies it as a source failure.
func (c *Client) DailyBars(ctx context.Context, symbol string, start time.Time) (*model.BarWindow, error) {
	if c.accessToken == "" {
		if err := c.GenerateSession(ctx); err != nil {
			return nil, err
		}
	}

	const dateFmt = "2006-01-02 15:04"
	payload := map[string]string{
		"exchange":    c.cfg.Exchange,
		"symboltoken": symbol,
		"interval":    "ONE_DAY",
		"fromdate":    start.Format(dateFmt),
		"todate":      time.Now().Format(dateFmt),
	}

	var resp apiResponse
	if err := c.post(ctx, candleRoute, payload, &resp); err != nil {
		return nil, fmt.Errorf("smartapi candle data: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("smartapi candle data rejected: %s", resp.Message)
	}

	bars, err := parseCandles(symbol, resp.Data)
	if err != nil {
		return nil, fmt.Errorf("smartapi candle payload: %w", err)
	}
	return model.NewBarWindow(bars, nil), nil
}

// parseCandles decodes the SmartAPI candle rows:
// [["2026-08-21T00:00:00+05:30", open, high, low, close, volume], ...]
func parseCandles(symbol string, data json.RawMessage) ([]*model.Bar, error) {
	// Timestamps are strings, prices are numbers — decode loosely.
	var raw [][]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	bars := make([]*model.Bar, 0, len(raw))
	for i, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("candle row %d: want 6 columns, got %d", i, len(row))
		}
		ts, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("candle row %d: timestamp is not a string", i)
		}
		day, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: %w", i, err)
		}

		nums := make([]float64, 5)
		for j := 1; j < 6; j++ {
			v, ok := row[j].(float64)
			if !ok {
				return nil, fmt.Errorf("candle row %d col %d: not a number", i, j)
			}
			nums[j-1] = v
		}

		bars = append(bars, &model.Bar{
			Symbol: symbol,
			Day:    day.UTC(),
			Open:   nums[0],
			High:   nums[1],
			Low:    nums[2],
			Close:  nums[3],
			Volume: int64(nums[4]),
		})
	}
	return bars, nil
}

func (c *Client) post(ctx context.Context, route string, payload any, out *apiResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RootURL+route, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-PrivateKey", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, out)
}

// Close invalidates the session token.
func (c *Client) Close() error {
	c.accessToken = ""
	return nil
}
