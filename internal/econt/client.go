package econt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/luminis-shop/luminis-api/internal/redisx"
)

const countryCode = "BG"

// Client proxies the Econt nomenclatures API. Office payloads pass through
// untouched; only the country filter is applied here. The filtered list is
// cached in Redis so the upstream is not hit on every checkout page load.
type Client struct {
	URL   string
	HTTP  *http.Client
	Redis *redis.Client
	Log   *zap.Logger
}

type officesResponse struct {
	Offices []json.RawMessage `json:"offices"`
}

// countryProbe picks out just enough of an office to filter it.
type countryProbe struct {
	Address struct {
		City struct {
			Country struct {
				Code2 string `json:"code2"`
			} `json:"country"`
		} `json:"city"`
	} `json:"address"`
}

func New(url string, rdb *redis.Client, log *zap.Logger) *Client {
	return &Client{
		URL:   url,
		HTTP:  &http.Client{Timeout: 15 * time.Second},
		Redis: rdb,
		Log:   log,
	}
}

// Offices returns the Bulgarian Econt offices, from cache when possible.
func (c *Client) Offices(ctx context.Context) ([]json.RawMessage, error) {
	key := fmt.Sprintf(redisx.KeyEcontOffices, countryCode)
	if cached, err := c.Redis.Get(ctx, key).Bytes(); err == nil {
		var offices []json.RawMessage
		if err := json.Unmarshal(cached, &offices); err == nil {
			return offices, nil
		}
		// poisoned cache entry, fall through and refetch
		_ = c.Redis.Del(ctx, key).Err()
	}

	offices, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(offices); err == nil {
		if err := c.Redis.Set(ctx, key, b, redisx.TTLEcontOffices).Err(); err != nil {
			c.Log.Warn("econt cache write failed", zap.Error(err))
		}
	}
	return offices, nil
}

func (c *Client) fetch(ctx context.Context) ([]json.RawMessage, error) {
	body := []byte(`{"filter":{"countryCode":"BGR"}}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("econt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("econt upstream status %d", resp.StatusCode)
	}

	var decoded officesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode econt response: %w", err)
	}

	return FilterByCountry(decoded.Offices, countryCode), nil
}

// FilterByCountry keeps only offices whose address country matches code2.
// Offices that cannot be probed are dropped.
func FilterByCountry(offices []json.RawMessage, code2 string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(offices))
	for _, raw := range offices {
		var probe countryProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.Address.City.Country.Code2 == code2 {
			out = append(out, raw)
		}
	}
	return out
}
