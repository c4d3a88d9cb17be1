package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBinanceURL is the public Binance REST endpoint.
const DefaultBinanceURL = "https://api.binance.com"

// BinanceFetcher implements Fetcher using the Binance ticker price endpoint.
type BinanceFetcher struct {
	BaseURL string
	Symbol  string
	Client  *http.Client
}

// NewBinanceFetcher creates a fetcher for symbol with optional proxy support.
func NewBinanceFetcher(baseURL, symbol, proxyURL string, timeout time.Duration) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Symbol:  symbol,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *BinanceFetcher) Name() string { return "binance:" + f.Symbol }

// tickerPrice is the JSON shape of /api/v3/ticker/price.
type tickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

func (f *BinanceFetcher) FetchPrice(ctx context.Context) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.BaseURL, url.QueryEscape(f.Symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, &FetchError{Kind: KindNetwork, Venue: f.Name(), Err: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return decimal.Zero, transportError(f.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, transportError(f.Name(), fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &FetchError{
			Kind:  KindNetwork,
			Venue: f.Name(),
			Err:   fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)),
		}
	}

	var tp tickerPrice
	if err := json.Unmarshal(body, &tp); err != nil {
		return decimal.Zero, &FetchError{Kind: KindParse, Venue: f.Name(), Err: fmt.Errorf("decode price: %w", err)}
	}
	if !tp.Price.IsPositive() {
		return decimal.Zero, &FetchError{Kind: KindParse, Venue: f.Name(), Err: fmt.Errorf("non-positive price %q", tp.Price.String())}
	}
	return tp.Price, nil
}
