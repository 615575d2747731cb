package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"alpha_sim/internal/market"

	"github.com/shopspring/decimal"
)

const sampleKlines = `[
  [1760529600000,"100.10","101.50","99.80","101.00","1234.5",1760529779999,"124000.1",310,"600.2","60500.3","0"],
  [1760529780000,"101.00","102.25","100.90","102.00","987.25",1760529959999,"100000.0",280,"500.0","50000.0","0"]
]`

func TestGetCandles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sampleKlines))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, srv.Client())
	bars, err := p.GetCandles(context.Background(), "ETHUSDT", "3m", 2)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}

	if gotQuery != "interval=3m&limit=2&symbol=ETHUSDT" {
		t.Errorf("Unexpected query %s", gotQuery)
	}
	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(bars))
	}

	b := bars[1]
	if !b.Close.Equal(decimal.RequireFromString("102.00")) || !b.High.Equal(decimal.RequireFromString("102.25")) {
		t.Errorf("Unexpected prices: %+v", b)
	}
	if b.Volume != 987.25 {
		t.Errorf("Expected volume 987.25, got %f", b.Volume)
	}
	if b.Time.UnixMilli() != 1760529780000 {
		t.Errorf("Unexpected open time %s", b.Time)
	}
}

func TestGetCandles_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"empty", http.StatusOK, `[]`, market.ErrNoData},
		{"short row", http.StatusOK, `[[1760529600000,"1","2","0.5","1.5","10"]]`, market.ErrMalformed},
		{"not an array", http.StatusOK, `{"foo":"bar"}`, market.ErrMalformed},
		{"bad price", http.StatusOK, `[[1,"x","2","0.5","1.5","10",2,"0",1,"0","0","0"]]`, market.ErrMalformed},
		{"api error", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewProvider(srv.URL, srv.Client()).GetCandles(context.Background(), "NOPE", "3m", 10)
			if err == nil {
				t.Fatal("Expected error")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Errorf("Expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestGetCandles_BadTimeframe(t *testing.T) {
	if _, err := NewProvider("http://127.0.0.1:1", nil).GetCandles(context.Background(), "ETHUSDT", "3x", 10); err == nil {
		t.Error("Expected timeframe error")
	}
}
