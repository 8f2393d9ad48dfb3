package openalgo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
)

func testClient(url string) *Client {
	return NewClient(ClientConfig{
		HostURL:    url,
		APIKey:     "test-key",
		RatePerSec: 1000,
		Logger:     zerolog.Nop(),
	})
}

func TestQuoteDecodesStringNumbers(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/quotes" {
			t.Errorf("path = %s, want /api/v1/quotes", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		// Brokers mix quoted and bare numbers in the same payload.
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"ltp": "24512.35",
				"prev_close": 24480,
				"open": "24490.00",
				"volume": "1234567",
				"oi": null
			}
		}`))
	}))
	defer srv.Close()

	q, err := testClient(srv.URL).Quote(context.Background(), "NIFTY", models.NSEIndex)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if gotBody["apikey"] != "test-key" {
		t.Errorf("apikey not injected into body: %v", gotBody)
	}
	if q.LTP != 24512.35 {
		t.Errorf("ltp = %v, want 24512.35 (quoted string)", q.LTP)
	}
	if q.PrevClose != 24480 {
		t.Errorf("prev_close = %v, want 24480 (bare number)", q.PrevClose)
	}
	if q.Volume != 1234567 {
		t.Errorf("volume = %v, want 1234567", q.Volume)
	}
	if q.OI != 0 {
		t.Errorf("oi = %v, want 0 for null", q.OI)
	}
}

func TestErrorStatusBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "message": "Invalid openalgo apikey"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Funds(context.Background())
	var apiErr *apierrors.APIError
	if !apierrors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Message != "Invalid openalgo apikey" {
		t.Errorf("message = %q, want server message verbatim", apiErr.Message)
	}
}

func TestUnreachableServerBecomesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	_, err := testClient(srv.URL).Funds(context.Background())
	var netErr *apierrors.NetworkError
	if !apierrors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if netErr.Endpoint != "/funds" {
		t.Errorf("endpoint = %q, want /funds", netErr.Endpoint)
	}
}

func TestUnconfiguredClientShortCircuits(t *testing.T) {
	c := NewClient(ClientConfig{Logger: zerolog.Nop()})
	_, err := c.Funds(context.Background())
	if !apierrors.Is(err, apierrors.ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPlaceOrderSendsStringQuantities(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status": "success", "orderid": "25080700000123"}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).PlaceOrder(context.Background(), OrderRequest{
		Symbol:    "NIFTY07AUG2524500CE",
		Exchange:  models.NFO,
		Action:    models.ActionBuy,
		Product:   models.ProductMIS,
		PriceType: models.OrderTypeMarket,
		Quantity:  150,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if result.OrderID != "25080700000123" {
		t.Errorf("order id = %q", result.OrderID)
	}

	// The API contract wants quantities and prices as strings.
	if gotBody["quantity"] != "150" {
		t.Errorf("quantity = %v (%T), want string \"150\"", gotBody["quantity"], gotBody["quantity"])
	}
	if gotBody["price"] != "0" {
		t.Errorf("price = %v, want string \"0\"", gotBody["price"])
	}
	if gotBody["disclosed_quantity"] != "0" {
		t.Errorf("disclosed_quantity = %v, want \"0\"", gotBody["disclosed_quantity"])
	}
	if gotBody["strategy"] != "Scalper" {
		t.Errorf("strategy = %v, want default Scalper", gotBody["strategy"])
	}
}

func TestPlaceSmartOrderSendsSignedPositionSize(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status": "success", "orderid": "25080700000124"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).PlaceSmartOrder(context.Background(), OrderRequest{
		Symbol:       "NIFTY07AUG2524500CE",
		Exchange:     models.NFO,
		Action:       models.ActionBuy,
		Product:      models.ProductMIS,
		PriceType:    models.OrderTypeMarket,
		Quantity:     75,
		PositionSize: -75,
	})
	if err != nil {
		t.Fatalf("PlaceSmartOrder: %v", err)
	}
	if gotBody["position_size"] != "-75" {
		t.Errorf("position_size = %v, want \"-75\"", gotBody["position_size"])
	}
	if gotBody["quantity"] != "75" {
		t.Errorf("quantity = %v, want \"75\"", gotBody["quantity"])
	}
}

func TestOrderBookMapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"data": {"orders": [{
				"orderid": "X1",
				"symbol": "NIFTY07AUG2524500CE",
				"exchange": "NFO",
				"action": "SELL",
				"product": "MIS",
				"pricetype": "SL",
				"quantity": "75",
				"price": "95.00",
				"trigger_price": "95.50",
				"order_status": "trigger pending",
				"timestamp": "09:31:22 07-08-2025"
			}]}
		}`))
	}))
	defer srv.Close()

	orders, err := testClient(srv.URL).OrderBook(context.Background())
	if err != nil {
		t.Fatalf("OrderBook: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	o := orders[0]
	if o.Quantity != 75 || o.TriggerPrice != 95.5 {
		t.Errorf("order = %+v", o)
	}
	if !o.IsPending() {
		t.Error("trigger pending order not reported pending")
	}
	if !o.PriceType.IsStopLoss() {
		t.Error("SL pricetype not recognised")
	}
}

func TestTradeBookMapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"data": {"trades": [{
				"orderid": "T1",
				"symbol": "NIFTY07AUG2524500CE",
				"exchange": "NFO",
				"action": "BUY",
				"product": "MIS",
				"quantity": "150",
				"average_price": "101.25",
				"timestamp": "09:32:10 07-08-2025"
			}]}
		}`))
	}))
	defer srv.Close()

	trades, err := testClient(srv.URL).TradeBook(context.Background())
	if err != nil {
		t.Fatalf("TradeBook: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}
	tr := trades[0]
	if tr.OrderID != "T1" || tr.Quantity != 150 || tr.Price != 101.25 {
		t.Errorf("trade = %+v", tr)
	}
	if tr.Action != models.ActionBuy || tr.Exchange != models.NFO {
		t.Errorf("trade = %+v", tr)
	}
}

func TestPositionBookMapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"data": {"positions": [{
				"symbol": "NIFTY07AUG2524500CE",
				"exchange": "NFO",
				"product": "MIS",
				"quantity": "-150",
				"average_price": "98.40",
				"ltp": "96.10"
			}]}
		}`))
	}))
	defer srv.Close()

	positions, err := testClient(srv.URL).PositionBook(context.Background())
	if err != nil {
		t.Fatalf("PositionBook: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(positions))
	}
	p := positions[0]
	if p.Symbol != "NIFTY07AUG2524500CE" || p.Quantity != -150 {
		t.Errorf("position = %+v", p)
	}
	if p.Product != models.ProductMIS {
		t.Errorf("product = %s, want MIS", p.Product)
	}
}
