package handlers_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"isdn/internal/domain"
	"isdn/internal/events"
	"isdn/internal/services"
)

func TestCheckoutThroughAPI(t *testing.T) {
	ta := newTestApp(t, 0)
	tok := ta.token(t, "nimal", "Passw0rd!")

	if resp := ta.do(t, "POST", "/api/v1/checkout", tok, map[string]string{"rdc": "Colombo", "method": "Card"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart checkout: %d", resp.StatusCode)
	}

	ta.do(t, "POST", "/api/v1/cart", tok, map[string]any{"product_id": "p-rice", "qty": 2})
	cart := decode[services.CartView](t, ta.do(t, "POST", "/api/v1/cart", tok, map[string]any{"product_id": "p-tea", "qty": 1}))
	if cart.Units != 3 || cart.Total != 3880 {
		t.Fatalf("cart = %+v", cart)
	}

	if resp := ta.do(t, "POST", "/api/v1/cart", tok, map[string]any{"product_id": "p-milk", "qty": 1}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("out of stock add: %d", resp.StatusCode)
	}
	if resp := ta.do(t, "POST", "/api/v1/checkout", tok, map[string]string{"rdc": "Colombo", "method": "Bitcoin"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown method: %d", resp.StatusCode)
	}

	resp := ta.do(t, "POST", "/api/v1/checkout", tok, map[string]string{"rdc": "Colombo", "method": "card"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: %d %s", resp.StatusCode, bodyString(t, resp))
	}
	o := decode[domain.Order](t, resp)
	if o.Total != 3880 || o.Status != domain.OrderPending || o.RDC != "Colombo" {
		t.Fatalf("order = %+v", o)
	}

	after := decode[services.CartView](t, ta.do(t, "GET", "/api/v1/cart", tok, nil))
	if after.Units != 0 {
		t.Fatalf("cart not cleared: %+v", after)
	}
	var stock int
	if err := ta.db.Get(&stock, `SELECT stock FROM products WHERE id = 'p-rice'`); err != nil || stock != 118 {
		t.Fatalf("rice stock = %d (%v)", stock, err)
	}
	evs := ta.events.Events()
	if len(evs) != 1 || evs[0].Type != events.OrderPlaced || evs[0].OrderID != o.ID {
		t.Fatalf("events = %+v", evs)
	}

	txs := decode[[]domain.Transaction](t, ta.do(t, "GET", "/api/v1/transactions", tok, nil))
	found := false
	for _, tx := range txs {
		if tx.OrderID == o.ID {
			found = tx.Status == domain.PaymentPending && tx.Method == "Card"
		}
	}
	if !found {
		t.Fatalf("pending card transaction missing: %+v", txs)
	}
}

func TestCartRemoveOneUnit(t *testing.T) {
	ta := newTestApp(t, 0)
	tok := ta.token(t, "dilani", "Passw0rd!")
	ta.do(t, "POST", "/api/v1/cart", tok, map[string]any{"product_id": "p-oil", "qty": 2})

	v := decode[services.CartView](t, ta.do(t, "DELETE", "/api/v1/cart/p-oil", tok, nil))
	if v.Units != 1 {
		t.Fatalf("units after remove = %d", v.Units)
	}
	ta.do(t, "DELETE", "/api/v1/cart/p-oil", tok, nil)
	if resp := ta.do(t, "DELETE", "/api/v1/cart/p-oil", tok, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("remove from empty line: %d", resp.StatusCode)
	}

	ta.do(t, "POST", "/api/v1/cart", tok, map[string]any{"product_id": "p-tea", "qty": 3})
	v = decode[services.CartView](t, ta.do(t, "DELETE", "/api/v1/cart", tok, nil))
	if v.Units != 0 || v.Total != 0 {
		t.Fatalf("cart after clear: %+v", v)
	}
}

func TestExportOrdersCSV(t *testing.T) {
	ta := newTestApp(t, 0)
	if _, err := ta.db.Exec(`UPDATE users SET full_name = 'Perera, Nimal "NP"' WHERE id = 'u-nimal'`); err != nil {
		t.Fatal(err)
	}
	admin := ta.token(t, "admin", "Passw0rd!")

	resp := ta.do(t, "GET", "/api/v1/admin/orders/export", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("content disposition = %q", cd)
	}
	body := bodyString(t, resp)
	if !strings.Contains(body, `"Perera, Nimal ""NP"""`) {
		t.Fatalf("customer name not quoted: %s", body)
	}
	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(rows) != 5 || rows[0][0] != "Order ID" {
		t.Fatalf("rows = %v", rows)
	}

	customer := ta.token(t, "nimal", "Passw0rd!")
	if resp := ta.do(t, "GET", "/api/v1/admin/orders/export", customer, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("customer export: %d", resp.StatusCode)
	}
}

func TestPaymentStatusUpdate(t *testing.T) {
	ta := newTestApp(t, 0)
	admin := ta.token(t, "admin", "Passw0rd!")

	var resp *http.Response
	logs := captureLogs(t, func() {
		resp = ta.do(t, "PATCH", "/api/v1/transactions/tx-2/status", admin, map[string]string{"status": "paid"})
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment update: %d", resp.StatusCode)
	}
	if e, ok := findLog(logs, "transactions.status"); !ok || e.Kind != "audit" || e.Fields["status"] != "PAID" {
		t.Fatalf("audit entry = %+v", e)
	}
	if resp := ta.do(t, "PATCH", "/api/v1/transactions/tx-2/status", admin, map[string]string{"status": "refunded"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad payment status: %d", resp.StatusCode)
	}
	if resp := ta.do(t, "PATCH", "/api/v1/transactions/tx-99/status", admin, map[string]string{"status": "paid"}); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown transaction: %d", resp.StatusCode)
	}
}
