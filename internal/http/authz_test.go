package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"isdn/internal/domain"
)

func TestPageGuardRedirects(t *testing.T) {
	ta := newTestApp(t, 0)

	if resp := ta.page(t, "/admin", ""); resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("anonymous /admin: %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	sid := ta.token(t, "kasun", domain.DefaultDriverPassword)
	var resp *http.Response
	logs := captureLogs(t, func() { resp = ta.page(t, "/admin", sid) })
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("driver /admin: %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	e, ok := findLog(logs, "access.denied.admin")
	if !ok {
		t.Fatalf("denial not logged: %+v", logs)
	}
	if e.Kind != "security" || e.Fields["have"] != "driver" {
		t.Fatalf("denial entry = %+v", e)
	}
}

func TestDeniedPageNeverFetches(t *testing.T) {
	ta := newTestApp(t, 0)
	driver := ta.token(t, "kasun", domain.DefaultDriverPassword)
	admin := ta.token(t, "admin", "Passw0rd!")

	// Any fetch of orders now fails.
	if _, err := ta.db.Exec(`ALTER TABLE orders RENAME TO orders_gone`); err != nil {
		t.Fatal(err)
	}

	if resp := ta.page(t, "/admin", driver); resp.StatusCode != http.StatusFound {
		t.Fatalf("guarded page reached the handler: %d", resp.StatusCode)
	}

	resp := ta.page(t, "/admin", admin)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("failed fetch should fail the whole view, got %d", resp.StatusCode)
	}
	body := bodyString(t, resp)
	if !strings.Contains(body, "Please retry") || strings.Contains(body, "orders") {
		t.Fatalf("unexpected error page: %s", body)
	}
}

func TestAPIGuard(t *testing.T) {
	ta := newTestApp(t, 0)

	if resp := ta.do(t, "GET", "/api/v1/overview", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous overview: %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/v1/overview", "not-a-session", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown token: %d", resp.StatusCode)
	}

	customer := ta.token(t, "nimal", "Passw0rd!")
	var resp *http.Response
	logs := captureLogs(t, func() { resp = ta.do(t, "GET", "/api/v1/admin/live", customer, nil) })
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("customer on admin API: %d", resp.StatusCode)
	}
	if _, ok := findLog(logs, "access.denied.admin"); !ok {
		t.Fatalf("denial not logged: %+v", logs)
	}
	if resp := ta.do(t, "PATCH", "/api/v1/orders/ord-1002/status", customer, map[string]string{"status": "Delivered"}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("customer status update: %d", resp.StatusCode)
	}

	rdc := ta.token(t, "rdc_kandy", "Passw0rd!")
	if resp := ta.do(t, "GET", "/api/v1/transactions", rdc, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("rdc transactions: %d", resp.StatusCode)
	}
}

func TestCustomerSeesOnlyOwnOrders(t *testing.T) {
	ta := newTestApp(t, 0)
	tok := ta.token(t, "dilani", "Passw0rd!")

	orders := decode[[]domain.Order](t, ta.do(t, "GET", "/api/v1/orders", tok, nil))
	if len(orders) != 2 {
		t.Fatalf("dilani sees %d orders", len(orders))
	}
	for _, o := range orders {
		if o.CustomerID != "u-dilani" {
			t.Fatalf("foreign order %s leaked", o.ID)
		}
	}
	if resp := ta.do(t, "GET", "/api/v1/orders/ord-1001", tok, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("other customer's order: %d", resp.StatusCode)
	}
	o := decode[domain.Order](t, ta.do(t, "GET", "/api/v1/orders/ord-1003", tok, nil))
	if len(o.Items) != 2 {
		t.Fatalf("items = %+v", o.Items)
	}
}

func TestOrderOwnershipOnStatusChange(t *testing.T) {
	ta := newTestApp(t, 0)
	kasun := ta.token(t, "kasun", domain.DefaultDriverPassword)

	resp := ta.do(t, "PATCH", "/api/v1/orders/ord-1002/status", kasun, map[string]string{"status": "Delivered"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("driver on own order: %d", resp.StatusCode)
	}
	ch := decode[struct {
		From domain.OrderStatus `json:"from"`
		To   domain.OrderStatus `json:"to"`
	}](t, resp)
	if ch.From != domain.OrderInTransit || ch.To != domain.OrderDelivered {
		t.Fatalf("change = %+v", ch)
	}

	if resp := ta.do(t, "PATCH", "/api/v1/orders/ord-1003/status", kasun, map[string]string{"status": "Delivered"}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("driver on unassigned order: %d", resp.StatusCode)
	}

	cmb := ta.token(t, "rdc_colombo", "Passw0rd!")
	if resp := ta.do(t, "PATCH", "/api/v1/orders/ord-1003/status", cmb, map[string]string{"status": "Cancelled"}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("colombo desk on kandy order: %d", resp.StatusCode)
	}
	kdy := ta.token(t, "rdc_kandy", "Passw0rd!")
	if resp := ta.do(t, "PATCH", "/api/v1/orders/ord-1003/status", kdy, map[string]string{"status": "shipped"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown status: %d", resp.StatusCode)
	}
	if resp := ta.do(t, "PATCH", "/api/v1/orders/ord-1003/driver", kdy, map[string]string{"driver_id": "u-ruwan"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("kandy desk assigns ruwan: %d", resp.StatusCode)
	}

	if n := len(ta.events.Events()); n != 2 {
		t.Fatalf("published %d events, want 2", n)
	}
}
