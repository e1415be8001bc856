package stats_test

import (
	"testing"

	"isdn/internal/domain"
	"isdn/internal/stats"
)

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: "o1", Status: domain.OrderPending, RDC: "Colombo", Total: 100},
		{ID: "o2", Status: domain.OrderInTransit, RDC: "Kandy", Total: 200},
		{ID: "o3", Status: domain.OrderDelivered, RDC: "Colombo", Total: 300},
		{ID: "o4", Status: domain.OrderCancelled, RDC: "Galle", Total: 400},
		{ID: "o5", Status: domain.OrderDelivered, RDC: "Colombo", Total: 50},
	}
}

func TestOrderStatusCountsSumToLength(t *testing.T) {
	for _, orders := range [][]domain.Order{nil, sampleOrders(), sampleOrders()[:2]} {
		counts := stats.OrderStatusCounts(orders)
		sum := 0
		for _, c := range counts {
			sum += c
		}
		if sum != len(orders) {
			t.Fatalf("sum %d != len %d", sum, len(orders))
		}
		if len(counts) != len(domain.OrderStatuses) {
			t.Fatalf("want every status key, got %v", counts)
		}
	}
}

func TestOrderValueAndDeliveryRate(t *testing.T) {
	orders := sampleOrders()
	if got := stats.OrderValue(orders); got != 650 {
		t.Fatalf("value: want 650, got %v", got)
	}
	// 2 delivered out of 4 live orders
	if got := stats.DeliveryRate(orders); got != 50 {
		t.Fatalf("rate: want 50, got %v", got)
	}
	if got := stats.DeliveryRate(nil); got != 0 {
		t.Fatalf("empty rate: want 0, got %v", got)
	}
}

func TestEmptyTransactionsGiveZeroPercentages(t *testing.T) {
	if got := stats.MethodBreakdown(nil); len(got) != 0 {
		t.Fatalf("want no shares, got %v", got)
	}
	if got := stats.Percent(0, 0); got != 0 {
		t.Fatalf("want 0, got %v", got)
	}
	sums := stats.PaymentSums(nil)
	for _, s := range domain.PaymentStatuses {
		if v, ok := sums[s]; !ok || v != 0 {
			t.Fatalf("%s: want 0 present, got %v (%v)", s, v, ok)
		}
	}
}

func TestMethodBreakdownPercentages(t *testing.T) {
	txs := []domain.Transaction{
		{Method: "Card", Amount: 10, Status: domain.PaymentPaid},
		{Method: "Card", Amount: 20, Status: domain.PaymentPaid},
		{Method: "Cash on Delivery", Amount: 5, Status: domain.PaymentPending},
		{Method: "Bank Transfer", Amount: 7, Status: domain.PaymentFailed},
	}
	shares := stats.MethodBreakdown(txs)
	if shares[0].Key != "Card" || shares[0].Count != 2 || shares[0].Percent != 50 {
		t.Fatalf("unexpected top share %+v", shares[0])
	}
	// ties broken by key
	if shares[1].Key != "Bank Transfer" || shares[1].Percent != 25 {
		t.Fatalf("unexpected second share %+v", shares[1])
	}
	sums := stats.PaymentSums(txs)
	if sums[domain.PaymentPaid] != 30 || sums[domain.PaymentPending] != 5 || sums[domain.PaymentFailed] != 7 {
		t.Fatalf("sums %v", sums)
	}
}

func TestTopRDC(t *testing.T) {
	top, ok := stats.TopRDC(sampleOrders())
	if !ok || top.Key != "Colombo" || top.Count != 3 {
		t.Fatalf("got %+v %v", top, ok)
	}
	if _, ok := stats.TopRDC(nil); ok {
		t.Fatal("empty orders should have no top RDC")
	}
	if got := stats.TopN(map[string]int{"a": 1, "b": 3, "c": 2}, 2); len(got) != 2 || got[0].Key != "b" || got[1].Key != "c" {
		t.Fatalf("topN %+v", got)
	}
}

func TestStockAndMissionSummary(t *testing.T) {
	s := stats.StockSummary([]domain.Product{{Stock: 0}, {Stock: 3}, {Stock: 40}})
	if s.OutOfStock != 1 || s.LowStock != 1 || s.InStock != 1 || s.Units != 43 {
		t.Fatalf("stock %+v", s)
	}
	m := stats.MissionSummary(nil)
	if m.AverageProgress != 0 {
		t.Fatalf("empty missions avg = %v", m.AverageProgress)
	}
	m = stats.MissionSummary([]domain.Mission{
		{Status: domain.MissionInRoute, Progress: 40, Tasks: []domain.MissionTask{{Done: true}, {}}},
		{Status: domain.MissionCompleted, Progress: 100},
	})
	if m.AverageProgress != 70 || m.ByStatus[domain.MissionInRoute] != 1 || m.TasksDone != 1 || m.TasksTotal != 2 {
		t.Fatalf("missions %+v", m)
	}
}
