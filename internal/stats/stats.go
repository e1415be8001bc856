// Package stats derives dashboard aggregates from fetched collections.
// Every function is a pure single pass over its input.
package stats

import (
	"math"
	"sort"

	"isdn/internal/domain"
)

// Share is one bucket of a breakdown.
type Share struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Percent returns part/whole*100 rounded to one decimal, or 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(part/whole*1000) / 10
}

// Breakdown tallies keys and returns shares sorted by count desc, then key.
func Breakdown(keys []string) []Share {
	tally := make(map[string]int, len(keys))
	for _, k := range keys {
		tally[k]++
	}
	return fromTally(tally, len(keys))
}

// TopN returns the n largest buckets of tally. n <= 0 returns all of them.
func TopN(tally map[string]int, n int) []Share {
	total := 0
	for _, c := range tally {
		total += c
	}
	out := fromTally(tally, total)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func fromTally(tally map[string]int, total int) []Share {
	out := make([]Share, 0, len(tally))
	for k, c := range tally {
		out = append(out, Share{Key: k, Count: c, Percent: Percent(float64(c), float64(total))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// OrderStatusCounts always carries all four statuses so the KPI cards render zeros.
func OrderStatusCounts(orders []domain.Order) map[domain.OrderStatus]int {
	out := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		out[s] = 0
	}
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// OrderValue sums the totals of every order that was not cancelled.
func OrderValue(orders []domain.Order) float64 {
	sum := 0.0
	for _, o := range orders {
		if o.Status != domain.OrderCancelled {
			sum += o.Total
		}
	}
	return sum
}

// DeliveryRate is the share of non-cancelled orders that reached Delivered.
func DeliveryRate(orders []domain.Order) float64 {
	var delivered, live int
	for _, o := range orders {
		if o.Status == domain.OrderCancelled {
			continue
		}
		live++
		if o.Status == domain.OrderDelivered {
			delivered++
		}
	}
	return Percent(float64(delivered), float64(live))
}

func RegionBreakdown(orders []domain.Order) []Share {
	keys := make([]string, len(orders))
	for i, o := range orders {
		keys[i] = o.RDC
	}
	return Breakdown(keys)
}

// TopRDC is the hub with the most orders.
func TopRDC(orders []domain.Order) (Share, bool) {
	tally := map[string]int{}
	for _, o := range orders {
		if o.RDC != "" {
			tally[o.RDC]++
		}
	}
	top := TopN(tally, 1)
	if len(top) == 0 {
		return Share{}, false
	}
	return top[0], true
}

// PaymentSums totals transaction amounts per payment status.
func PaymentSums(txs []domain.Transaction) map[domain.PaymentStatus]float64 {
	out := make(map[domain.PaymentStatus]float64, len(domain.PaymentStatuses))
	for _, s := range domain.PaymentStatuses {
		out[s] = 0
	}
	for _, t := range txs {
		out[t.Status] += t.Amount
	}
	return out
}

func MethodBreakdown(txs []domain.Transaction) []Share {
	keys := make([]string, len(txs))
	for i, t := range txs {
		keys[i] = t.Method
	}
	return Breakdown(keys)
}

func CategoryBreakdown(products []domain.Product) []Share {
	keys := make([]string, len(products))
	for i, p := range products {
		keys[i] = p.Category
	}
	return Breakdown(keys)
}

type Stock struct {
	InStock    int `json:"in_stock"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
	Units      int `json:"units"`
}

func StockSummary(products []domain.Product) Stock {
	var s Stock
	for _, p := range products {
		switch p.Level() {
		case domain.InStock:
			s.InStock++
		case domain.LowStock:
			s.LowStock++
		default:
			s.OutOfStock++
		}
		if p.Stock > 0 {
			s.Units += p.Stock
		}
	}
	return s
}

type Missions struct {
	ByStatus        map[domain.MissionStatus]int `json:"by_status"`
	AverageProgress float64                      `json:"average_progress"`
	TasksDone       int                          `json:"tasks_done"`
	TasksTotal      int                          `json:"tasks_total"`
}

func MissionSummary(missions []domain.Mission) Missions {
	out := Missions{ByStatus: make(map[domain.MissionStatus]int, len(domain.MissionStatuses))}
	for _, s := range domain.MissionStatuses {
		out.ByStatus[s] = 0
	}
	progress := 0.0
	for _, m := range missions {
		out.ByStatus[m.Status]++
		progress += m.Progress
		out.TasksDone += m.TasksDone()
		out.TasksTotal += len(m.Tasks)
	}
	if len(missions) > 0 {
		out.AverageProgress = math.Round(progress/float64(len(missions))*10) / 10
	}
	return out
}
