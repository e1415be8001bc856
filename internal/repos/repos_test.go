package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
	"isdn/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOrderListFilters(t *testing.T) {
	db := memdb(t)
	r := repos.NewOrderRepo(db)
	ctx := context.Background()

	all, err := r.List(ctx, repos.OrderFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("seeded orders = %d, want 4", len(all))
	}

	mine, err := r.List(ctx, repos.OrderFilter{CustomerID: "u-nimal"})
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range mine {
		if o.CustomerID != "u-nimal" {
			t.Fatalf("foreign order %s leaked into customer listing", o.ID)
		}
		if o.CustomerName != "Nimal Perera" {
			t.Fatalf("customer name = %q", o.CustomerName)
		}
	}

	hub, err := r.List(ctx, repos.OrderFilter{RDC: "kandy"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hub) != 1 || hub[0].ID != "ord-1003" {
		t.Fatalf("kandy orders = %+v", hub)
	}
}

func TestOrderGetItems(t *testing.T) {
	db := memdb(t)
	o, err := repos.NewOrderRepo(db).Get(context.Background(), "ord-1001")
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) == 0 {
		t.Fatal("no items loaded")
	}
	sum := 0.0
	for _, it := range o.Items {
		sum += it.Subtotal()
	}
	if sum != o.Total {
		t.Fatalf("items sum %.2f != total %.2f", sum, o.Total)
	}
	if _, err := repos.NewOrderRepo(db).Get(context.Background(), "nope"); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("missing order err = %v", err)
	}
}

func TestPlaceRollsBackOnShortStock(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	orders := repos.NewOrderRepo(db)
	products := repos.NewProductRepo(db)

	o := domain.Order{
		ID: "ord-x", CustomerID: "u-nimal", Status: domain.OrderPending, RDC: "Colombo", Date: time.Now(),
		Items: []domain.OrderItem{
			{ProductID: "p-rice", Quantity: 2, Price: 1450},
			{ProductID: "p-dhal", Quantity: 9, Price: 420},
		},
	}
	o.Total = 2*1450 + 9*420
	pay := domain.Transaction{ID: "tx-x", Amount: o.Total, Status: domain.PaymentPending, Method: "Card", Date: time.Now()}

	err := orders.Place(ctx, o, pay, "")
	if !errors.Is(err, repos.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	rice, err := products.Get(ctx, "p-rice")
	if err != nil {
		t.Fatal(err)
	}
	if rice.Stock != 120 {
		t.Fatalf("rice stock = %d after rollback, want 120", rice.Stock)
	}
	if _, err := orders.Get(ctx, "ord-x"); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("order persisted despite rollback: %v", err)
	}
}

func TestMissionSaveReplacesTasks(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	r := repos.NewMissionRepo(db)

	m, err := r.Get(ctx, "m-1")
	if err != nil {
		t.Fatal(err)
	}
	m.Progress = 80
	m.Status = domain.MissionDelayed
	if !m.CompleteTask(m.Tasks[0].Seq) {
		t.Fatal("first task missing")
	}
	if err := r.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get(ctx, "m-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Progress != 80 || got.Status != domain.MissionDelayed || !got.Tasks[0].Done {
		t.Fatalf("saved mission = %+v", got)
	}

	kasun, err := r.List(ctx, "kasun jayasuriya")
	if err != nil {
		t.Fatal(err)
	}
	if len(kasun) != 1 || kasun[0].ID != "m-1" {
		t.Fatalf("driver missions = %+v", kasun)
	}
}

func TestMissionRowOutOfRangeFails(t *testing.T) {
	db := memdb(t)
	if _, err := db.Exec(`UPDATE missions SET progress = 140 WHERE id = 'm-2'`); err != nil {
		t.Fatal(err)
	}
	_, err := repos.NewMissionRepo(db).List(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestPartnerAudits(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	r := repos.NewPartnerRepo(db)

	day := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	if err := r.AddAudit(ctx, "rp-2", domain.PartnerAudit{Date: day, Score: 81, Note: "Capacity ok"}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddAudit(ctx, "rp-404", domain.PartnerAudit{Date: day, Score: 1}); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("unknown partner err = %v", err)
	}
	ps, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range ps {
		if p.ID != "rp-2" {
			continue
		}
		if len(p.RecentAudits) != 2 || p.RecentAudits[0].Score != 81 {
			t.Fatalf("audits = %+v", p.RecentAudits)
		}
		return
	}
	t.Fatal("rp-2 not listed")
}

func TestSessionFollowsUser(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	users := repos.NewUserRepo(db)
	sessions := repos.NewSessionRepo(db)

	u, err := users.ByUsername(ctx, "KASUN")
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.Put(ctx, domain.NewSession("sid-1", u, time.Now())); err != nil {
		t.Fatal(err)
	}
	s, err := sessions.Get(ctx, "sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Role != domain.RoleDriver || s.RDCHub != "Colombo" {
		t.Fatalf("session = %+v", s)
	}
	if err := users.Delete(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.Get(ctx, "sid-1"); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("session survived user delete: %v", err)
	}
}

func TestCartSetQty(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	r := repos.NewCartRepo(db)

	if err := r.SetQty(ctx, "s", "p-tea", 3); err != nil {
		t.Fatal(err)
	}
	if err := r.SetQty(ctx, "s", "p-oil", 1); err != nil {
		t.Fatal(err)
	}
	if err := r.SetQty(ctx, "s", "p-oil", 0); err != nil {
		t.Fatal(err)
	}
	c, err := r.Load(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 1 || c["p-tea"] != 3 {
		t.Fatalf("cart = %v", c)
	}
}

func TestDriverCRUD(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	r := repos.NewDriverRepo(db)

	d := domain.DriverUser{ID: "u-new", FullName: "Sahan Peris", Username: "sahan", RDCHub: "Galle", LicenseNumber: "B1112223"}
	if err := r.Create(ctx, d, "hash"); err != nil {
		t.Fatal(err)
	}
	d.RDCHub = "Jaffna"
	if err := r.Update(ctx, d); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get(ctx, "u-new")
	if err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Fatalf("driver = %+v, want %+v", got, d)
	}
	if err := r.Delete(ctx, "u-admin"); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("deleting a non-driver through DriverRepo: %v", err)
	}
}
