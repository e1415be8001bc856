package repos

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"isdn/internal/domain"
	applog "isdn/internal/log"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Hubs  []domain.RDCHub `yaml:"hubs"`
	Users []struct {
		ID            string `yaml:"id"`
		Username      string `yaml:"username"`
		FullName      string `yaml:"full_name"`
		Email         string `yaml:"email"`
		Role          string `yaml:"role"`
		RDCHub        string `yaml:"rdc_hub"`
		LicenseNumber string `yaml:"license_number"`
		Password      string `yaml:"password"`
	} `yaml:"users"`
	Products []domain.Product     `yaml:"products"`
	Staff    []domain.StaffMember `yaml:"staff"`
	Partners []struct {
		ID            string  `yaml:"id"`
		Name          string  `yaml:"name"`
		Hub           string  `yaml:"hub"`
		Status        string  `yaml:"status"`
		Rating        float64 `yaml:"rating"`
		ContractStart string  `yaml:"contract_start"`
		ContractEnd   string  `yaml:"contract_end"`
		Audits        []struct {
			Date  string `yaml:"date"`
			Score int    `yaml:"score"`
			Note  string `yaml:"note"`
		} `yaml:"audits"`
	} `yaml:"partners"`
	Missions []struct {
		ID              string               `yaml:"id"`
		DriverName      string               `yaml:"driver_name"`
		Vehicle         string               `yaml:"vehicle"`
		Status          string               `yaml:"status"`
		Progress        float64              `yaml:"progress"`
		CurrentLocation string               `yaml:"current_location"`
		Fuel            float64              `yaml:"fuel"`
		Load            float64              `yaml:"load"`
		Tasks           []domain.MissionTask `yaml:"tasks"`
	} `yaml:"missions"`
	Orders []struct {
		ID         string `yaml:"id"`
		CustomerID string `yaml:"customer_id"`
		Status     string `yaml:"status"`
		RDC        string `yaml:"rdc"`
		Date       string `yaml:"date"`
		DriverID   string `yaml:"driver_id"`
		Items      []struct {
			ProductID string `yaml:"product_id"`
			Quantity  int    `yaml:"quantity"`
		} `yaml:"items"`
	} `yaml:"orders"`
	Transactions []struct {
		ID      string  `yaml:"id"`
		OrderID string  `yaml:"order_id"`
		Amount  float64 `yaml:"amount"`
		Status  string  `yaml:"status"`
		Method  string  `yaml:"method"`
		Date    string  `yaml:"date"`
	} `yaml:"transactions"`
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var sf seedFile
	if err := yaml.Unmarshal(seedYAML, &sf); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	applog.Info(nil, "seed.insert", map[string]any{
		"users": len(sf.Users), "products": len(sf.Products), "orders": len(sf.Orders),
	})

	now := domain.FormatTime(time.Now())
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(q string, args ...any) {
		if err == nil {
			_, err = tx.Exec(tx.Rebind(q), args...)
		}
	}

	for _, h := range sf.Hubs {
		exec(`INSERT INTO hubs(id,name) VALUES(?,?)`, h.ID, h.Name)
	}

	hashes := map[string]string{}
	for _, u := range sf.Users {
		h, ok := hashes[u.Password]
		if !ok {
			b, herr := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if herr != nil {
				return herr
			}
			h = string(b)
			hashes[u.Password] = h
		}
		exec(`INSERT INTO users(id,username,full_name,email,password_hash,role,rdc_hub,license_number,created_at)
		      VALUES(?,?,?,?,?,?,?,?,?)`,
			u.ID, u.Username, u.FullName, u.Email, h, u.Role, u.RDCHub, u.LicenseNumber, now)
	}

	prices := map[string]float64{}
	for _, p := range sf.Products {
		prices[p.ID] = p.Price
		exec(`INSERT INTO products(id,sku,name,category,price,stock,image,created_at) VALUES(?,?,?,?,?,?,?,?)`,
			p.ID, p.SKU, p.Name, p.Category, p.Price, p.Stock, p.Image, now)
	}

	for _, s := range sf.Staff {
		exec(`INSERT INTO staff(id,name,role,status,email,phone) VALUES(?,?,?,?,?,?)`,
			s.ID, s.Name, s.Role, s.Status, s.Email, s.Phone)
	}

	for _, p := range sf.Partners {
		exec(`INSERT INTO partners(id,name,hub,status,rating,contract_start,contract_end) VALUES(?,?,?,?,?,?,?)`,
			p.ID, p.Name, p.Hub, p.Status, p.Rating, p.ContractStart, p.ContractEnd)
		for _, a := range p.Audits {
			exec(`INSERT INTO partner_audits(partner_id,audited_on,score,note) VALUES(?,?,?,?)`, p.ID, a.Date, a.Score, a.Note)
		}
	}

	for _, m := range sf.Missions {
		exec(`INSERT INTO missions(id,driver_name,vehicle,status,progress,current_location,fuel,cargo_load,created_at)
		      VALUES(?,?,?,?,?,?,?,?,?)`,
			m.ID, m.DriverName, m.Vehicle, m.Status, m.Progress, m.CurrentLocation, m.Fuel, m.Load, now)
		for _, t := range m.Tasks {
			exec(`INSERT INTO mission_tasks(mission_id,seq,slot,label,location,done) VALUES(?,?,?,?,?,?)`,
				m.ID, t.Seq, t.Time, t.Label, t.Location, boolInt(t.Done))
		}
	}

	for _, o := range sf.Orders {
		total := 0.0
		for _, it := range o.Items {
			total += prices[it.ProductID] * float64(it.Quantity)
		}
		exec(`INSERT INTO orders(id,customer_id,total,status,rdc,order_date,driver_id) VALUES(?,?,?,?,?,?,?)`,
			o.ID, o.CustomerID, total, o.Status, o.RDC, o.Date, o.DriverID)
		for _, it := range o.Items {
			exec(`INSERT INTO order_items(order_id,product_id,quantity,price) VALUES(?,?,?,?)`,
				o.ID, it.ProductID, it.Quantity, prices[it.ProductID])
		}
	}

	for _, t := range sf.Transactions {
		exec(`INSERT INTO transactions(id,order_id,amount,status,method,tx_date) VALUES(?,?,?,?,?,?)`,
			t.ID, t.OrderID, t.Amount, t.Status, t.Method, t.Date)
	}

	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
