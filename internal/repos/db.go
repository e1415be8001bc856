package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"isdn/internal/domain"
)

var ErrNotFound = errors.New("not found")

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affected turns a zero-row update into ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// OpenDB opens a SQLite database (file path or ":memory:") with schema and demo data.
func OpenDB(dsn string) (*sqlx.DB, error) { return Open("sqlite", dsn) }

// Open connects with driver "sqlite" or "pgx", creates the schema and seeds an empty database.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite", "pgx":
	default:
		return nil, fmt.Errorf("repos: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return nil, err
		}
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS hubs(
  id   TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS users(
  id             TEXT PRIMARY KEY,
  username       TEXT NOT NULL UNIQUE,
  full_name      TEXT NOT NULL,
  email          TEXT NOT NULL DEFAULT '',
  password_hash  TEXT NOT NULL,
  role           TEXT NOT NULL CHECK (role IN ('admin','customer','driver','rdc')),
  rdc_hub        TEXT NOT NULL DEFAULT '',
  license_number TEXT NOT NULL DEFAULT '',
  created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

CREATE TABLE IF NOT EXISTS sessions(
  id         TEXT PRIMARY KEY,
  user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  last_seen  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS products(
  id         TEXT PRIMARY KEY,
  sku        TEXT NOT NULL UNIQUE,
  name       TEXT NOT NULL,
  category   TEXT NOT NULL,
  price      DOUBLE PRECISION NOT NULL CHECK (price >= 0),
  stock      INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  image      TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

CREATE TABLE IF NOT EXISTS orders(
  id          TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  total       DOUBLE PRECISION NOT NULL,
  status      TEXT NOT NULL,
  rdc         TEXT NOT NULL,
  order_date  TEXT NOT NULL,
  driver_id   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_driver   ON orders(driver_id);
CREATE INDEX IF NOT EXISTS idx_orders_rdc      ON orders(rdc);

CREATE TABLE IF NOT EXISTS order_items(
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  quantity   INTEGER NOT NULL CHECK (quantity >= 1),
  price      DOUBLE PRECISION NOT NULL,
  PRIMARY KEY(order_id, product_id)
);

CREATE TABLE IF NOT EXISTS transactions(
  id       TEXT PRIMARY KEY,
  order_id TEXT NOT NULL DEFAULT '',
  amount   DOUBLE PRECISION NOT NULL,
  status   TEXT NOT NULL,
  method   TEXT NOT NULL,
  tx_date  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions(order_id);

CREATE TABLE IF NOT EXISTS missions(
  id               TEXT PRIMARY KEY,
  driver_name      TEXT NOT NULL,
  vehicle          TEXT NOT NULL,
  status           TEXT NOT NULL,
  progress         DOUBLE PRECISION NOT NULL DEFAULT 0,
  current_location TEXT NOT NULL DEFAULT '',
  fuel             DOUBLE PRECISION NOT NULL DEFAULT 0,
  cargo_load       DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS mission_tasks(
  mission_id TEXT NOT NULL REFERENCES missions(id) ON DELETE CASCADE,
  seq        INTEGER NOT NULL,
  slot       TEXT NOT NULL DEFAULT '',
  label      TEXT NOT NULL,
  location   TEXT NOT NULL DEFAULT '',
  done       INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY(mission_id, seq)
);

CREATE TABLE IF NOT EXISTS staff(
  id     TEXT PRIMARY KEY,
  name   TEXT NOT NULL,
  role   TEXT NOT NULL,
  status TEXT NOT NULL,
  email  TEXT NOT NULL DEFAULT '',
  phone  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS partners(
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL,
  hub            TEXT NOT NULL,
  status         TEXT NOT NULL,
  rating         DOUBLE PRECISION NOT NULL DEFAULT 0,
  contract_start TEXT NOT NULL DEFAULT '',
  contract_end   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS partner_audits(
  partner_id TEXT NOT NULL REFERENCES partners(id) ON DELETE CASCADE,
  audited_on TEXT NOT NULL,
  score      INTEGER NOT NULL,
  note       TEXT NOT NULL DEFAULT '',
  PRIMARY KEY(partner_id, audited_on)
);

CREATE TABLE IF NOT EXISTS cart_items(
  session_id TEXT NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  qty        INTEGER NOT NULL CHECK (qty >= 1),
  updated_at TEXT NOT NULL,
  PRIMARY KEY(session_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

// dateOnly formats t as a bare date, or "" for the zero time.
func dateOnly(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(domain.DateLayout)
}
