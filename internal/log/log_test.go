package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"

	applog "isdn/internal/log"
)

type entry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	Error  string         `json:"error"`
	Fields map[string]any `json:"fields"`
}

func capture(t *testing.T, fn func()) []entry {
	t.Helper()
	var buf bytes.Buffer
	old := applog.L()
	applog.Use(applog.New(&buf, zapcore.DebugLevel))
	defer applog.Use(old)

	fn()

	var out []entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			out = append(out, e)
		}
	}
	return out
}

type memSink struct {
	mu      sync.Mutex
	actions []string
}

func (s *memSink) Record(_ context.Context, e applog.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, e.Action)
	return nil
}

func TestLevelsAndKinds(t *testing.T) {
	entries := capture(t, func() {
		applog.Info(nil, "boot", nil)
		applog.Security(nil, "access.denied.admin", map[string]any{"sid": "x"})
		applog.Error(nil, "orders.list.fail", errors.New("db down"), nil)
	})
	if len(entries) != 3 {
		t.Fatalf("want 3 lines, got %d", len(entries))
	}
	if entries[1].Level != "warn" || entries[1].Kind != "security" || entries[1].Fields["sid"] != "x" {
		t.Fatalf("security line %+v", entries[1])
	}
	if entries[2].Level != "error" || entries[2].Error != "db down" {
		t.Fatalf("error line %+v", entries[2])
	}
}

func TestAuditForwardsToSink(t *testing.T) {
	s := &memSink{}
	applog.SetAuditSink(s)
	defer applog.SetAuditSink(nil)

	entries := capture(t, func() {
		applog.Audit(nil, "admin.orders.status", map[string]any{"order_id": "o1"})
	})
	if len(entries) != 1 || entries[0].Kind != "audit" {
		t.Fatalf("audit line %+v", entries)
	}
	if len(s.actions) != 1 || s.actions[0] != "admin.orders.status" {
		t.Fatalf("sink got %v", s.actions)
	}
}
