package log

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"isdn/internal/domain"
)

// AuditEntry is what an AuditSink receives for every Audit call.
type AuditEntry struct {
	Action string
	UserID string
	Role   string
	ReqID  string
	Fields map[string]any
	At     time.Time
}

type AuditSink interface {
	Record(ctx context.Context, e AuditEntry) error
}

var (
	mu     sync.RWMutex
	logger = New(os.Stdout, zapcore.InfoLevel)
	sink   AuditSink
)

// New builds a JSON logger writing to w.
func New(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "action"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

// Init installs the process logger: stdout plus the optional log file.
// The returned func syncs and closes the file.
func Init(level, file string) (func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	var w io.Writer = os.Stdout
	var f *os.File
	if file != "" {
		f, err = os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			L().Warn("log.file.open", zap.String("file", file), zap.Error(err))
		} else {
			w = io.MultiWriter(os.Stdout, f)
		}
	}
	l := New(w, lvl)
	Use(l)
	return func() {
		_ = l.Sync()
		if f != nil {
			_ = f.Close()
		}
	}, nil
}

// Use swaps the process logger.
func Use(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetAuditSink registers s to receive audit events; nil disables it.
func SetAuditSink(s AuditSink) {
	mu.Lock()
	sink = s
	mu.Unlock()
}

func requestFields(c *fiber.Ctx) []zap.Field {
	if c == nil {
		return nil
	}
	fs := []zap.Field{
		zap.String("ip", c.IP()),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		fs = append(fs, zap.String("req_id", rid))
	}
	if s, ok := c.Locals("session").(domain.Session); ok {
		fs = append(fs, zap.String("user_id", s.UserID), zap.String("role", string(s.Role)))
	}
	return fs
}

func write(level zapcore.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	fs := append(requestFields(c), zap.String("kind", kind))
	if len(fields) > 0 {
		fs = append(fs, zap.Any("fields", fields))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	L().Log(level, action, fs...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "info", c, action, nil, fields)
}

// Audit records a successful state change and forwards it to the audit sink.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "audit", c, action, nil, fields)

	mu.RLock()
	s := sink
	mu.RUnlock()
	if s == nil {
		return
	}
	e := AuditEntry{Action: action, Fields: fields, At: time.Now().UTC()}
	ctx := context.Background()
	if c != nil {
		ctx = c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok {
			e.ReqID = rid
		}
		if sess, ok := c.Locals("session").(domain.Session); ok {
			e.UserID, e.Role = sess.UserID, string(sess.Role)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Record(ctx, e); err != nil {
		write(zapcore.WarnLevel, "security", c, "audit.sink.fail", err, map[string]any{"audit_action": action})
	}
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, "error", c, action, err, fields)
}
