package euclase

import (
	"log/slog"
	"sync"

	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
)

// SetLogger configures the logger for euclase and all its sub-packages.
// By default, euclase produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by euclase:
//   - [slog.LevelDebug]: per-request diagnostics (tile counts, job order)
//   - [slog.LevelInfo]: lifecycle events (canvas created, device attached)
//   - [slog.LevelWarn]: non-fatal issues (host fallback, failed tiles)
//
// Example:
//
//	euclase.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
	l = logging.Get()

	devicesMu.Lock()
	defer devicesMu.Unlock()
	for d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by euclase.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Get()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// devices counts the canvases attached to each device so SetLogger can
// reach every device in use.
var (
	devicesMu sync.Mutex
	devices   = map[pixel.Device]int{}
)

func attachDevice(d pixel.Device) {
	if d == nil {
		return
	}
	devicesMu.Lock()
	devices[d]++
	devicesMu.Unlock()
	propagateLogger(d, logging.Get())
}

func detachDevice(d pixel.Device) {
	if d == nil {
		return
	}
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devices[d]--; devices[d] <= 0 {
		delete(devices, d)
	}
}

func propagateLogger(d pixel.Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
