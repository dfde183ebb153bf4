package euclase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/euclase/accel"
)

// recordingDevice remembers the last logger it was given.
type recordingDevice struct {
	*accel.Software
	mu     sync.Mutex
	logger *slog.Logger
}

func (d *recordingDevice) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	d.logger = l
	d.mu.Unlock()
	d.Software.SetLogger(l)
}

func (d *recordingDevice) current() *slog.Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logger
}

// syncBuffer is a bytes.Buffer safe for the background workers' writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggerDefaultSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var buf syncBuffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(l)
	if Logger() != l {
		t.Fatal("Logger() should return the configured logger")
	}

	newCanvas(t, 16, 16)
	if !strings.Contains(buf.String(), "canvas created") {
		t.Errorf("log output %q lacks the lifecycle record", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore silence")
	}
}

func TestSetLoggerPropagatesToDevice(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	dev := &recordingDevice{Software: accel.NewSoftware(accel.SoftwareConfig{})}
	t.Cleanup(dev.Close)

	c, err := New(16, 16, WithDevice(dev))
	if err != nil {
		t.Fatal(err)
	}
	if dev.current() == nil {
		t.Fatal("New should hand the current logger to the device")
	}

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetLogger(l)
	if dev.current() != l {
		t.Error("SetLogger should reach attached devices")
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	other := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetLogger(other)
	if dev.current() != l {
		t.Error("closed canvases should detach their device")
	}
}
