package sensorpoll

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSysfs is a temporary directory laid out like /sys.
type fakeSysfs struct {
	t    *testing.T
	root string
}

func newFakeSysfs(t *testing.T) *fakeSysfs {
	t.Helper()
	return &fakeSysfs{t: t, root: t.TempDir()}
}

func (f *fakeSysfs) write(rel, content string) {
	f.t.Helper()
	path := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatalf("WriteFile() error = %v", err)
	}
}

// iio writes an IIO channel file.
func (f *fakeSysfs) iio(device, channel, content string) {
	f.write(filepath.Join("bus/iio/devices", device, channel), content)
}

// w1 writes the w1_slave file of a 1-Wire probe.
func (f *fakeSysfs) w1(serial, content string) {
	f.write(filepath.Join("bus/w1/devices", serial, "w1_slave"), content)
}

const w1Slave = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"

func mustSensor(t *testing.T, name, kind string, opts ...SensorOption) Sensor {
	t.Helper()
	s, err := NewSensor(name, kind, opts...)
	if err != nil {
		t.Fatalf("NewSensor() error = %v", err)
	}
	return s
}

func tempProbe(t *testing.T, name string) Sensor {
	t.Helper()
	return mustSensor(t, name, TypeIIO,
		WithDevice("iio:device0"),
		WithChannel("in_temp_input"),
	)
}
