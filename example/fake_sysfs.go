package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// fakeProbe is one simulated sensor file.
type fakeProbe struct {
	path    string
	value   float64
	render  func(v float64) string
	badCRCs bool
}

// StartFakeSysfs lays out IIO channels and 1-Wire probes under root and lets
// their values drift every second until ctx is cancelled. Probe 28-00000bad0c3c
// reports a failed CRC now and then, which the poller retries and drops.
func StartFakeSysfs(ctx context.Context, root string) error {
	milli := func(v float64) string { return fmt.Sprintf("%d\n", int64(v*1000)) }
	w1 := func(v float64) string {
		return fmt.Sprintf("72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=%d\n", int64(v*1000))
	}

	probes := []*fakeProbe{
		{path: "bus/iio/devices/iio:device0/in_temp_input", value: 21.5, render: milli},
		{path: "bus/iio/devices/iio:device0/in_humidityrelative_input", value: 48, render: milli},
		{path: "bus/iio/devices/iio:device1/in_temp_input", value: 19.2, render: milli},
		{path: "bus/iio/devices/iio:device1/in_humidityrelative_input", value: 55, render: milli},
		{path: "bus/w1/devices/28-0000075a1b2c/w1_slave", value: 12.8, render: w1},
		{path: "bus/w1/devices/28-00000bad0c3c/w1_slave", value: 4.1, render: w1, badCRCs: true},
	}

	for _, p := range probes {
		if err := os.MkdirAll(filepath.Join(root, filepath.Dir(p.path)), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.path, err)
		}
		if err := p.write(root); err != nil {
			return err
		}
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, p := range probes {
					p.value += (rand.Float64() - 0.5) * 0.4
					if err := p.write(root); err != nil {
						slog.Error("failed to update fake sensor", "path", p.path, "error", err)
					}
				}
			}
		}
	}()
	return nil
}

func (p *fakeProbe) write(root string) error {
	content := p.render(p.value)
	if p.badCRCs && rand.Intn(4) == 0 {
		content = "72 01 4b 46 7f ff 0e 10 57 : crc=00 NO\n72 01 4b 46 7f ff 0e 10 57 t=0\n"
	}
	if err := os.WriteFile(filepath.Join(root, p.path), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.path, err)
	}
	return nil
}
