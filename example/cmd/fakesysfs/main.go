// Standalone fake sysfs for trying the CLI without sensors attached.
//
// Usage:
//
//	go run ./example/cmd/fakesysfs -root /tmp/sensorpoll-sys
//
// Then in another terminal:
//
//	FAKE_SYSFS=/tmp/sensorpoll-sys go run ./cmd/sensorpoll serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

func main() {
	root := flag.String("root", "/tmp/sensorpoll-sys", "directory to lay out as /sys")
	flag.Parse()

	files := map[string]float64{
		"bus/iio/devices/iio:device0/in_temp_input":             21.5,
		"bus/iio/devices/iio:device0/in_humidityrelative_input": 48,
		"bus/w1/devices/28-0000075a1b2c/w1_slave":               12.8,
	}

	fmt.Printf("Fake sysfs at %s\n", *root)
	fmt.Println("Values drift every second")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	for {
		for rel, v := range files {
			v += (rand.Float64() - 0.5) * 0.4
			files[rel] = v

			path := filepath.Join(*root, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				slog.Error("mkdir failed", "error", err)
				os.Exit(1)
			}

			content := fmt.Sprintf("%d\n", int64(v*1000))
			if filepath.Base(rel) == "w1_slave" {
				content = fmt.Sprintf("72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=%d\n", int64(v*1000))
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				slog.Error("write failed", "error", err)
				os.Exit(1)
			}
		}
		time.Sleep(time.Second)
	}
}
