package ring

import (
	"context"
	"sort"
	"strings"
	"time"

	"tinygo.org/x/bluetooth"
)

// Device is a ring seen while scanning.
type Device struct {
	Name    string
	Address string
	RSSI    int16
}

// Scan lists the Colmi rings advertising within timeout. Rings already
// connected to another device do not advertise.
func Scan(ctx context.Context, adapter *bluetooth.Adapter, timeout time.Duration) ([]Device, error) {
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	if err := adapter.Enable(); err != nil {
		return nil, err
	}

	seen := make(map[string]Device)
	err := scan(ctx, adapter, timeout, func(r bluetooth.ScanResult) bool {
		if hasNamePrefix(r.LocalName(), "") {
			addr := r.Address.String()
			seen[addr] = Device{Name: r.LocalName(), Address: addr, RSSI: r.RSSI}
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(seen))
	for _, d := range seen {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].RSSI > devices[j].RSSI
	})
	return devices, nil
}

// scan runs the adapter scan until handle returns true, ctx is done or
// timeout elapses. A timeout is not an error.
func scan(ctx context.Context, adapter *bluetooth.Adapter, timeout time.Duration, handle func(bluetooth.ScanResult) bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			adapter.StopScan()
		case <-stopped:
		}
	}()

	err := adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
		if handle(r) {
			a.StopScan()
		}
	})
	close(stopped)

	if err != nil {
		return err
	}
	if ctx.Err() != nil && ctx.Err() != context.DeadlineExceeded {
		return ctx.Err()
	}
	return nil
}

// hasNamePrefix matches an advertised name against name, or against the
// Colmi prefix when name is empty.
func hasNamePrefix(advertised, name string) bool {
	if advertised == "" {
		return false
	}
	if name == "" {
		name = DeviceNamePrefix
	}
	return strings.HasPrefix(advertised, name)
}
