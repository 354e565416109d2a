package app

import (
	"fmt"
	"io"

	"github.com/emmett/dictate/internal/audio"
)

// DeviceManager handles audio device selection and listing
type DeviceManager struct {
	out  io.Writer
	list func() ([]audio.DeviceInfo, error)
}

// NewDeviceManager creates a DeviceManager that prints to out
func NewDeviceManager(out io.Writer) *DeviceManager {
	return &DeviceManager{out: out, list: audio.ListDevices}
}

// ListDevices lists all available audio input devices
func (dm *DeviceManager) ListDevices() error {
	devices, err := dm.list()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio capture devices found.")
		return fmt.Errorf("no devices found")
	}

	fmt.Fprintf(dm.out, "Found %d capture device(s):\n\n", len(devices))
	for i, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(dm.out, "%d. %s%s\n", i+1, device.Name, marker)
		fmt.Fprintf(dm.out, "   ID: %s\n", device.ID)
	}

	fmt.Fprintln(dm.out)
	fmt.Fprintln(dm.out, "To use a specific device, run:")
	fmt.Fprintf(dm.out, "  dictate -device %q\n", devices[0].Name)
	return nil
}

// SelectDevice resolves a device by ID or name, or returns the default
func (dm *DeviceManager) SelectDevice(query string) (*audio.DeviceInfo, error) {
	devices, err := dm.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	device, err := audio.ResolveDevice(devices, query)
	if err != nil {
		fmt.Fprintln(dm.out, "Available devices:")
		for i, d := range devices {
			fmt.Fprintf(dm.out, "  %d. %s\n", i+1, d.String())
		}
		return nil, fmt.Errorf("invalid audio device %q: %w", query, err)
	}
	return device, nil
}
