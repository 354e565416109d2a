package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gen2brain/malgo"
)

// DeviceInfo contains information about a capture device
type DeviceInfo struct {
	ID        string // "capture-<index>" in malgo enumeration order
	Name      string // Human-readable device name
	IsDefault bool   // Whether this is the system default input
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s: %s%s", d.ID, d.Name, defaultMarker)
}

// ListDevices returns all available capture devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer freeContext(ctx)

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, DeviceInfo{
			ID:        deviceID(i),
			Name:      info.Name(),
			IsDefault: info.IsDefault > 0,
		})
	}
	return devices, nil
}

// ResolveDevice finds a device by exact ID, exact name, or case-insensitive
// partial name match. An empty query resolves to the default device.
func ResolveDevice(devices []DeviceInfo, query string) (*DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}

	if query == "" {
		for i := range devices {
			if devices[i].IsDefault {
				return &devices[i], nil
			}
		}
		return &devices[0], nil
	}

	for i := range devices {
		if devices[i].ID == query || devices[i].Name == query {
			return &devices[i], nil
		}
	}

	search := strings.ToLower(query)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), search) {
			return &devices[i], nil
		}
	}

	return nil, fmt.Errorf("no device found matching: %s", query)
}

func deviceID(index int) string {
	return fmt.Sprintf("capture-%d", index)
}

func deviceIndex(id string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "capture-"))
	if err != nil || !strings.HasPrefix(id, "capture-") {
		return 0, fmt.Errorf("invalid device id: %s", id)
	}
	if n < 0 || n >= count {
		return 0, fmt.Errorf("device not found: %s", id)
	}
	return n, nil
}
