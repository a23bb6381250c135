/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pci

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
)

const defaultSysRoot = "/sys"

// displayClassPrefix is the PCI base class of display controllers.
const displayClassPrefix = "03"

// Device describes a PCI device read from sysfs.
type Device struct {
	Address    string
	ClassCode  string
	VendorID   string
	DeviceID   string
	DriverName string
	// BootVGA is set when the firmware used the device as primary display.
	BootVGA bool
}

// IsDisplay reports whether the device is a display controller.
func (d Device) IsDisplay() bool {
	return strings.HasPrefix(d.ClassCode, displayClassPrefix)
}

// Reader lists PCI devices.
type Reader interface {
	List(ctx context.Context) ([]Device, error)
}

// SysfsReader reads PCI devices from sysfs.
type SysfsReader struct {
	SysRoot string
}

func NewSysfsReader(sysRoot string) *SysfsReader {
	return &SysfsReader{SysRoot: sysRoot}
}

// List returns PCI devices from sysfs without filtering by vendor or class.
// Entries with unreadable identity files are skipped.
func (r *SysfsReader) List(ctx context.Context) ([]Device, error) {
	root := r.SysRoot
	if root == "" {
		root = defaultSysRoot
	}
	base := filepath.Join(root, "bus/pci/devices")

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read pci devices: %w", err)
	}

	devices := make([]Device, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		addr := entry.Name()
		devicePath := filepath.Join(base, addr)

		classCode := classPrefix(attr(devicePath, "class"))
		vendorID := gpu.NormalizeHexID(attr(devicePath, "vendor"))
		deviceID := gpu.NormalizeHexID(attr(devicePath, "device"))
		if classCode == "" || vendorID == "" || deviceID == "" {
			continue
		}

		devices = append(devices, Device{
			Address:    addr,
			ClassCode:  classCode,
			VendorID:   vendorID,
			DeviceID:   deviceID,
			DriverName: boundDriver(devicePath),
			BootVGA:    attr(devicePath, "boot_vga") == "1",
		})
	}

	return devices, nil
}

// Displays filters display controllers.
func Displays(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, dev := range devices {
		if dev.IsDisplay() {
			out = append(out, dev)
		}
	}
	return out
}

// attr reads a sysfs attribute of the device, empty when it is unreadable.
func attr(devicePath, name string) string {
	data, err := os.ReadFile(filepath.Join(devicePath, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// classPrefix keeps the base class and subclass of a class value such as
// 0x030200.
func classPrefix(raw string) string {
	value := gpu.NormalizeHexID(raw)
	if len(value) < 4 {
		return ""
	}
	return value[:4]
}

func boundDriver(devicePath string) string {
	link, err := os.Readlink(filepath.Join(devicePath, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(link)
}
