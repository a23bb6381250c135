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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSysfsReaderList(t *testing.T) {
	root := t.TempDir()
	devicesDir := filepath.Join(root, "bus/pci/devices")

	intel := filepath.Join(devicesDir, "0000:00:02.0")
	writeFile(t, filepath.Join(intel, "class"), "0x030000\n")
	writeFile(t, filepath.Join(intel, "vendor"), "0x8086")
	writeFile(t, filepath.Join(intel, "device"), "0x0166")
	writeFile(t, filepath.Join(intel, "boot_vga"), "1\n")

	nvidia := filepath.Join(devicesDir, "0000:01:00.0")
	writeFile(t, filepath.Join(nvidia, "class"), "0x030200")
	writeFile(t, filepath.Join(nvidia, "vendor"), "0x10de")
	writeFile(t, filepath.Join(nvidia, "device"), "0x0FD1")
	writeFile(t, filepath.Join(nvidia, "boot_vga"), "0")
	if err := os.Symlink("/sys/bus/pci/drivers/nvidia", filepath.Join(nvidia, "driver")); err != nil {
		t.Fatalf("symlink driver: %v", err)
	}

	bridge := filepath.Join(devicesDir, "0000:00:1c.0")
	writeFile(t, filepath.Join(bridge, "class"), "0x060400")
	writeFile(t, filepath.Join(bridge, "vendor"), "0x8086")
	writeFile(t, filepath.Join(bridge, "device"), "0x1c10")

	broken := filepath.Join(devicesDir, "0000:05:00.0")
	writeFile(t, filepath.Join(broken, "class"), "0x030000")

	devices, err := NewSysfsReader(root).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []Device{
		{Address: "0000:00:02.0", ClassCode: "0300", VendorID: "8086", DeviceID: "0166", BootVGA: true},
		{Address: "0000:01:00.0", ClassCode: "0302", VendorID: "10de", DeviceID: "0fd1", DriverName: "nvidia"},
	}
	if diff := cmp.Diff(want, Displays(devices)); diff != "" {
		t.Fatalf("displays mismatch (-want +got):\n%s", diff)
	}
	if len(devices) != 3 {
		t.Fatalf("expected bridge in unfiltered list, got %d devices", len(devices))
	}
}

func TestSysfsReaderMissingRoot(t *testing.T) {
	if _, err := NewSysfsReader(filepath.Join(t.TempDir(), "missing")).List(context.Background()); err == nil {
		t.Fatalf("expected error for missing sysfs root")
	}
}
