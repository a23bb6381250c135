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

package pciids

import (
	"path/filepath"
	"testing"
)

func TestLoadFirst(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "pci.ids")
	res, path, err := LoadFirst([]string{"", missing, filepath.Join("testdata", "pci.ids")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != filepath.Join("testdata", "pci.ids") {
		t.Fatalf("unexpected path %q", path)
	}

	tests := []struct {
		vendor, device string
		vendorName     string
		deviceName     string
	}{
		{vendor: "8086", device: "0166", vendorName: "Intel Corporation", deviceName: "3rd Gen Core processor Graphics Controller"},
		{vendor: "10DE", device: "0FD1", vendorName: "NVIDIA Corporation", deviceName: "GK107M [GeForce GT 650M]"},
		{vendor: "1002", device: "ffff", vendorName: "Advanced Micro Devices, Inc. [AMD/ATI]"},
		{vendor: "17aa", device: "2203"},
	}
	for _, tt := range tests {
		if got := res.VendorName(tt.vendor); got != tt.vendorName {
			t.Fatalf("VendorName(%s) = %q, want %q", tt.vendor, got, tt.vendorName)
		}
		if got := res.DeviceName(tt.vendor, tt.device); got != tt.deviceName {
			t.Fatalf("DeviceName(%s, %s) = %q, want %q", tt.vendor, tt.device, got, tt.deviceName)
		}
	}
	if got := res.DeviceName("03", "00"); got != "" {
		t.Fatalf("class entries must not resolve as devices, got %q", got)
	}
}

func TestLoadFirstNothingFound(t *testing.T) {
	res, path, err := LoadFirst([]string{filepath.Join(t.TempDir(), "none")})
	if res != nil || path != "" || err != nil {
		t.Fatalf("expected empty result, got %v %q %v", res, path, err)
	}
	var nilResolver *Resolver
	if nilResolver.VendorName("8086") != "" {
		t.Fatalf("nil resolver must resolve nothing")
	}
}
