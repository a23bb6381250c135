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

package gpu

import (
	"testing"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr bool
	}{
		{
			name: "domain with colon function",
			line: "8086:68d8;0000:00:01:0;1",
			want: Record{VendorID: "8086", DeviceID: "68d8", BusID: BusID{Device: 1}, BootVGA: true},
		},
		{
			name: "sysfs notation",
			line: "10DE:1140;0000:01:00.0;0",
			want: Record{VendorID: "10de", DeviceID: "1140", BusID: BusID{Bus: 1}},
		},
		{
			name: "no domain",
			line: "1002:6779;0a:00:1;0",
			want: Record{VendorID: "1002", DeviceID: "6779", BusID: BusID{Bus: 10, Function: 1}},
		},
		{name: "missing fields", line: "8086:68d8;0000:00:01:0", wantErr: true},
		{name: "bad vendor", line: "80z6:68d8;0000:00:01:0;1", wantErr: true},
		{name: "bad bus", line: "8086:68d8;00:01;1", wantErr: true},
		{name: "bad flag", line: "8086:68d8;0000:00:01:0;yes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected record: want %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseInventory(t *testing.T) {
	inv := ParseString("8086:0166;0000:00:02:0;1\n\n# comment\ngarbage\n10de:0fd1;0000:01:00:0;0\n")

	if inv.Len() != 2 {
		t.Fatalf("expected 2 gpus, got %d", inv.Len())
	}
	if inv.HasSingleCard() {
		t.Fatalf("expected multiple cards")
	}
	if !inv.HasIntel() || !inv.HasNvidia() || inv.HasAMD() {
		t.Fatalf("unexpected vendor flags: intel=%v nvidia=%v amd=%v", inv.HasIntel(), inv.HasNvidia(), inv.HasAMD())
	}
	if skipped := inv.Skipped(); len(skipped) != 1 || skipped[0] != "garbage" {
		t.Fatalf("unexpected skipped lines: %v", skipped)
	}

	boot, ok := inv.BootVGA()
	if !ok || boot.Vendor() != VendorIntel {
		t.Fatalf("expected intel boot vga, got %+v", boot)
	}
}

func TestEmptyInventoryIsValid(t *testing.T) {
	inv := ParseString("not a gpu\n")
	if inv.Len() != 0 {
		t.Fatalf("expected no gpus, got %d", inv.Len())
	}
	if inv.HasSingleCard() {
		t.Fatalf("empty inventory must not report a single card")
	}
	if _, ok := inv.BootVGA(); ok {
		t.Fatalf("expected no boot vga card")
	}
}

func TestBootVGAFallsBackToFirstCard(t *testing.T) {
	inv := ParseString("1002:6779;0000:01:00:0;0\n1002:6798;0000:02:00:0;0\n")
	boot, ok := inv.BootVGA()
	if !ok || boot.DeviceID != "6779" {
		t.Fatalf("expected first card as boot vga, got %+v", boot)
	}
}

func TestFirstOfPrefersBootVGA(t *testing.T) {
	inv := ParseString("1002:6779;0000:01:00:0;0\n1002:6798;0000:02:00:0;1\n")
	card, ok := inv.FirstOf(VendorAMD)
	if !ok || card.DeviceID != "6798" {
		t.Fatalf("expected boot vga amd card, got %+v", card)
	}
}

func TestBusIDNotations(t *testing.T) {
	id := BusID{Domain: 0, Bus: 10, Device: 0, Function: 1}
	if got := id.String(); got != "0000:0a:00:1" {
		t.Fatalf("unexpected list notation %q", got)
	}
	if got := id.XorgMulti(); got != "PCI:10@0:0:1" {
		t.Fatalf("unexpected multi notation %q", got)
	}
}

func TestVendorString(t *testing.T) {
	tests := map[string]string{
		"8086":   "Intel",
		"0x10de": "NVIDIA",
		"1002":   "AMD",
		"1022":   "AMD",
		"1af4":   "Other",
	}
	for id, want := range tests {
		if got := VendorFromID(id).String(); got != want {
			t.Fatalf("VendorFromID(%q) = %q, want %q", id, got, want)
		}
	}
}
