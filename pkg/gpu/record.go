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
	"fmt"
	"strings"
)

// Record describes a single enumerated GPU.
type Record struct {
	VendorID string
	DeviceID string
	BusID    BusID
	BootVGA  bool
}

// Vendor returns the vendor derived from VendorID.
func (r Record) Vendor() Vendor {
	return VendorFromID(r.VendorID)
}

// String renders the record in the VVVV:DDDD;BUS;BOOTVGA notation.
func (r Record) String() string {
	bootVGA := "0"
	if r.BootVGA {
		bootVGA = "1"
	}
	return fmt.Sprintf("%s:%s;%s;%s", r.VendorID, r.DeviceID, r.BusID, bootVGA)
}

// ParseRecord parses a single VVVV:DDDD;BUS;BOOTVGA line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimSpace(line), ";")
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("expected 3 fields in %q, got %d", line, len(fields))
	}

	ids := strings.Split(fields[0], ":")
	if len(ids) != 2 {
		return Record{}, fmt.Errorf("invalid vendor:device pair %q", fields[0])
	}
	vendorID := NormalizeHexID(ids[0])
	deviceID := NormalizeHexID(ids[1])
	if !isHexID(vendorID) || !isHexID(deviceID) {
		return Record{}, fmt.Errorf("invalid vendor:device pair %q", fields[0])
	}

	busID, err := ParseBusID(fields[1])
	if err != nil {
		return Record{}, err
	}

	var bootVGA bool
	switch strings.TrimSpace(fields[2]) {
	case "1":
		bootVGA = true
	case "0":
	default:
		return Record{}, fmt.Errorf("invalid boot_vga flag %q", fields[2])
	}

	return Record{
		VendorID: vendorID,
		DeviceID: deviceID,
		BusID:    busID,
		BootVGA:  bootVGA,
	}, nil
}

func isHexID(value string) bool {
	if len(value) != 4 {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
