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

import "strings"

// Vendor is a GPU vendor derived from the PCI vendor ID.
type Vendor int

const (
	VendorOther Vendor = iota
	VendorIntel
	VendorNvidia
	VendorAMD
)

const (
	VendorIDIntel  = "8086"
	VendorIDNvidia = "10de"
	VendorIDAMD    = "1002"
	// VendorIDAMDLegacy is used by some older AMD/ATI parts.
	VendorIDAMDLegacy = "1022"
)

// VendorFromID classifies a hex PCI vendor ID.
func VendorFromID(vendorID string) Vendor {
	switch NormalizeHexID(vendorID) {
	case VendorIDIntel:
		return VendorIntel
	case VendorIDNvidia:
		return VendorNvidia
	case VendorIDAMD, VendorIDAMDLegacy:
		return VendorAMD
	default:
		return VendorOther
	}
}

// String returns the vendor name used in the decision trace.
func (v Vendor) String() string {
	switch v {
	case VendorIntel:
		return "Intel"
	case VendorNvidia:
		return "NVIDIA"
	case VendorAMD:
		return "AMD"
	default:
		return "Other"
	}
}

// NormalizeHexID lower-cases a PCI ID and strips the 0x prefix of sysfs
// values.
func NormalizeHexID(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(strings.ToLower(value), "0x")
	return value
}
