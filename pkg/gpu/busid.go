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
	"strconv"
	"strings"
)

// BusID is a PCI address.
type BusID struct {
	Domain   int
	Bus      int
	Device   int
	Function int
}

// ParseBusID parses a hex PCI address. Accepted forms are
// DDDD:BB:DD:F, DDDD:BB:DD.F, BB:DD:F and BB:DD.F.
func ParseBusID(raw string) (BusID, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return BusID{}, fmt.Errorf("empty bus id")
	}

	parts := strings.Split(strings.ReplaceAll(value, ".", ":"), ":")
	if len(parts) == 3 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 4 {
		return BusID{}, fmt.Errorf("invalid bus id %q", raw)
	}

	nums := make([]int, 0, 4)
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 16, 32)
		if err != nil {
			return BusID{}, fmt.Errorf("invalid bus id %q: %w", raw, err)
		}
		nums = append(nums, int(n))
	}

	return BusID{Domain: nums[0], Bus: nums[1], Device: nums[2], Function: nums[3]}, nil
}

// String renders the address in the GPU list notation.
func (b BusID) String() string {
	return fmt.Sprintf("%04x:%02x:%02x:%x", b.Domain, b.Bus, b.Device, b.Function)
}

// XorgMulti renders the multi GPU xorg.conf notation, PCI:B@DOM:D:F (decimal).
func (b BusID) XorgMulti() string {
	return fmt.Sprintf("PCI:%d@%d:%d:%d", b.Bus, b.Domain, b.Device, b.Function)
}
