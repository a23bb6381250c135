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

package xorg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
)

var ErrInvalidBusID = errors.New("invalid xorg BusID")

// ParseBusID normalizes both xorg notations, PCI:B:D:F and PCI:B@DOM:D:F.
// The numbers are decimal.
func ParseBusID(raw string) (gpu.BusID, error) {
	value := strings.TrimSpace(raw)
	if len(value) < 4 || !strings.EqualFold(value[:4], "PCI:") {
		return gpu.BusID{}, fmt.Errorf("%w: %q", ErrInvalidBusID, raw)
	}
	parts := strings.Split(value[4:], ":")
	if len(parts) != 3 {
		return gpu.BusID{}, fmt.Errorf("%w: %q", ErrInvalidBusID, raw)
	}

	bus, domain := parts[0], "0"
	if at := strings.IndexByte(bus, '@'); at >= 0 {
		bus, domain = bus[:at], bus[at+1:]
	}

	numbers := make([]int, 0, 4)
	for _, field := range []string{domain, bus, parts[1], parts[2]} {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return gpu.BusID{}, fmt.Errorf("%w: %q", ErrInvalidBusID, raw)
		}
		numbers = append(numbers, n)
	}
	return gpu.BusID{Domain: numbers[0], Bus: numbers[1], Device: numbers[2], Function: numbers[3]}, nil
}
