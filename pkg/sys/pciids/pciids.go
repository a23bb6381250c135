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
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// DefaultPaths lists the usual pci.ids locations.
var DefaultPaths = []string{
	"/usr/share/hwdata/pci.ids",
	"/usr/share/misc/pci.ids",
	"/usr/share/pci.ids",
}

// Resolver provides name lookups for PCI vendor and device IDs.
type Resolver struct {
	vendors map[string]string
	devices map[string]map[string]string
}

// VendorName returns the vendor name for a vendor ID.
func (r *Resolver) VendorName(vendorID string) string {
	if r == nil {
		return ""
	}
	return r.vendors[strings.ToLower(vendorID)]
}

// DeviceName returns the device name for a vendor/device ID pair.
func (r *Resolver) DeviceName(vendorID, deviceID string) string {
	if r == nil {
		return ""
	}
	return r.devices[strings.ToLower(vendorID)][strings.ToLower(deviceID)]
}

// Parse reads the vendor and device part of a pci.ids database. Class
// entries and subsystems are skipped.
func Parse(r io.Reader) (*Resolver, error) {
	res := &Resolver{
		vendors: map[string]string{},
		devices: map[string]map[string]string{},
	}

	vendor := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "\t\t"):
			continue
		case strings.HasPrefix(line, "\t"):
			if vendor == "" {
				continue
			}
			id, name, ok := splitEntry(line[1:])
			if !ok {
				continue
			}
			if res.devices[vendor] == nil {
				res.devices[vendor] = map[string]string{}
			}
			res.devices[vendor][id] = name
		default:
			// Class blocks start with "C " and end the vendor list.
			vendor = ""
			id, name, ok := splitEntry(line)
			if !ok {
				continue
			}
			vendor = id
			res.vendors[id] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pci.ids: %w", err)
	}
	return res, nil
}

// Load parses a pci.ids file.
func Load(path string) (*Resolver, error) {
	if path == "" {
		return nil, fmt.Errorf("pci.ids path is empty")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// LoadFirst loads the first existing pci.ids from paths. A nil resolver with
// a nil error means none of the paths exist.
func LoadFirst(paths []string) (*Resolver, string, error) {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		res, err := Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		return res, path, nil
	}
	return nil, "", nil
}

func splitEntry(line string) (string, string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	id := strings.ToLower(fields[0])
	if len(id) != 4 || !isHex(id) {
		return "", "", false
	}
	return id, strings.Join(fields[1:], " "), true
}

func isHex(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
