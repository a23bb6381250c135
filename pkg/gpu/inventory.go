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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Inventory is the set of GPUs seen during a single run.
type Inventory struct {
	records []Record
	skipped []string
}

// NewInventory builds an inventory from already parsed records.
func NewInventory(records ...Record) *Inventory {
	return &Inventory{records: append([]Record(nil), records...)}
}

// Parse reads GPU list lines. Malformed lines are skipped and recorded, only a
// read failure is reported as an error.
func Parse(r io.Reader) (*Inventory, error) {
	inv := &Inventory{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		record, err := ParseRecord(line)
		if err != nil {
			inv.skipped = append(inv.skipped, line)
			continue
		}
		inv.records = append(inv.records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gpu list: %w", err)
	}
	return inv, nil
}

// ParseString is Parse over an in-memory list.
func ParseString(text string) *Inventory {
	inv, err := Parse(strings.NewReader(text))
	if err != nil {
		return &Inventory{}
	}
	return inv
}

// Records returns a copy of the enumerated GPUs.
func (i *Inventory) Records() []Record {
	if i == nil {
		return nil
	}
	return append([]Record(nil), i.records...)
}

// Skipped returns the lines that could not be parsed.
func (i *Inventory) Skipped() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.skipped...)
}

// Len returns the number of GPUs.
func (i *Inventory) Len() int {
	if i == nil {
		return 0
	}
	return len(i.records)
}

// HasSingleCard reports whether exactly one GPU was found.
func (i *Inventory) HasSingleCard() bool {
	return i.Len() == 1
}

// HasVendor reports whether any GPU belongs to vendor.
func (i *Inventory) HasVendor(vendor Vendor) bool {
	_, ok := i.FirstOf(vendor)
	return ok
}

func (i *Inventory) HasIntel() bool  { return i.HasVendor(VendorIntel) }
func (i *Inventory) HasNvidia() bool { return i.HasVendor(VendorNvidia) }
func (i *Inventory) HasAMD() bool    { return i.HasVendor(VendorAMD) }

// FirstOf returns the first GPU of vendor, preferring the boot VGA card.
func (i *Inventory) FirstOf(vendor Vendor) (Record, bool) {
	if i == nil {
		return Record{}, false
	}
	var (
		found  Record
		exists bool
	)
	for _, record := range i.records {
		if record.Vendor() != vendor {
			continue
		}
		if record.BootVGA {
			return record, true
		}
		if !exists {
			found, exists = record, true
		}
	}
	return found, exists
}

// BootVGA returns the card flagged as boot VGA, or the first card when the
// firmware flagged none.
func (i *Inventory) BootVGA() (Record, bool) {
	if i.Len() == 0 {
		return Record{}, false
	}
	for _, record := range i.records {
		if record.BootVGA {
			return record, true
		}
	}
	return i.records[0], true
}

// String renders the inventory in the GPU list notation.
func (i *Inventory) String() string {
	var b strings.Builder
	for _, record := range i.Records() {
		b.WriteString(record.String())
		b.WriteByte('\n')
	}
	return b.String()
}
