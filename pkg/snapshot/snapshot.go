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

package snapshot

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
)

// Snapshot is the set of GPUs seen during one boot.
type Snapshot struct {
	entries sets.Set[string]
}

// FromInventory captures the current GPU set.
func FromInventory(inv *gpu.Inventory) Snapshot {
	entries := sets.New[string]()
	for _, record := range inv.Records() {
		entries.Insert(record.String())
	}
	return Snapshot{entries: entries}
}

// Parse reads a snapshot stored in the GPU list notation.
func Parse(text string) Snapshot {
	return FromInventory(gpu.ParseString(text))
}

// Len returns the number of distinct GPUs in the snapshot.
func (s Snapshot) Len() int {
	return s.entries.Len()
}

// Equal reports set equality: enumeration order is ignored, duplicates
// collapse, and a boot_vga flip on any device makes snapshots differ.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.entries.Equal(other.entries)
}

// String renders the snapshot sorted, one GPU per line.
func (s Snapshot) String() string {
	lines := sets.List(s.entries)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasChanged compares the previous boot with the current one. A missing
// previous snapshot counts as a change.
func HasChanged(previous *Snapshot, current Snapshot) bool {
	if previous == nil {
		return true
	}
	return !previous.Equal(current)
}
