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

package run

import (
	"time"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

// Report is what a finished run exposes as metrics.
type Report struct {
	Inventory *gpu.Inventory
	Active    *sysstate.Alternative
	Outcome   plan.Outcome
	Finished  time.Time
}

type gpuMetric struct {
	Vendor   string
	VendorID string
	DeviceID string
	BusID    string
	BootVGA  string
}

func newGPUMetrics(inv *gpu.Inventory) []gpuMetric {
	records := inv.Records()
	out := make([]gpuMetric, 0, len(records))
	for _, record := range records {
		m := gpuMetric{
			Vendor:   record.Vendor().String(),
			VendorID: record.VendorID,
			DeviceID: record.DeviceID,
			BusID:    record.BusID.String(),
			BootVGA:  "false",
		}
		if record.BootVGA {
			m.BootVGA = "true"
		}
		out = append(out, m)
	}
	return out
}

func (m gpuMetric) labelValues() []string {
	return []string{m.Vendor, m.VendorID, m.DeviceID, m.BusID, m.BootVGA}
}

func boolValue(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
