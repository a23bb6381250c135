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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/monitoring/metrics"
)

const (
	MetricGPUInfo            = "gpu_info"
	MetricActiveDriverInfo   = "active_driver_info"
	MetricChanged            = "system_changed"
	MetricSelectedDriver     = "driver_selected"
	MetricRemovedXorg        = "xorg_removed"
	MetricRegeneratedXorg    = "xorg_regenerated"
	MetricActed              = "acted"
	MetricInstallerDetected  = "proprietary_installer_detected"
	MetricLastRunTimestamp   = "last_run_timestamp_seconds"
	MetricPlannedActionTotal = "planned_actions"
)

var runMetrics = map[string]metrics.MetricInfo{
	MetricGPUInfo: metrics.NewMetricInfo(MetricGPUInfo,
		"GPU seen during the run.",
		prometheus.GaugeValue,
		[]string{"vendor", "vendor_id", "device_id", "bus_id", "boot_vga"}),
	MetricActiveDriverInfo: metrics.NewMetricInfo(MetricActiveDriverInfo,
		"Driver alternative active after the run.",
		prometheus.GaugeValue,
		[]string{"kind", "path"}),
	MetricChanged: metrics.NewMetricInfo(MetricChanged,
		"1 if the GPU set differs from the previous boot.",
		prometheus.GaugeValue, nil),
	MetricSelectedDriver: metrics.NewMetricInfo(MetricSelectedDriver,
		"1 if the run selected a driver alternative.",
		prometheus.GaugeValue, nil),
	MetricRemovedXorg: metrics.NewMetricInfo(MetricRemovedXorg,
		"1 if the run removed xorg.conf.",
		prometheus.GaugeValue, nil),
	MetricRegeneratedXorg: metrics.NewMetricInfo(MetricRegeneratedXorg,
		"1 if the run regenerated xorg.conf.",
		prometheus.GaugeValue, nil),
	MetricActed: metrics.NewMetricInfo(MetricActed,
		"1 if the run planned any action.",
		prometheus.GaugeValue, nil),
	MetricInstallerDetected: metrics.NewMetricInfo(MetricInstallerDetected,
		"1 if a proprietary driver was installed outside the alternatives system.",
		prometheus.GaugeValue, nil),
	MetricLastRunTimestamp: metrics.NewMetricInfo(MetricLastRunTimestamp,
		"Unix time the run finished.",
		prometheus.GaugeValue, nil),
	MetricPlannedActionTotal: metrics.NewMetricInfo(MetricPlannedActionTotal,
		"Planned actions by kind.",
		prometheus.GaugeValue,
		[]string{"kind"}),
}
