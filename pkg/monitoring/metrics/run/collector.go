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
	"github.com/deckhouse/deckhouse/pkg/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
)

const collectorName = "run-collector"

// Collector exposes the report of the last run.
type Collector struct {
	report Report
	log    *log.Logger
}

func NewCollector(report Report, log *log.Logger) *Collector {
	return &Collector{
		report: report,
		log:    log.With(logger.SlogCollector(collectorName)),
	}
}

// Register registers the collector in the registry.
func (c *Collector) Register(reg prometheus.Registerer) {
	reg.MustRegister(c)
}

// Describe describes all metrics.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range runMetrics {
		ch <- m.Desc
	}
}

// Collect collects all metrics.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	newScraper(ch, c.log).Report(c.report)
}

// NewRegistry builds a registry holding only the run collector.
func NewRegistry(report Report, log *log.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	NewCollector(report, log).Register(reg)
	return reg
}
