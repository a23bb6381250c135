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
	"fmt"

	"github.com/deckhouse/deckhouse/pkg/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
)

func newScraper(ch chan<- prometheus.Metric, log *log.Logger) *scraper {
	return &scraper{ch: ch, log: log}
}

type scraper struct {
	ch  chan<- prometheus.Metric
	log *log.Logger
}

func (s *scraper) Report(r Report) {
	for _, m := range newGPUMetrics(r.Inventory) {
		s.defaultUpdate(MetricGPUInfo, 1, m.labelValues()...)
	}
	if r.Active != nil {
		s.defaultUpdate(MetricActiveDriverInfo, 1, r.Active.Kind.String(), r.Active.Path)
	}

	out := r.Outcome
	s.defaultUpdate(MetricChanged, boolValue(out.HasChanged))
	s.defaultUpdate(MetricSelectedDriver, boolValue(out.HasSelectedDriver))
	s.defaultUpdate(MetricRemovedXorg, boolValue(out.HasRemovedXorg))
	s.defaultUpdate(MetricRegeneratedXorg, boolValue(out.HasRegeneratedXorg))
	s.defaultUpdate(MetricActed, boolValue(out.HasActed()))
	s.defaultUpdate(MetricInstallerDetected, boolValue(out.ProprietaryInstallerDetected))

	counts := map[plan.ActionKind]int{}
	for _, action := range out.Actions {
		counts[action.Kind]++
	}
	for _, kind := range []plan.ActionKind{plan.SelectAlternative, plan.RemoveXorg, plan.RegenerateXorg} {
		s.defaultUpdate(MetricPlannedActionTotal, float64(counts[kind]), kind.String())
	}

	if !r.Finished.IsZero() {
		s.defaultUpdate(MetricLastRunTimestamp, float64(r.Finished.Unix()))
	}
}

func (s *scraper) defaultUpdate(name string, value float64, labelValues ...string) {
	info := runMetrics[name]
	metric, err := prometheus.NewConstMetric(info.Desc, info.Type, value, labelValues...)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Error creating the new const metric for %s: %s", info.Desc, err))
		return
	}
	s.ch <- metric
}
