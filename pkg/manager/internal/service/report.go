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

package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deckhouse/deckhouse/pkg/log"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/monitoring/metrics"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/monitoring/metrics/run"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
)

// Reporter publishes the outcome of a run.
type Reporter interface {
	WritePlan(out plan.Outcome) error
	WriteMetrics(report run.Report) error
}

// FileReporter writes the plan as JSON and metrics as a node_exporter
// textfile. Empty paths disable the corresponding output.
type FileReporter struct {
	PlanPath    string
	MetricsPath string
	log         *log.Logger
}

func NewFileReporter(planPath, metricsPath string, log *log.Logger) *FileReporter {
	return &FileReporter{PlanPath: planPath, MetricsPath: metricsPath, log: log}
}

func (r *FileReporter) WritePlan(out plan.Outcome) error {
	if r.PlanPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.PlanPath), 0o755); err != nil {
		return fmt.Errorf("create plan dir: %w", err)
	}
	if err := os.WriteFile(r.PlanPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write plan %s: %w", r.PlanPath, err)
	}
	return nil
}

func (r *FileReporter) WriteMetrics(report run.Report) error {
	if r.MetricsPath == "" {
		return nil
	}
	return metrics.WriteTextfile(r.MetricsPath, run.NewRegistry(report, r.log))
}
