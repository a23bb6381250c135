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

package handler

import (
	"context"
	"errors"
	"time"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/service"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/monitoring/metrics/run"
)

const reportHandlerName = "Report"

// ReportHandler publishes the plan and the run metrics.
type ReportHandler struct {
	reporter service.Reporter
	dryRun   bool
	now      func() time.Time
}

func NewReportHandler(reporter service.Reporter, dryRun bool, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{reporter: reporter, dryRun: dryRun, now: now}
}

func (h *ReportHandler) Name() string {
	return reportHandlerName
}

func (h *ReportHandler) Handle(_ context.Context, st state.State) error {
	out := *st.Outcome()
	active := st.System().Alternatives.Active
	if out.Selected != nil && !h.dryRun && st.ApplyErr() == nil {
		active = out.Selected
	}

	return errors.Join(
		h.reporter.WritePlan(out),
		h.reporter.WriteMetrics(run.Report{
			Inventory: st.Inventory(),
			Active:    active,
			Outcome:   out,
			Finished:  h.now(),
		}),
	)
}
