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

package manager

import (
	"context"
	"errors"
	"log/slog"

	"github.com/deckhouse/deckhouse/pkg/log"
	utilexec "k8s.io/utils/exec"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/common/steptaker"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/handler"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/service"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/snapshot"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sys/pci"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sys/pciids"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/xorg"
)

// ErrFatalInput is returned when the GPU inventory cannot be read. The boot
// snapshot is not written in that case.
var ErrFatalInput = handler.ErrFatalInput

// Config defines the gpu-manager settings.
type Config struct {
	// GPUListPath replaces the sysfs scan with a GPU list file.
	GPUListPath string
	SysRoot     string
	PCIIDsPaths []string

	SnapshotReadPath  string
	SnapshotWritePath string
	XorgPath          string

	Sources          sysstate.Sources
	AlternativesName string
	// AlternativesQueryPath replaces `update-alternatives --query` with
	// saved query output.
	AlternativesQueryPath string

	// Laptop overrides chassis detection when set.
	Laptop *bool
	DryRun bool

	PlanOutputPath      string
	MetricsTextfilePath string
}

// Manager runs the boot time driver reconciliation.
type Manager struct {
	cfg   Config
	log   *log.Logger
	steps steptaker.StepTakers[state.State]
}

type services struct {
	inventory service.InventorySource
	host      service.HostInfoProvider
	namer     service.DeviceNamer
	resolver  service.SystemResolver
	snapshots snapshot.Store
	xorg      service.XorgStore
	executor  service.Executor
	reporter  service.Reporter
}

// New creates a manager backed by the real system. exec runs the
// alternatives and kernel log commands.
func New(cfg Config, exec utilexec.Interface, log *log.Logger) *Manager {
	xorgPath := cfg.XorgPath
	if xorgPath == "" {
		xorgPath = xorg.DefaultPath
	}
	cfg.XorgPath = xorgPath

	svc := services{
		host:      service.NewHostInfoCollector(cfg.SysRoot),
		snapshots: snapshot.NewFileStore(cfg.SnapshotReadPath, cfg.SnapshotWritePath),
		reporter:  service.NewFileReporter(cfg.PlanOutputPath, cfg.MetricsTextfilePath, log),
	}

	if cfg.GPUListPath != "" {
		svc.inventory = service.NewFileInventory(cfg.GPUListPath)
	} else {
		svc.inventory = service.NewSysfsInventory(pci.NewSysfsReader(cfg.SysRoot))
	}

	resolver, usedPath, err := pciids.LoadFirst(cfg.PCIIDsPaths)
	switch {
	case err != nil:
		log.Warn("failed to load pci.ids", logger.SlogErr(err))
	case resolver == nil:
		log.Debug("pci.ids not found, GPU names will be empty", "paths", cfg.PCIIDsPaths)
	default:
		log.Debug("pci.ids loaded", "path", usedPath)
		svc.namer = resolver
	}

	var querier sysstate.AlternativesQuerier = sysstate.NewCommandQuerier(exec, cfg.AlternativesName)
	if cfg.AlternativesQueryPath != "" {
		querier = &sysstate.FileQuerier{Path: cfg.AlternativesQueryPath}
	}
	svc.resolver = sysstate.NewResolver(cfg.Sources, querier, exec)

	xorgStore := xorg.NewFileStore(xorgPath)
	svc.xorg = xorgStore
	svc.executor = service.NewSystemExecutor(exec, cfg.AlternativesName, xorgStore)

	return newManager(cfg, svc, log)
}

func newManager(cfg Config, svc services, log *log.Logger) *Manager {
	steps := handler.NewSteps(
		log,
		handler.NewDiscoverHandler(svc.inventory, svc.host, svc.namer, cfg.Laptop),
		handler.NewResolveHandler(svc.resolver),
		handler.NewDetectHandler(svc.snapshots),
		handler.NewDecideHandler(),
		handler.NewReconcileHandler(svc.xorg, cfg.XorgPath),
		handler.NewApplyHandler(svc.executor, cfg.DryRun),
		handler.NewPersistHandler(svc.snapshots),
		handler.NewReportHandler(svc.reporter, cfg.DryRun, nil),
	)
	return &Manager{cfg: cfg, log: log, steps: steps}
}

// Run performs a single pass. The outcome is returned together with joined
// action errors; an ErrFatalInput error means the outcome is empty.
func (m *Manager) Run(ctx context.Context) (plan.Outcome, error) {
	ctx = logger.ToContext(ctx, slog.Default())
	st := state.New()
	if _, err := m.steps.Run(ctx, st); err != nil {
		return plan.Outcome{}, err
	}

	out := *st.Outcome()
	m.log.Info("run completed",
		"changed", out.HasChanged,
		"acted", out.HasActed(),
		"dryRun", m.cfg.DryRun)
	if err := st.ApplyErr(); err != nil {
		return out, errors.Join(errApply, err)
	}
	return out, nil
}

var errApply = errors.New("apply plan")

// IsFatalInput reports whether err aborted the run before any state was
// written.
func IsFatalInput(err error) bool {
	return errors.Is(err, ErrFatalInput)
}
