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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/deckhouse/deckhouse/pkg/log"
	"github.com/spf13/pflag"
	"k8s.io/utils/ptr"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/snapshot"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sys/pciids"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/xorg"
)

const (
	programName       = "gpu-manager"
	configFileEnv     = "GPU_MANAGER_CONFIG"
	defaultLogLevel   = "info"
	defaultLogOutput  = logger.OutputStderr
	defaultSysRoot    = "/sys"
	laptopAuto        = "auto"
	laptopYes         = "yes"
	laptopNo          = "no"
	defaultLaptopMode = laptopAuto
)

type configLoader func(path string, target any) error

type managerFactory func(manager.Config, *log.Logger) runner

type runner interface {
	Run(ctx context.Context) (plan.Outcome, error)
}

type config struct {
	ConfigFile string `yaml:"-"`

	LogLevel          string `yaml:"logLevel" env:"GPU_MANAGER_LOG_LEVEL" env-default:"info"`
	LogOutput         string `yaml:"logOutput" env:"GPU_MANAGER_LOG_OUTPUT" env-default:"stderr"`
	LogDebugVerbosity int    `yaml:"logDebugVerbosity" env:"GPU_MANAGER_LOG_DEBUG_VERBOSITY"`

	GPUList     string   `yaml:"gpuList" env:"GPU_MANAGER_GPU_LIST"`
	SysRoot     string   `yaml:"sysRoot" env:"GPU_MANAGER_SYS_ROOT" env-default:"/sys"`
	PCIIDsPaths []string `yaml:"pciIdsPaths" env:"GPU_MANAGER_PCI_IDS_PATHS" env-separator:","`

	LastBootFile string `yaml:"lastBootFile" env:"GPU_MANAGER_LAST_BOOT_FILE"`
	NewBootFile  string `yaml:"newBootFile" env:"GPU_MANAGER_NEW_BOOT_FILE"`
	XorgConf     string `yaml:"xorgConf" env:"GPU_MANAGER_XORG_CONF"`

	ModulesPath       string `yaml:"modulesPath" env:"GPU_MANAGER_MODULES_PATH"`
	KernelLogPath     string `yaml:"kernelLogPath" env:"GPU_MANAGER_KERNEL_LOG_PATH"`
	PrimeSettingsPath string `yaml:"primeSettingsPath" env:"GPU_MANAGER_PRIME_SETTINGS_PATH"`
	BbswitchPath      string `yaml:"bbswitchPath" env:"GPU_MANAGER_BBSWITCH_PATH"`
	AMDPCSDBPath      string `yaml:"amdPcsdbPath" env:"GPU_MANAGER_AMD_PCSDB_PATH"`

	AlternativesName      string `yaml:"alternativesName" env:"GPU_MANAGER_ALTERNATIVES_NAME"`
	AlternativesQueryFile string `yaml:"alternativesQueryFile" env:"GPU_MANAGER_ALTERNATIVES_QUERY_FILE"`

	Laptop          string `yaml:"laptop" env:"GPU_MANAGER_LAPTOP" env-default:"auto"`
	DryRun          bool   `yaml:"dryRun" env:"GPU_MANAGER_DRY_RUN"`
	PlanOutput      string `yaml:"planOutput" env:"GPU_MANAGER_PLAN_OUTPUT"`
	MetricsTextfile string `yaml:"metricsTextfile" env:"GPU_MANAGER_METRICS_TEXTFILE"`
}

func defaultConfig() config {
	sources := sysstate.DefaultSources()
	return config{
		LogLevel:          defaultLogLevel,
		LogOutput:         defaultLogOutput,
		SysRoot:           defaultSysRoot,
		PCIIDsPaths:       append([]string(nil), pciids.DefaultPaths...),
		LastBootFile:      snapshot.DefaultPath,
		XorgConf:          xorg.DefaultPath,
		ModulesPath:       sources.ModulesPath,
		PrimeSettingsPath: sources.PrimeSettingsPath,
		BbswitchPath:      sources.BbswitchPath,
		AMDPCSDBPath:      sources.AMDPCSDBPath,
		AlternativesName:  sysstate.DefaultAlternativesName,
		Laptop:            defaultLaptopMode,
	}
}

func newFlagSet(cfg *config) *pflag.FlagSet {
	fs := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn or error.")
	fs.StringVar(&cfg.LogOutput, "log-output", cfg.LogOutput, "Log output: stdout, stderr or discard.")
	fs.IntVar(&cfg.LogDebugVerbosity, "log-debug-verbosity", cfg.LogDebugVerbosity, "Log debug verbosity.")
	fs.StringVar(&cfg.GPUList, "gpu-list", cfg.GPUList, "Read GPUs from a VVVV:DDDD;BUS;BOOTVGA list instead of sysfs.")
	fs.StringVar(&cfg.SysRoot, "sys-root", cfg.SysRoot, "sysfs mount point.")
	fs.StringSliceVar(&cfg.PCIIDsPaths, "pci-ids", cfg.PCIIDsPaths, "pci.ids locations, first readable wins.")
	fs.StringVar(&cfg.LastBootFile, "last-boot-file", cfg.LastBootFile, "GPUs seen during the previous boot.")
	fs.StringVar(&cfg.NewBootFile, "new-boot-file", cfg.NewBootFile, "Where to save the GPUs of this boot (defaults to --last-boot-file).")
	fs.StringVar(&cfg.XorgConf, "xorg-conf", cfg.XorgConf, "xorg.conf path.")
	fs.StringVar(&cfg.ModulesPath, "modules-path", cfg.ModulesPath, "Loaded kernel modules list.")
	fs.StringVar(&cfg.KernelLogPath, "kernel-log", cfg.KernelLogPath, "Read the kernel log from a file instead of dmesg.")
	fs.StringVar(&cfg.PrimeSettingsPath, "prime-settings", cfg.PrimeSettingsPath, "PRIME discrete GPU settings file.")
	fs.StringVar(&cfg.BbswitchPath, "bbswitch-path", cfg.BbswitchPath, "bbswitch power state file.")
	fs.StringVar(&cfg.AMDPCSDBPath, "amd-pcsdb-path", cfg.AMDPCSDBPath, "AMD PowerXpress settings database.")
	fs.StringVar(&cfg.AlternativesName, "alternatives-name", cfg.AlternativesName, "GL alternatives link group.")
	fs.StringVar(&cfg.AlternativesQueryFile, "alternatives-query-file", cfg.AlternativesQueryFile, "Saved update-alternatives --query output.")
	fs.StringVar(&cfg.Laptop, "laptop", cfg.Laptop, "Laptop detection: auto, yes or no.")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Plan without selecting alternatives or touching xorg.conf.")
	fs.StringVar(&cfg.PlanOutput, "plan-output", cfg.PlanOutput, "Write the JSON plan to this file.")
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write run metrics in the node_exporter textfile format.")
	return fs
}

// loadConfig merges defaults, the config file, the environment and flags, in
// that order.
func loadConfig(args []string, loader configLoader) (config, error) {
	scratch := defaultConfig()
	if err := newFlagSet(&scratch).Parse(args); err != nil {
		return config{}, err
	}

	if scratch.ConfigFile == "" {
		scratch.ConfigFile = os.Getenv(configFileEnv)
	}

	cfg := defaultConfig()
	if loader == nil {
		loader = func(string, any) error { return nil }
	}
	if err := loader(scratch.ConfigFile, &cfg); err != nil {
		return config{}, fmt.Errorf("read config: %w", err)
	}
	if scratch.ConfigFile != "" {
		cfg.ConfigFile = scratch.ConfigFile
	}

	if err := newFlagSet(&cfg).Parse(args); err != nil {
		return config{}, err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogOutput == "" {
		cfg.LogOutput = defaultLogOutput
	}
	if cfg.SysRoot == "" {
		cfg.SysRoot = defaultSysRoot
	}
	if cfg.Laptop == "" {
		cfg.Laptop = defaultLaptopMode
	}
	cfg.Laptop = strings.ToLower(strings.TrimSpace(cfg.Laptop))

	if cfg.LogDebugVerbosity < 0 {
		return config{}, errors.New("log debug verbosity must not be negative")
	}
	if cfg.AlternativesName == "" {
		return config{}, errors.New("alternatives name must be set")
	}
	if cfg.LastBootFile == "" {
		return config{}, errors.New("last boot file must be set")
	}
	if cfg.XorgConf == "" {
		return config{}, errors.New("xorg.conf path must be set")
	}
	if _, err := parseLaptop(cfg.Laptop); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func parseLaptop(mode string) (*bool, error) {
	switch mode {
	case laptopAuto:
		return nil, nil
	case laptopYes, "true":
		return ptr.To(true), nil
	case laptopNo, "false":
		return ptr.To(false), nil
	default:
		return nil, fmt.Errorf("unsupported laptop mode: %s", mode)
	}
}

func (c config) managerConfig() manager.Config {
	laptop, _ := parseLaptop(c.Laptop)
	return manager.Config{
		GPUListPath:       c.GPUList,
		SysRoot:           c.SysRoot,
		PCIIDsPaths:       c.PCIIDsPaths,
		SnapshotReadPath:  c.LastBootFile,
		SnapshotWritePath: c.NewBootFile,
		XorgPath:          c.XorgConf,
		Sources: sysstate.Sources{
			ModulesPath:       c.ModulesPath,
			KernelLogPath:     c.KernelLogPath,
			PrimeSettingsPath: c.PrimeSettingsPath,
			BbswitchPath:      c.BbswitchPath,
			AMDPCSDBPath:      c.AMDPCSDBPath,
		},
		AlternativesName:      c.AlternativesName,
		AlternativesQueryPath: c.AlternativesQueryFile,
		Laptop:                laptop,
		DryRun:                c.DryRun,
		PlanOutputPath:        c.PlanOutput,
		MetricsTextfilePath:   c.MetricsTextfile,
	}
}

func run(ctx context.Context, log *log.Logger, cfg config, newManager managerFactory) error {
	mgr := newManager(cfg.managerConfig(), log)
	if mgr == nil {
		return errors.New("manager factory returned nil")
	}

	out, err := mgr.Run(ctx)
	if err != nil {
		if manager.IsFatalInput(err) {
			return fmt.Errorf("nothing persisted: %w", err)
		}
		return err
	}

	log.Info("gpu-manager finished",
		"hasChanged", out.HasChanged,
		"hasSelectedDriver", out.HasSelectedDriver,
		"hasRemovedXorg", out.HasRemovedXorg,
		"hasRegeneratedXorg", out.HasRegeneratedXorg,
		"hasActed", out.HasActed())
	return nil
}
