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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/monitoring/metrics"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

func testReport() Report {
	mesa := sysstate.Alternative{Path: "/usr/lib/x86_64-linux-gnu/mesa/ld.so.conf", Kind: sysstate.DriverMesa}
	out := plan.Outcome{HasChanged: true}
	out.Add(plan.Select(mesa))
	out.Add(plan.Remove("/etc/X11/xorg.conf"))
	return Report{
		Inventory: gpu.ParseString("8086:0166;0000:00:02:0;1\n10de:0fd1;0000:01:00:0;0\n"),
		Active:    &mesa,
		Outcome:   out,
		Finished:  time.Unix(1700000000, 0),
	}
}

func TestCollectorCount(t *testing.T) {
	c := NewCollector(testReport(), logger.NewLogger("info", "discard", 0))
	if got := testutil.CollectAndCount(c); got != 13 {
		t.Fatalf("expected 13 metrics, got %d", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu-manager.prom")
	reg := NewRegistry(testReport(), logger.NewLogger("info", "discard", 0))
	if err := metrics.WriteTextfile(path, reg); err != nil {
		t.Fatalf("write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"gpu_manager_acted 1",
		"gpu_manager_system_changed 1",
		"gpu_manager_xorg_regenerated 0",
		`vendor="NVIDIA"`,
		`kind="mesa"`,
		`gpu_manager_planned_actions{kind="RemoveXorg"} 1`,
		"gpu_manager_last_run_timestamp_seconds",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile misses %q:\n%s", want, text)
		}
	}
}
