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

package steptaker

import (
	"context"
	"errors"
	"testing"
)

type recordStep struct {
	name string
	res  *Result
	err  error
}

func (s recordStep) Take(_ context.Context, calls *[]string) (*Result, error) {
	*calls = append(*calls, s.name)
	return s.res, s.err
}

func TestRunStopsOnResult(t *testing.T) {
	var calls []string
	steps := NewStepTakers[*[]string](
		recordStep{name: "a"},
		recordStep{name: "b", res: &Result{Reason: "done"}},
		recordStep{name: "c"},
	)
	res, err := steps.Run(context.Background(), &calls)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reason != "done" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(calls) != 2 {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestRunStopsOnError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	steps := NewStepTakers[*[]string](recordStep{name: "a", err: boom}, recordStep{name: "b"})
	if _, err := steps.Run(context.Background(), &calls); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestRunHonorsCancel(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	steps := NewStepTakers[*[]string](recordStep{name: "a"})
	if _, err := steps.Run(ctx, &calls); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("unexpected calls %v", calls)
	}
}
