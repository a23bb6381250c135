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

import "context"

// Result stops a run early when returned by a step.
type Result struct {
	Reason string
}

// StepTaker is a single pipeline step over a shared resource.
type StepTaker[R any] interface {
	Take(ctx context.Context, resource R) (*Result, error)
}

type StepTakers[R any] []StepTaker[R]

func NewStepTakers[R any](takers ...StepTaker[R]) StepTakers[R] {
	return takers
}

// Run executes the steps in order until one fails or returns a result.
func (s StepTakers[R]) Run(ctx context.Context, resource R) (Result, error) {
	for _, taker := range s {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := taker.Take(ctx, resource)
		if err != nil {
			return Result{}, err
		}
		if res != nil {
			return *res, nil
		}
	}
	return Result{}, nil
}
