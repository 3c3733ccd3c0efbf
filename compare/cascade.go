// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compare

import "github.com/rohithputha/agentgraph/model"

// MarkCascades relabels every StepDiverge after the root cause as
// StepCascade in place: once an agent's execution has diverged from its
// baseline — whether the first sign of that was a diverge, add, or remove
// — every later step naturally differs too, and calling each of those a
// fresh "divergence" in its own right buries the one step that actually
// caused it.
func MarkCascades(steps []model.StepComparison) {
	rootCause := -1
	for i := range steps {
		switch steps[i].Status {
		case model.StepDiverge, model.StepAdd, model.StepRemove:
			rootCause = i
		}
		if rootCause != -1 {
			break
		}
	}
	if rootCause < 0 {
		return
	}
	for i := rootCause + 1; i < len(steps); i++ {
		if steps[i].Status == model.StepDiverge {
			steps[i].Status = model.StepCascade
		}
	}
}
