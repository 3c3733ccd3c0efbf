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

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohithputha/agentgraph/model"
)

func TestMarkCascadesFirstDivergeSurvives(t *testing.T) {
	steps := []model.StepComparison{
		{Status: model.StepMatch},
		{Status: model.StepDiverge},
		{Status: model.StepDiverge},
		{Status: model.StepDiverge},
	}
	MarkCascades(steps)
	assert.Equal(t, []model.StepStatus{model.StepMatch, model.StepDiverge, model.StepCascade, model.StepCascade}, collectStatuses(steps))
}

func TestMarkCascadesLeavesAddRemoveAlone(t *testing.T) {
	steps := []model.StepComparison{
		{Status: model.StepDiverge},
		{Status: model.StepAdd},
		{Status: model.StepRemove},
		{Status: model.StepDiverge},
	}
	MarkCascades(steps)
	assert.Equal(t, []model.StepStatus{model.StepDiverge, model.StepAdd, model.StepRemove, model.StepCascade}, collectStatuses(steps))
}

func TestMarkCascadesNoDivergeIsNoop(t *testing.T) {
	steps := []model.StepComparison{{Status: model.StepMatch}, {Status: model.StepAdd}}
	MarkCascades(steps)
	assert.Equal(t, []model.StepStatus{model.StepMatch, model.StepAdd}, collectStatuses(steps))
}

func collectStatuses(steps []model.StepComparison) []model.StepStatus {
	out := make([]model.StepStatus, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}
