package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Deployer/internal/domain"
)

const installDocker = `{
  "local": false,
  "name": "install-docker",
  "description": "Install docker engine",
  "icon": "docker",
  "parameters": [
    {"name": "version", "label": "Version", "type": "string", "required": true, "multiple": false}
  ],
  "steps": [
    {"type": "downloadPackage", "name": "Download", "package": "docker/{{ .OS }}", "targetFile": "docker/{{ .OS }}.tar.gz"},
    {"type": "transferPackage", "name": "Upload", "package": "docker/{{ .OS }}.tar.gz", "targetFile": "/opt/docker.tar.gz"},
    {"type": "runCommand", "name": "Install", "condition": "which docker", "command": "tar -xzf /opt/docker.tar.gz -C /opt"}
  ]
}`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(installDocker))
	require.NoError(t, err)

	assert.Equal(t, "install-docker", def.Name)
	assert.False(t, def.Local)
	require.Len(t, def.Parameters, 1)
	assert.True(t, def.Parameters[0].Required)
	require.Len(t, def.Steps, 3)
	assert.Equal(t, domain.StepKindDownloadPackage, def.Steps[0].Kind())
	assert.Equal(t, "which docker", def.Steps[2].Condition)
	assert.Equal(t, "/opt/docker.tar.gz", def.Steps[1].TargetFile)
}

func TestParse_InvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "name: x"},
		{"unknown field", `{"name": "x", "steps": [{"type": "runCommand", "command": "ls"}], "retries": 3}`},
		{"wrong type", `{"name": "x", "steps": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		def       *domain.FlowDefinition
		wantErr   error
		wantStep  int
		wantField string
	}{
		{
			name:      "nil definition",
			def:       nil,
			wantErr:   ErrEmptyFlowName,
			wantStep:  -1,
			wantField: "name",
		},
		{
			name:      "blank name",
			def:       &domain.FlowDefinition{Name: "  ", Steps: []domain.FlowStep{{Type: "runCommand", Command: "ls"}}},
			wantErr:   ErrEmptyFlowName,
			wantStep:  -1,
			wantField: "name",
		},
		{
			name: "empty step type",
			def: &domain.FlowDefinition{Name: "f", Steps: []domain.FlowStep{
				{Type: "runCommand", Command: "ls"},
				{Name: "typeless"},
			}},
			wantErr:   ErrEmptyStepType,
			wantStep:  1,
			wantField: "type",
		},
		{
			name: "run command without command",
			def: &domain.FlowDefinition{Name: "f", Steps: []domain.FlowStep{
				{Type: "runCommand", Name: "noop"},
			}},
			wantErr:   ErrMissingStepField,
			wantStep:  0,
			wantField: "command",
		},
		{
			name: "transfer package without target",
			def: &domain.FlowDefinition{Name: "f", Steps: []domain.FlowStep{
				{Type: "transferPackage", Package: "service/api"},
			}},
			wantErr:   ErrMissingStepField,
			wantStep:  0,
			wantField: "targetFile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.def)
			require.ErrorIs(t, err, tt.wantErr)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantStep, vErr.Step)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestValidate_EmptyStepsAllowed(t *testing.T) {
	require.NoError(t, Validate(&domain.FlowDefinition{Name: "empty"}))
	require.NoError(t, Validate(&domain.FlowDefinition{Name: "empty", Steps: []domain.FlowStep{}}))
}

func TestValidate_UnknownKindAllowed(t *testing.T) {
	def := &domain.FlowDefinition{Name: "future", Steps: []domain.FlowStep{
		{Type: "runCommand", Command: "ls"},
		{Type: "restartContainer", Name: "not yet supported"},
	}}

	require.NoError(t, Validate(def))
	assert.Equal(t, domain.StepKindUnknown, def.Steps[1].Kind())
}

func TestValidate_DecompressionNeedsNoFields(t *testing.T) {
	def := &domain.FlowDefinition{Name: "offline", Local: true, Steps: []domain.FlowStep{
		{Type: "decompressionOfflinePackage", Name: "Unpack"},
	}}

	assert.NoError(t, Validate(def))
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("deploy", 2, "command", "missing command", ErrMissingStepField)
	assert.Contains(t, err.Error(), "deploy")
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "missing command")
}
