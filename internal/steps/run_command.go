package steps

import (
	"context"

	"github.com/shaiso/Deployer/internal/domain"
)

// RunCommandStep — выполнение команды на удалённом хосте.
//
// Вывод команды передаётся в sink по мере получения.
type RunCommandStep struct{}

// NewRunCommandStep создаёт RunCommandStep.
func NewRunCommandStep() *RunCommandStep {
	return &RunCommandStep{}
}

// Kind реализует Step.
func (s *RunCommandStep) Kind() domain.StepKind {
	return domain.StepKindRunCommand
}

// Execute реализует Step.
func (s *RunCommandStep) Execute(ctx context.Context, req *Request) error {
	command, err := req.RenderField(domain.FieldCommand)
	if err != nil {
		return err
	}

	req.logger().Debug("running command", "command", command)
	return req.Session.ExecuteStream(ctx, command, req.sink())
}
