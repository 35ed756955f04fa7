package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shaiso/Deployer/internal/domain"
)

// TransferConfigFileStep — рендеринг шаблона конфигурации из кэша
// и передача результата на удалённый хост.
//
// Содержимое шаблона рендерится один раз: результат рендеринга
// повторно не обрабатывается.
type TransferConfigFileStep struct{}

// NewTransferConfigFileStep создаёт TransferConfigFileStep.
func NewTransferConfigFileStep() *TransferConfigFileStep {
	return &TransferConfigFileStep{}
}

// Kind реализует Step.
func (s *TransferConfigFileStep) Kind() domain.StepKind {
	return domain.StepKindTransferConfigFile
}

// Execute реализует Step.
func (s *TransferConfigFileStep) Execute(ctx context.Context, req *Request) error {
	sourceFile, err := req.RenderField(domain.FieldSourceFile)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(req.CachePath(sourceFile))
	if errors.Is(err, fs.ErrNotExist) {
		return failed("source config file not found: %s", sourceFile)
	}
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}

	content, err := req.Render(string(raw))
	if err != nil {
		req.logger().Error("failed to render config file", "source", sourceFile, "error", err)
		return fmt.Errorf("render config %s: %w", sourceFile, err)
	}

	target, err := req.RenderField(domain.FieldTargetFile)
	if err != nil {
		return err
	}
	dir, filename, err := SplitRemotePath(target)
	if err != nil {
		return err
	}

	req.logger().Info("transferring config file", "source", sourceFile, "target", target)
	return req.Session.TransferFile(ctx, dir, filename, []byte(content), req.sink())
}
