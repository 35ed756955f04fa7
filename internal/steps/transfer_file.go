package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/shaiso/Deployer/internal/domain"
)

// TransferFileStep — передача локальных файлов, пути к которым
// переданы в аргументе запуска sourceFileParamName.
//
// Аргумент может быть строкой или списком строк. Если аргумент
// не передан, шаг ничего не делает.
type TransferFileStep struct{}

// NewTransferFileStep создаёт TransferFileStep.
func NewTransferFileStep() *TransferFileStep {
	return &TransferFileStep{}
}

// Kind реализует Step.
func (s *TransferFileStep) Kind() domain.StepKind {
	return domain.StepKindTransferFile
}

// Execute реализует Step.
func (s *TransferFileStep) Execute(ctx context.Context, req *Request) error {
	param := req.Step.SourceFileParamName
	if param == "" {
		return failed("no %s specified for step %q", domain.FieldSourceFileParamName, req.Step.Label())
	}

	value, ok := req.Args[param]
	if !ok {
		req.logger().Debug("argument not provided, nothing to transfer", "param", param)
		return nil
	}

	sources, err := sourceFiles(param, value)
	if err != nil {
		return err
	}

	targetDir, err := req.Render(req.Step.TargetDir)
	if err != nil {
		return err
	}
	targetFile, err := req.Render(req.Step.TargetFile)
	if err != nil {
		return err
	}

	for _, source := range sources {
		target, err := TargetPath(targetDir, targetFile, source)
		if err != nil {
			return err
		}
		dir, filename, err := SplitRemotePath(target)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read %s: %w", source, err)
		}

		req.logger().Info("transferring file", "source", source, "target", target)
		if err := req.Session.TransferFile(ctx, dir, filename, data, req.sink()); err != nil {
			return err
		}
	}

	return nil
}

// sourceFiles приводит значение аргумента к списку путей.
// Нестроковые элементы списка пропускаются.
func sourceFiles(param string, value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		files := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				files = append(files, s)
			}
		}
		return files, nil
	default:
		return nil, failed("invalid value type %T for parameter %s", value, param)
	}
}
