package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/resolver"
)

// DownloadPackageStep — загрузка пакета в локальный кэш.
//
// targetFile — путь внутри кэша. Если файл уже существует,
// шаг ничего не делает.
type DownloadPackageStep struct {
	resolver resolver.Resolver
}

// NewDownloadPackageStep создаёт DownloadPackageStep.
func NewDownloadPackageStep(r resolver.Resolver) *DownloadPackageStep {
	return &DownloadPackageStep{resolver: r}
}

// Kind реализует Step.
func (s *DownloadPackageStep) Kind() domain.StepKind {
	return domain.StepKindDownloadPackage
}

// Execute реализует Step.
func (s *DownloadPackageStep) Execute(ctx context.Context, req *Request) error {
	targetFile, err := req.RenderField(domain.FieldTargetFile)
	if err != nil {
		return err
	}
	target := req.CachePath(targetFile)

	_, err = os.Stat(target)
	switch {
	case err == nil:
		req.logger().Info("package already cached", "target", target)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("check cached package: %w", err)
	}

	pkg, err := req.RenderField(domain.FieldPackage)
	if err != nil {
		return err
	}

	if s.resolver == nil {
		return failed("no package resolver configured for step %q", req.Step.Label())
	}

	if err := s.resolver.Resolve(ctx, pkg, target, req.sink()); err != nil {
		return fmt.Errorf("%w: resolve package %s: %w", ErrFlowExecutionFailed, pkg, err)
	}
	return nil
}
