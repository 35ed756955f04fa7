package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/Deployer/internal/archive"
	"github.com/shaiso/Deployer/internal/domain"
)

// OfflinePackageArg — аргумент запуска с путём к офлайн-пакету.
const OfflinePackageArg = "offline_package"

// DecompressStep — распаковка офлайн-пакета в корень кэша.
type DecompressStep struct {
	decompressor archive.Decompressor
}

// NewDecompressStep создаёт DecompressStep.
func NewDecompressStep(d archive.Decompressor) *DecompressStep {
	return &DecompressStep{decompressor: d}
}

// Kind реализует Step.
func (s *DecompressStep) Kind() domain.StepKind {
	return domain.StepKindDecompressOfflinePackage
}

// Execute реализует Step.
func (s *DecompressStep) Execute(ctx context.Context, req *Request) error {
	value, ok := req.Args[OfflinePackageArg]
	if !ok {
		return failed("no offline package specified")
	}
	pkg, ok := value.(string)
	if !ok || pkg == "" {
		return failed("invalid offline package value %v", value)
	}

	if s.decompressor == nil {
		return failed("no decompressor configured for step %q", req.Step.Label())
	}

	if err := s.decompressor.Decompress(ctx, pkg, req.CacheDir, req.sink()); err != nil {
		return fmt.Errorf("decompress %s: %w", pkg, err)
	}
	return nil
}
