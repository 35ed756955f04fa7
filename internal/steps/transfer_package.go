package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/session"
)

// Пороги проверки "пакет уже на хосте".
const (
	// MinSkipSize — пакеты меньше этого размера передаются всегда.
	MinSkipSize int64 = 5 * humanize.MByte

	// SizeTolerance — допустимая разница между размером на хосте и локальным.
	SizeTolerance int64 = 1 * humanize.MByte
)

// TransferPackageStep — передача пакета из кэша на удалённый хост.
//
// Передача пропускается, если на хосте уже лежит файл примерно
// того же размера (см. ShouldTransfer).
type TransferPackageStep struct{}

// NewTransferPackageStep создаёт TransferPackageStep.
func NewTransferPackageStep() *TransferPackageStep {
	return &TransferPackageStep{}
}

// Kind реализует Step.
func (s *TransferPackageStep) Kind() domain.StepKind {
	return domain.StepKindTransferPackage
}

// Execute реализует Step.
func (s *TransferPackageStep) Execute(ctx context.Context, req *Request) error {
	pkg, err := req.RenderField(domain.FieldPackage)
	if err != nil {
		return err
	}
	local := req.CachePath(pkg)

	info, err := os.Stat(local)
	if errors.Is(err, fs.ErrNotExist) {
		return failed("package not found: %s", pkg)
	}
	if err != nil {
		return fmt.Errorf("stat package: %w", err)
	}

	target, err := req.RenderField(domain.FieldTargetFile)
	if err != nil {
		return err
	}
	dir, filename, err := SplitRemotePath(target)
	if err != nil {
		return err
	}

	localSize := info.Size()
	remoteSize := RemoteSize(ctx, req.Session, target)
	if !ShouldTransfer(localSize, remoteSize) {
		req.logger().Info("package already deployed, transfer skipped",
			"package", pkg,
			"target", target,
			"local_size", humanize.Bytes(uint64(localSize)),
			"remote_size", humanize.Bytes(uint64(remoteSize)),
		)
		return nil
	}

	data, err := os.ReadFile(local)
	if err != nil {
		return fmt.Errorf("read package: %w", err)
	}

	req.logger().Info("transferring package", "package", pkg, "target", target, "size", humanize.Bytes(uint64(localSize)))
	return req.Session.TransferFile(ctx, dir, filename, data, req.sink())
}

// ShouldTransfer решает, нужно ли передавать пакет размера localSize,
// если на хосте найден файл размера remoteSize.
func ShouldTransfer(localSize, remoteSize int64) bool {
	if localSize < MinSkipSize {
		return true
	}
	delta := remoteSize - localSize
	if delta < 0 {
		delta = -delta
	}
	return delta > SizeTolerance
}

// RemoteSize оценивает размер файла на хосте через du.
// Любая ошибка (нет файла, нечисловой вывод) даёт 0.
func RemoteSize(ctx context.Context, sess Session, target string) int64 {
	out, err := sess.Execute(ctx, "du -k "+session.Quote(target)+" | cut -f 1")
	if err != nil {
		return 0
	}
	kib, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil || kib < 0 {
		return 0
	}
	return kib * humanize.KiByte
}
