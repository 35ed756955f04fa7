// Package archive распаковывает архивы tar.gz с уведомлением о прогрессе.
package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/shaiso/Deployer/internal/progress"
)

// DefaultReportEvery — шаг уведомлений о прогрессе по умолчанию.
const DefaultReportEvery = 10 * humanize.MiByte

// ErrUnsafePath — элемент архива указывает за пределы целевого каталога.
var ErrUnsafePath = errors.New("archive entry escapes target directory")

// Decompressor распаковывает архив в каталог.
type Decompressor interface {
	Decompress(ctx context.Context, archivePath, targetDir string, sink progress.Sink) error
}

// TarGz — Decompressor для архивов tar, сжатых gzip.
//
// Прогресс считается по байтам сжатого файла: первое уведомление
// отправляется после первого чтения, далее не чаще чем раз в ReportEvery байт.
type TarGz struct {
	ReportEvery int64
	Logger      *slog.Logger
}

// NewTarGz создаёт TarGz с настройками по умолчанию.
func NewTarGz(logger *slog.Logger) *TarGz {
	return &TarGz{ReportEvery: DefaultReportEvery, Logger: logger}
}

// Decompress реализует Decompressor.
func (d *TarGz) Decompress(ctx context.Context, archivePath, targetDir string, sink progress.Sink) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	every := d.ReportEvery
	if every <= 0 {
		every = DefaultReportEvery
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	pr := &progressReader{
		ctx:   ctx,
		r:     file,
		total: info.Size(),
		every: every,
		sink:  progress.OrNop(sink),
	}

	gz, err := gzip.NewReader(bufio.NewReader(pr))
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	logger.Info("decompressing archive", "archive", archivePath, "target", targetDir)

	entries, err := extract(ctx, tar.NewReader(gz), targetDir)
	if err != nil {
		return err
	}

	logger.Debug("archive decompressed", "archive", archivePath, "entries", entries)
	return nil
}

func extract(ctx context.Context, tr *tar.Reader, targetDir string) (int, error) {
	root, err := filepath.Abs(targetDir)
	if err != nil {
		return 0, fmt.Errorf("resolve target dir: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return 0, fmt.Errorf("resolve target dir: %w", err)
	}

	entries := 0
	for {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, fmt.Errorf("read archive entry: %w", err)
		}

		dest, err := entryPath(root, hdr.Name)
		if err != nil {
			return entries, err
		}
		if err := checkParent(root, realRoot, dest); err != nil {
			return entries, fmt.Errorf("%w: %s", err, hdr.Name)
		}

		mode := hdr.FileInfo().Mode().Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, mode|0o700); err != nil {
				return entries, fmt.Errorf("create dir %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if fi, err := os.Lstat(dest); err == nil && fi.Mode()&os.ModeSymlink != 0 {
				os.Remove(dest)
			}
			if err := writeFile(dest, tr, mode); err != nil {
				return entries, fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if !within(root, linkTarget(dest, hdr.Linkname)) {
				return entries, fmt.Errorf("%w: %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return entries, fmt.Errorf("create dir for %s: %w", hdr.Name, err)
			}
			os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return entries, fmt.Errorf("create symlink %s: %w", hdr.Name, err)
			}
		default:
			// Прочие типы (устройства, fifo) в пакетах не встречаются.
			continue
		}
		entries++
	}
}

// entryPath возвращает путь элемента внутри root.
func entryPath(root, name string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, dest) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return dest, nil
}

// within проверяет, что очищенный путь p лежит внутри root.
func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

// linkTarget возвращает путь, на который указывает ссылка dest.
// Относительная ссылка отсчитывается от каталога dest.
func linkTarget(dest, linkname string) string {
	if filepath.IsAbs(linkname) {
		return filepath.Clean(linkname)
	}
	return filepath.Join(filepath.Dir(dest), filepath.FromSlash(linkname))
}

// checkParent проверяет, что ближайший существующий предок dest после
// раскрытия символических ссылок остаётся внутри realRoot.
func checkParent(root, realRoot, dest string) error {
	dir := filepath.Dir(dest)
	for {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if !within(realRoot, real) {
				return ErrUnsafePath
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("resolve %s: %w", dir, err)
		}
		if dir == root {
			return nil
		}
		dir = filepath.Dir(dir)
	}
}

func writeFile(dest string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// progressReader сообщает о прочитанных байтах сжатого файла.
type progressReader struct {
	ctx       context.Context
	r         io.Reader
	total     int64
	processed int64
	reported  int64
	started   bool
	every     int64
	sink      progress.Sink
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.processed += int64(n)

	if !p.started || p.processed-p.reported >= p.every || (errors.Is(err, io.EOF) && p.reported < p.processed) {
		p.started = true
		p.reported = p.processed
		p.sink.Progress(p.ctx, progress.NewEvent(p.total, p.processed))
	}
	return n, err
}
