package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/Deployer/internal/progress"
)

// Префиксы имён пакетов. Порядок проверки важен:
// docker/images/ проверяется раньше docker/.
const (
	PrefixDockerImages = "docker/images/"
	PrefixDocker       = "docker/"
	PrefixService      = "service/"
	PrefixConfig       = "config/"
)

// Local копирует пакеты из локального каталога.
//
// Раскладка каталога:
//
//	docker/images/<name>      — образы docker
//	docker/debs.tar.gz        — docker для ubuntu
//	docker/rpms.tar.gz        — docker для остальных ОС
//	<svc>/<svc>.tar.gz        — пакеты сервисов
//	config/<app>/<file>       — шаблоны конфигурации
type Local struct {
	dir    string
	logger *slog.Logger
}

// NewLocal создаёт Local для каталога dir.
func NewLocal(dir string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{dir: dir, logger: logger}
}

// SourcePath возвращает путь к файлу пакета в локальном каталоге.
// Для имени с неизвестным префиксом ok == false.
func (l *Local) SourcePath(packageName string) (path string, ok bool, err error) {
	switch {
	case strings.HasPrefix(packageName, PrefixDockerImages):
		image := strings.TrimPrefix(packageName, PrefixDockerImages)
		return filepath.Join(l.dir, "docker", "images", image), true, nil

	case strings.HasPrefix(packageName, PrefixDocker):
		name := "rpms.tar.gz"
		if strings.TrimPrefix(packageName, PrefixDocker) == "ubuntu" {
			name = "debs.tar.gz"
		}
		return filepath.Join(l.dir, "docker", name), true, nil

	case strings.HasPrefix(packageName, PrefixService):
		svc := strings.TrimPrefix(packageName, PrefixService)
		if svc == "" {
			return "", true, fmt.Errorf("%w: %q has no service name", ErrInvalidPackageName, packageName)
		}
		return filepath.Join(l.dir, svc, svc+".tar.gz"), true, nil

	case strings.HasPrefix(packageName, PrefixConfig):
		app, file, found := strings.Cut(strings.TrimPrefix(packageName, PrefixConfig), "/")
		if !found || app == "" || file == "" {
			return "", true, fmt.Errorf("%w: %q must be config/<app>/<file>", ErrInvalidPackageName, packageName)
		}
		return filepath.Join(l.dir, "config", app, file), true, nil

	default:
		return "", false, nil
	}
}

// Resolve реализует Resolver.
//
// Пакет с неизвестным префиксом не копируется, ошибка не возвращается.
func (l *Local) Resolve(ctx context.Context, packageName, targetFile string, sink progress.Sink) error {
	source, ok, err := l.SourcePath(packageName)
	if err != nil {
		return err
	}
	if !ok {
		l.logger.Warn("unknown local package prefix, nothing copied", "package", packageName)
		return nil
	}

	l.logger.Info("copying local package", "package", packageName, "source", source, "target", targetFile)
	return copyFile(ctx, source, targetFile, progress.OrNop(sink))
}

// copyFile копирует src в dst, создавая родительские каталоги dst.
func copyFile(ctx context.Context, src, dst string, sink progress.Sink) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open package: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat package: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy package: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close target file: %w", err)
	}

	sink.Progress(ctx, progress.NewEvent(info.Size(), info.Size()))
	return nil
}
