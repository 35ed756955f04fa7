package steps

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// SplitRemotePath разделяет путь на удалённом хосте на каталог и имя файла.
//
// Путь без каталога относится к домашнему каталогу пользователя (".").
func SplitRemotePath(p string) (dir, file string, err error) {
	if strings.TrimSpace(p) == "" {
		return "", "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	clean := path.Clean(p)
	file = path.Base(clean)
	if file == "/" || file == "." || file == ".." {
		return "", "", fmt.Errorf("%w: %s has no file name", ErrInvalidPath, p)
	}

	return path.Dir(clean), file, nil
}

// TargetPath вычисляет путь назначения для локального файла source.
//
// Правила по приоритету:
//   - задан targetFile — используется он
//   - задан targetDir — targetDir + имя файла source
//   - иначе — путь source без изменений
func TargetPath(targetDir, targetFile, source string) (string, error) {
	if targetFile != "" {
		return targetFile, nil
	}

	if targetDir == "" {
		return source, nil
	}

	name := filepath.Base(source)
	if source == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, source)
	}
	return path.Join(targetDir, name), nil
}
