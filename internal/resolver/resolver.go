// Package resolver материализует пакеты в локальные файлы.
//
// Два варианта:
//   - Remote загружает пакет с сервера пакетов по HTTP
//   - Local копирует пакет из локального каталога (офлайн-режим)
package resolver

import (
	"context"
	"errors"

	"github.com/shaiso/Deployer/internal/progress"
)

// ErrInvalidPackageName — имя пакета не соответствует ожидаемому формату.
var ErrInvalidPackageName = errors.New("invalid package name")

// Resolver материализует пакет packageName в файл targetFile.
type Resolver interface {
	Resolve(ctx context.Context, packageName, targetFile string, sink progress.Sink) error
}
