// Package download загружает файлы по HTTP на локальный диск
// с уведомлением о прогрессе.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/Deployer/internal/progress"
	"github.com/shaiso/Deployer/internal/telemetry"
)

var (
	// ErrUnexpectedStatus — сервер ответил не 2xx.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMissingContentLength — в ответе нет Content-Length.
	ErrMissingContentLength = errors.New("content-length header is missing")
)

// maxErrorBody ограничивает размер тела ответа, попадающего в ошибку.
const maxErrorBody = 4 << 10

// partSuffix — суффикс файла, в который идёт незавершённая загрузка.
const partSuffix = ".part"

// Config — конфигурация Fetcher.
type Config struct {
	// Client — HTTP клиент. По умолчанию без общего таймаута:
	// пакеты бывают большими, а загрузка ограничивается через ctx.
	Client *http.Client

	// BufferSize — размер буфера чтения тела ответа.
	BufferSize int

	Logger *slog.Logger
}

// Fetcher загружает файлы по HTTP.
type Fetcher struct {
	client     *http.Client
	bufferSize int
	logger     *slog.Logger
}

// New создаёт Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 32 << 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Fetcher{
		client:     cfg.Client,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
	}
}

// Fetch загружает url в файл target.
//
// Ответ не 2xx даёт ErrUnexpectedStatus (статус и тело в сообщении),
// ответ без Content-Length даёт ErrMissingContentLength; в обоих случаях
// файл не создаётся. Родительские каталоги target создаются.
// После каждого прочитанного фрагмента в sink отправляется прогресс.
// Тело пишется во временный файл target+".part", который после
// синхронизации на диск переименовывается в target. При ошибке
// временный файл удаляется, target не появляется.
func (f *Fetcher) Fetch(ctx context.Context, url, target string, sink progress.Sink) error {
	sink = progress.OrNop(sink)

	f.logger.Info("downloading file", "url", url, "target", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: download %s to %s: status %s, body: %s",
			ErrUnexpectedStatus, url, target, resp.Status, body)
	}

	total := resp.ContentLength
	if total < 0 {
		return fmt.Errorf("%w: %s", ErrMissingContentLength, url)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	part := target + partSuffix
	file, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create target file: %w", err)
	}

	if err := f.write(ctx, file, resp.Body, total, sink); err != nil {
		os.Remove(part)
		return err
	}

	if err := os.Rename(part, target); err != nil {
		os.Remove(part)
		return fmt.Errorf("rename %s: %w", part, err)
	}

	f.logger.Debug("file downloaded", "target", target, "bytes", total)
	return nil
}

// write копирует тело ответа в file, синхронизирует и закрывает его.
// file закрыт к моменту возврата при любом исходе.
func (f *Fetcher) write(ctx context.Context, file *os.File, r io.Reader, total int64, sink progress.Sink) error {
	if err := f.copy(ctx, file, r, total, sink); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync %s: %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", file.Name(), err)
	}
	return nil
}

func (f *Fetcher) copy(ctx context.Context, w io.Writer, r io.Reader, total int64, sink progress.Sink) error {
	buf := make([]byte, f.bufferSize)
	var processed int64

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return fmt.Errorf("write chunk: %w", err)
			}
			processed += int64(n)
			telemetry.DownloadedBytes.Add(float64(n))
			sink.Progress(ctx, progress.NewEvent(total, processed))
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read response body: %w", readErr)
		}
	}
}
