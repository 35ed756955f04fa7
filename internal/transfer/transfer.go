// Package transfer записывает буфер в удалённый файл порциями
// фиксированного размера с уведомлением о прогрессе.
package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/shaiso/Deployer/internal/progress"
	"github.com/shaiso/Deployer/internal/telemetry"
)

// ChunkSize — размер одной порции записи в байтах.
const ChunkSize = 8092

// Write записывает data в w порциями по ChunkSize байт.
//
// После каждой порции (включая первую) в sink отправляется
// Event{total: len(data), processed: записано на текущий момент}.
// Последнее событие всегда имеет processed == total.
// Пустой буфер не порождает ни одной записи и ни одного события.
func Write(ctx context.Context, w io.Writer, data []byte, sink progress.Sink) error {
	sink = progress.OrNop(sink)

	total := len(data)
	written := 0
	for written < total {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transfer cancelled at %d of %d bytes: %w", written, total, err)
		}

		end := min(written+ChunkSize, total)
		if _, err := w.Write(data[written:end]); err != nil {
			return fmt.Errorf("write chunk at offset %d: %w", written, err)
		}
		telemetry.TransferredBytes.Add(float64(end - written))
		written = end

		sink.Progress(ctx, progress.NewEvent(int64(total), int64(written)))
	}

	return nil
}

// Chunks возвращает количество порций для буфера размера size.
func Chunks(size int) int {
	return (size + ChunkSize - 1) / ChunkSize
}
