package progress

import "github.com/dustin/go-humanize"

// Event — одно уведомление о прогрессе передачи данных.
type Event struct {
	TotalSize           int64   `json:"totalSize"`
	TotalSizeFormat     string  `json:"totalSizeFormat"`
	ProcessedSize       int64   `json:"processedSize"`
	ProcessedSizeFormat string  `json:"processedSizeFormat"`
	ProgressPercent     float64 `json:"progressPercent"`
}

// NewEvent создаёт Event и вычисляет процент выполнения.
//
// Для total == 0 прогресс считается полным (100%).
func NewEvent(total, processed int64) Event {
	return Event{
		TotalSize:           total,
		TotalSizeFormat:     humanize.Bytes(uint64(max(total, 0))),
		ProcessedSize:       processed,
		ProcessedSizeFormat: humanize.Bytes(uint64(max(processed, 0))),
		ProgressPercent:     Percent(total, processed),
	}
}

// Percent возвращает 100·processed/total.
func Percent(total, processed int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(processed) / float64(total) * 100
}

// Done возвращает true, если обработан весь объём.
func (e Event) Done() bool {
	return e.ProcessedSize >= e.TotalSize
}
