// Package progress описывает получателя уведомлений о ходе выполнения flow.
//
// Sink получает три вида уведомлений:
//   - смена текущего шага (индекс шага)
//   - прогресс передачи данных (Event)
//   - фрагменты вывода удалённой команды
//
// Методы Sink ничего не возвращают: сбой внутри Sink не может прервать
// передачу файла или выполнение шага. Вызовы синхронные, поэтому
// медленный Sink замедляет передачу.
package progress

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Sink — получатель уведомлений о прогрессе.
type Sink interface {
	// StepChanged вызывается перед началом шага с его индексом.
	StepChanged(ctx context.Context, index int)

	// Progress вызывается после каждой порции переданных байт.
	Progress(ctx context.Context, ev Event)

	// Output вызывается для каждого фрагмента stdout удалённой команды.
	Output(ctx context.Context, chunk []byte)
}

// Nop — Sink, который ничего не делает.
type Nop struct{}

func (Nop) StepChanged(context.Context, int) {}
func (Nop) Progress(context.Context, Event)  {}
func (Nop) Output(context.Context, []byte)   {}

// OrNop возвращает sink или Nop, если sink == nil.
func OrNop(sink Sink) Sink {
	if sink == nil {
		return Nop{}
	}
	return sink
}

// Log — Sink, пишущий уведомления в slog на уровне DEBUG.
type Log struct {
	Logger *slog.Logger
}

// NewLog создаёт Log. Если logger == nil, используется slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) StepChanged(ctx context.Context, index int) {
	l.Logger.DebugContext(ctx, "flow step changed", "step_index", index)
}

func (l *Log) Progress(ctx context.Context, ev Event) {
	l.Logger.DebugContext(ctx, "transfer progress",
		"processed", ev.ProcessedSizeFormat,
		"total", ev.TotalSizeFormat,
		"percent", ev.ProgressPercent,
	)
}

func (l *Log) Output(ctx context.Context, chunk []byte) {
	l.Logger.DebugContext(ctx, "command output", "bytes", len(chunk))
}

// Writer — Sink, копирующий вывод команд в io.Writer.
// Уведомления о шагах и прогрессе игнорируются.
type Writer struct {
	W io.Writer
}

func (w Writer) StepChanged(context.Context, int) {}
func (w Writer) Progress(context.Context, Event)  {}

func (w Writer) Output(_ context.Context, chunk []byte) {
	// ошибка записи в терминал не должна прерывать команду
	_, _ = w.W.Write(chunk)
}

// multi рассылает уведомления нескольким получателям по порядку.
type multi []Sink

// Multi объединяет несколько Sink в один. nil-элементы пропускаются.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) StepChanged(ctx context.Context, index int) {
	for _, s := range m {
		s.StepChanged(ctx, index)
	}
}

func (m multi) Progress(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Progress(ctx, ev)
	}
}

func (m multi) Output(ctx context.Context, chunk []byte) {
	for _, s := range m {
		s.Output(ctx, chunk)
	}
}

// Recorder — Sink, запоминающий все уведомления. Используется в тестах.
type Recorder struct {
	mu     sync.Mutex
	steps  []int
	events []Event
	output []byte
}

func (r *Recorder) StepChanged(_ context.Context, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, index)
}

func (r *Recorder) Progress(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Output(_ context.Context, chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output = append(r.output, chunk...)
}

// Steps возвращает индексы шагов в порядке получения.
func (r *Recorder) Steps() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.steps...)
}

// Events возвращает события прогресса в порядке получения.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OutputBytes возвращает весь полученный вывод команд.
func (r *Recorder) OutputBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.output...)
}
