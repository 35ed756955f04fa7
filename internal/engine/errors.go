package engine

import (
	"errors"
	"strconv"
)

// Ошибки загрузки и валидации flow.
var (
	// ErrEmptyFlowName — flow без имени.
	ErrEmptyFlowName = errors.New("flow has empty name")

	// ErrDuplicateFlow — два flow с одинаковым именем.
	ErrDuplicateFlow = errors.New("duplicate flow name")

	// ErrEmptyStepType — шаг без типа.
	ErrEmptyStepType = errors.New("step has empty type")

	// ErrMissingStepField — не задано обязательное для типа шага поле.
	ErrMissingStepField = errors.New("missing required step field")

	// ErrInvalidDocument — документ flow не удалось разобрать.
	ErrInvalidDocument = errors.New("invalid flow document")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Flow    string // имя flow
	Step    int    // индекс шага, -1 для ошибок уровня flow
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	prefix := "flow " + e.Flow
	if e.Step >= 0 {
		prefix += ": step " + strconv.Itoa(e.Step)
	}
	return prefix + ": " + e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(flow string, step int, field, message string, err error) *ValidationError {
	return &ValidationError{
		Flow:    flow,
		Step:    step,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
