package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shaiso/Deployer/internal/domain"
)

// Parse разбирает JSON-документ flow и проверяет его через Validate.
//
// Неизвестные поля отклоняются: опечатка в имени поля иначе
// превратилась бы в пропущенное обязательное поле.
func Parse(data []byte) (*domain.FlowDefinition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var def domain.FlowDefinition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate выполняет валидацию FlowDefinition.
//
// Проверяет:
// - Наличие имени
// - Наличие типа у каждого шага
// - Обязательные поля для каждого известного типа шага
//
// Flow без шагов допустим: при запуске он ничего не выполняет.
// Шаги неизвестного типа проходят валидацию: такой flow загружается,
// но завершается ошибкой, когда выполнение дойдёт до этого шага.
func Validate(def *domain.FlowDefinition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return NewValidationError("", -1, "name", "flow has empty name", ErrEmptyFlowName)
	}

	for i := range def.Steps {
		if err := ValidateStep(def.Name, i, &def.Steps[i]); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStep валидирует один шаг.
func ValidateStep(flow string, index int, step *domain.FlowStep) error {
	if step.Type == "" {
		return NewValidationError(flow, index, "type", "step has empty type", ErrEmptyStepType)
	}

	if missing := step.MissingFields(); len(missing) > 0 {
		return NewValidationError(flow, index, missing[0],
			fmt.Sprintf("%s step %q requires %s", step.Type, step.Label(), strings.Join(missing, ", ")),
			ErrMissingStepField)
	}

	return nil
}
