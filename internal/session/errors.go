package session

import (
	"errors"
	"fmt"
)

// Ошибки сессии.
var (
	// ErrAuthenticationFailed — сервер отклонил имя пользователя или пароль.
	ErrAuthenticationFailed = errors.New("server authentication failed")

	// ErrCommandTimeout — канал закрылся, а код завершения так и не пришёл.
	ErrCommandTimeout = errors.New("command execution timeout")

	// ErrCommandFailed — команда завершилась с ненулевым кодом.
	// Конкретная ошибка имеет тип *CommandError.
	ErrCommandFailed = errors.New("command execution failed")
)

// unknownDetail — описание ошибки, когда сервер не прислал ни сигнала, ни stderr.
const unknownDetail = "unknown"

// CommandError — команда завершилась с ненулевым кодом.
type CommandError struct {
	// ExitStatus — код завершения.
	ExitStatus int

	// Detail — сообщение сигнала, текст stderr или "unknown".
	Detail string
}

// Error реализует интерфейс error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCommandFailed, e.Detail)
}

// Is позволяет сравнивать с ErrCommandFailed через errors.Is.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// IsCommandError проверяет, что команда выполнилась, но с ненулевым кодом.
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}
