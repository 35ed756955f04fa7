package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrFlowNotFound — flow с таким именем нет в каталоге.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrOSProbe — не удалось определить ОС удалённого хоста.
	ErrOSProbe = errors.New("remote os probe failed")
)
