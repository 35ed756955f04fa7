package domain

// StepKind — тип шага flow.
//
// Закрытое множество из шести типов плюс StepKindUnknown
// для тегов, которые текущая версия не поддерживает.
type StepKind string

const (
	StepKindRunCommand               StepKind = "runCommand"
	StepKindDownloadPackage          StepKind = "downloadPackage"
	StepKindTransferPackage          StepKind = "transferPackage"
	StepKindTransferConfigFile       StepKind = "transferConfigFile"
	StepKindTransferFile             StepKind = "transferFile"
	StepKindDecompressOfflinePackage StepKind = "decompressionOfflinePackage"

	// StepKindUnknown — тег не распознан. Такой шаг проходит загрузку,
	// но завершает flow ошибкой при диспетчеризации.
	StepKindUnknown StepKind = "unknown"
)

// JSON-имена полей шага.
const (
	FieldCommand             = "command"
	FieldPackage             = "package"
	FieldSourceFileParamName = "sourceFileParamName"
	FieldSourceFile          = "sourceFile"
	FieldTargetDir           = "targetDir"
	FieldTargetFile          = "targetFile"
)

// StepKinds возвращает все поддерживаемые типы шагов.
func StepKinds() []StepKind {
	return []StepKind{
		StepKindRunCommand,
		StepKindDownloadPackage,
		StepKindTransferPackage,
		StepKindTransferConfigFile,
		StepKindTransferFile,
		StepKindDecompressOfflinePackage,
	}
}

// ParseStepKind преобразует тег из документа flow в StepKind.
func ParseStepKind(s string) StepKind {
	switch StepKind(s) {
	case StepKindRunCommand,
		StepKindDownloadPackage,
		StepKindTransferPackage,
		StepKindTransferConfigFile,
		StepKindTransferFile,
		StepKindDecompressOfflinePackage:
		return StepKind(s)
	default:
		return StepKindUnknown
	}
}

// IsKnown возвращает true для поддерживаемых типов.
func (k StepKind) IsKnown() bool {
	return k != StepKindUnknown && ParseStepKind(string(k)) == k
}

// RequiredFields возвращает поля, без которых шаг данного типа не выполнить.
func (k StepKind) RequiredFields() []string {
	switch k {
	case StepKindRunCommand:
		return []string{FieldCommand}
	case StepKindDownloadPackage, StepKindTransferPackage:
		return []string{FieldPackage, FieldTargetFile}
	case StepKindTransferConfigFile:
		return []string{FieldSourceFile, FieldTargetFile}
	case StepKindTransferFile:
		return []string{FieldSourceFileParamName}
	default:
		return nil
	}
}

// String возвращает строковое представление StepKind.
func (k StepKind) String() string {
	return string(k)
}
