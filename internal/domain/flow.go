package domain

// FlowDefinition — определение сценария развёртывания (flow).
//
// Flow — это упорядоченный список шагов, выполняемых на одном удалённом
// хосте: установка пакетов, передача конфигурации, запуск команд.
// Определения загружаются один раз при старте и далее не изменяются.
type FlowDefinition struct {
	// Local — flow предназначен только для локального режима
	// (пакеты берутся из локального каталога, а не с сервера пакетов).
	Local bool `json:"local"`

	// Name — уникальное имя flow. Используется для поиска в каталоге.
	Name string `json:"name"`

	// Description — описание назначения flow.
	Description string `json:"description"`

	// Icon — имя иконки для отображения в клиенте.
	Icon string `json:"icon"`

	// Parameters — входные параметры flow.
	// Носят справочный характер: engine их не проверяет.
	Parameters []FlowParameter `json:"parameters"`

	// Steps — шаги в порядке выполнения.
	Steps []FlowStep `json:"steps"`
}

// FlowParameter — описание одного входного параметра flow.
type FlowParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Multiple bool   `json:"multiple"`
}

// FlowStep — определение шага в flow.
//
// Заполняются только поля, относящиеся к типу шага (см. RequiredFields).
// Строковые поля, кроме Type и Name, являются шаблонами.
type FlowStep struct {
	// Type — тип шага: "runCommand", "downloadPackage", "transferPackage",
	// "transferConfigFile", "transferFile", "decompressionOfflinePackage".
	Type string `json:"type"`

	// Name — человекочитаемое имя шага.
	Name string `json:"name"`

	// Condition — шаблон команды, выполняемой на удалённом хосте.
	// Если команда завершилась с кодом 0, шаг пропускается.
	Condition string `json:"condition,omitempty"`

	// Command — команда для runCommand.
	Command string `json:"command,omitempty"`

	// Package — имя пакета для downloadPackage и transferPackage.
	Package string `json:"package,omitempty"`

	// SourceFileParamName — имя аргумента с путём (или списком путей)
	// локальных файлов для transferFile.
	SourceFileParamName string `json:"sourceFileParamName,omitempty"`

	// SourceFile — путь к шаблону конфигурации в кэше для transferConfigFile.
	SourceFile string `json:"sourceFile,omitempty"`

	// TargetDir — каталог назначения на удалённом хосте.
	TargetDir string `json:"targetDir,omitempty"`

	// TargetFile — файл назначения.
	TargetFile string `json:"targetFile,omitempty"`
}

// Kind возвращает тип шага.
// Для неизвестного тега возвращается StepKindUnknown.
func (s *FlowStep) Kind() StepKind {
	return ParseStepKind(s.Type)
}

// Label возвращает имя шага для логов и ошибок.
func (s *FlowStep) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type
}

// Field возвращает значение поля по его JSON-имени.
func (s *FlowStep) Field(name string) string {
	switch name {
	case FieldCommand:
		return s.Command
	case FieldPackage:
		return s.Package
	case FieldSourceFileParamName:
		return s.SourceFileParamName
	case FieldSourceFile:
		return s.SourceFile
	case FieldTargetDir:
		return s.TargetDir
	case FieldTargetFile:
		return s.TargetFile
	default:
		return ""
	}
}

// MissingFields возвращает обязательные для типа шага поля, которые не заданы.
func (s *FlowStep) MissingFields() []string {
	var missing []string
	for _, field := range s.Kind().RequiredFields() {
		if s.Field(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
