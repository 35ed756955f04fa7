// Package steps содержит обработчики типов шагов flow.
//
// # Обзор
//
// Каждый обработчик выполняет один тип шага против удалённого хоста:
//   - runCommand — команда с потоковой передачей вывода
//   - downloadPackage — загрузка пакета в локальный кэш (идемпотентно)
//   - transferPackage — передача пакета из кэша на хост
//   - transferConfigFile — рендеринг шаблона конфигурации и передача на хост
//   - transferFile — передача локальных файлов из аргументов запуска
//   - decompressionOfflinePackage — распаковка офлайн-пакета в кэш
//
// # Интерфейс Step
//
//	type Step interface {
//	    Kind() domain.StepKind
//	    Execute(ctx context.Context, req *Request) error
//	}
//
// Request содержит определение шага, аргументы, контекст шаблонов,
// сессию и sink прогресса. Шаблонные поля рендерятся обработчиком.
//
// # Registry
//
//	registry := steps.DefaultRegistry(steps.Deps{
//	    Resolver:     resolver.NewRemote("", download.New(download.Config{})),
//	    Decompressor: archive.NewTarGz(nil),
//	})
//	step, err := registry.Lookup(&def.Steps[i])
//
// # Ошибки
//
// Ошибки уровня flow (нет обязательного поля, нет пакета в кэше,
// неизвестный тип шага, ошибка resolver) оборачивают ErrFlowExecutionFailed.
// Ошибки сессии возвращаются без изменений.
// Повторных попыток нет: первая ошибка прерывает flow.
package steps
