package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/shaiso/Deployer/internal/domain"
)

// Context — данные, доступные в шаблонах во время одного запуска flow.
//
// Используется в Go templates:
//   - {{ .OS }} — PRETTY_NAME удалённой ОС в нижнем регистре
//   - {{ .Settings.MainServerIP }} — настройки площадки
//   - {{ .Args.param_name }} — аргументы запуска
//
// Создаётся один раз на запуск и не меняется по ходу выполнения шагов.
type Context struct {
	// OS — идентификатор ОС удалённого хоста.
	OS string `json:"os"`

	// Settings — настройки площадки.
	Settings domain.HospitalSettings `json:"settings"`

	// Args — аргументы, переданные при запуске.
	Args map[string]any `json:"args"`
}

// NewContext создаёт контекст рендеринга.
func NewContext(os string, settings domain.HospitalSettings, args map[string]any) *Context {
	if args == nil {
		args = make(map[string]any)
	}
	return &Context{
		OS:       os,
		Settings: settings,
		Args:     args,
	}
}

// Renderer — рендеринг шаблонов против Context.
type Renderer interface {
	Render(text string, ctx *Context) (string, error)
}

// TextRenderer — Renderer на основе text/template.
type TextRenderer struct{}

// Render реализует Renderer.
func (TextRenderer) Render(text string, ctx *Context) (string, error) {
	return Render(text, ctx)
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// coalesce — возвращает первое непустое значение
	"coalesce": func(values ...any) any {
		for _, v := range values {
			if v != nil {
				if s, ok := v.(string); ok && s == "" {
					continue
				}
				return v
			}
		}
		return nil
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// split — разбивает строку на слайс
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	"contains":  strings.Contains,
	"hasPrefix": strings.HasPrefix,
	"hasSuffix": strings.HasSuffix,
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"trim":      strings.TrimSpace,
	"replace":   strings.ReplaceAll,
}

// Render рендерит строковый шаблон с контекстом.
//
// Обращение к отсутствующему аргументу ({{ .Args.missing }}) — ошибка,
// а не пустая строка: команда с пустым аргументом может сделать не то.
func Render(tmpl string, ctx *Context) (string, error) {
	// Проверяем, содержит ли строка шаблонные выражения
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

