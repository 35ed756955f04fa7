package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/shaiso/Deployer/internal/domain"
)

// Source — источник определений flow.
type Source interface {
	Load() ([]domain.FlowDefinition, error)
}

// FSSource загружает все *.json файлы из файловой системы.
// Файлы читаются в лексикографическом порядке путей.
type FSSource struct {
	FS fs.FS
}

// DirSource возвращает FSSource для каталога на диске.
func DirSource(dir string) FSSource {
	return FSSource{FS: os.DirFS(dir)}
}

// Load реализует Source.
func (s FSSource) Load() ([]domain.FlowDefinition, error) {
	var files []string
	err := fs.WalkDir(s.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".json" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list flow documents: %w", err)
	}
	sort.Strings(files)

	defs := make([]domain.FlowDefinition, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(s.FS, file)
		if err != nil {
			return nil, fmt.Errorf("read flow document %s: %w", file, err)
		}

		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse flow document %s: %w", file, err)
		}
		defs = append(defs, *def)
	}

	return defs, nil
}

// Catalog — неизменяемый набор определений flow.
//
// Строится один раз при старте; методов для изменения нет.
type Catalog struct {
	flows  []domain.FlowDefinition
	byName map[string]int
}

// NewCatalog валидирует определения и строит каталог.
// Порядок flows сохраняется.
func NewCatalog(defs ...domain.FlowDefinition) (*Catalog, error) {
	c := &Catalog{
		flows:  make([]domain.FlowDefinition, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}

	for i := range defs {
		def := defs[i]
		if err := Validate(&def); err != nil {
			return nil, err
		}
		if _, exists := c.byName[def.Name]; exists {
			return nil, NewValidationError(def.Name, -1, "name",
				fmt.Sprintf("duplicate flow name: %s", def.Name), ErrDuplicateFlow)
		}
		c.byName[def.Name] = len(c.flows)
		c.flows = append(c.flows, def)
	}

	return c, nil
}

// LoadCatalog загружает определения из источника и строит каталог.
func LoadCatalog(src Source) (*Catalog, error) {
	defs, err := src.Load()
	if err != nil {
		return nil, err
	}
	return NewCatalog(defs...)
}

// Lookup возвращает flow по имени.
func (c *Catalog) Lookup(name string) (*domain.FlowDefinition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	def := c.flows[i]
	return &def, true
}

// All возвращает все flows в порядке загрузки.
func (c *Catalog) All() []domain.FlowDefinition {
	return append([]domain.FlowDefinition(nil), c.flows...)
}

// Len возвращает количество flows.
func (c *Catalog) Len() int {
	return len(c.flows)
}
