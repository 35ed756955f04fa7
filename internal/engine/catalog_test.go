package engine

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Deployer/internal/domain"
)

func flow(name string) domain.FlowDefinition {
	return domain.FlowDefinition{
		Name:  name,
		Steps: []domain.FlowStep{{Type: "runCommand", Command: "echo " + name}},
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(flow("b"), flow("a"), flow("c"))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
	assert.Equal(t, "c", all[2].Name)

	def, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "echo a", def.Steps[0].Command)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestNewCatalog_Duplicate(t *testing.T) {
	_, err := NewCatalog(flow("a"), flow("a"))
	assert.ErrorIs(t, err, ErrDuplicateFlow)
}

func TestNewCatalog_Invalid(t *testing.T) {
	_, err := NewCatalog(flow("a"), domain.FlowDefinition{Name: "broken", Steps: []domain.FlowStep{{Name: "typeless"}}})
	assert.ErrorIs(t, err, ErrEmptyStepType)
}

func TestNewCatalog_EmptyFlow(t *testing.T) {
	c, err := NewCatalog(flow("a"), domain.FlowDefinition{Name: "placeholder"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	def, ok := c.Lookup("placeholder")
	require.True(t, ok)
	assert.Empty(t, def.Steps)
}

func TestCatalog_Immutable(t *testing.T) {
	c, err := NewCatalog(flow("a"))
	require.NoError(t, err)

	all := c.All()
	all[0].Name = "changed"

	def, _ := c.Lookup("a")
	def.Description = "changed"

	again, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", c.All()[0].Name)
	assert.Empty(t, again.Description)
}

func TestLoadCatalog_FSSource(t *testing.T) {
	fsys := fstest.MapFS{
		"b-install.json":        {Data: []byte(`{"name": "install", "steps": [{"type": "runCommand", "command": "ls"}]}`)},
		"a-docker.json":         {Data: []byte(installDocker)},
		"README.md":             {Data: []byte("# flows")},
		"nested/configure.json": {Data: []byte(`{"name": "configure", "steps": [{"type": "transferFile", "sourceFileParamName": "files"}]}`)},
	}

	c, err := LoadCatalog(FSSource{FS: fsys})
	require.NoError(t, err)

	var names []string
	for _, def := range c.All() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"install-docker", "install", "configure"}, names)
}

func TestLoadCatalog_BadDocument(t *testing.T) {
	fsys := fstest.MapFS{
		"ok.json":  {Data: []byte(installDocker)},
		"bad.json": {Data: []byte(`{"name": "bad", "steps": [{"type": "runCommand"}]}`)},
	}

	_, err := LoadCatalog(FSSource{FS: fsys})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingStepField)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestLoadCatalog_DuplicateAcrossFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"one.json": {Data: []byte(installDocker)},
		"two.json": {Data: []byte(installDocker)},
	}

	_, err := LoadCatalog(FSSource{FS: fsys})
	assert.ErrorIs(t, err, ErrDuplicateFlow)
}

func TestDirSource(t *testing.T) {
	c, err := LoadCatalog(DirSource("../../flows"))
	require.NoError(t, err)
	assert.Positive(t, c.Len())
}
