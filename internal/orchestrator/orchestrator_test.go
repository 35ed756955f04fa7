package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/engine"
	"github.com/shaiso/Deployer/internal/progress"
	"github.com/shaiso/Deployer/internal/session"
	"github.com/shaiso/Deployer/internal/steps"
)

// fakeSession — сессия без сети: ОС задаётся заранее, условия
// отвечают по таблице, команды записываются.
type fakeSession struct {
	os         string
	probeErr   error
	conditions map[string]bool
	streams    []string
	tests      []string
}

func (f *fakeSession) Addr() string { return "10.0.0.9:22" }

func (f *fakeSession) Execute(_ context.Context, command string) (string, error) {
	if command == session.OSProbeCommand {
		return f.os, f.probeErr
	}
	return "", nil
}

func (f *fakeSession) ExecuteStream(_ context.Context, command string, _ progress.Sink) error {
	f.streams = append(f.streams, command)
	return nil
}

func (f *fakeSession) Test(_ context.Context, command string) (bool, error) {
	f.tests = append(f.tests, command)
	return f.conditions[command], nil
}

func (f *fakeSession) TransferFile(context.Context, string, string, []byte, progress.Sink) error {
	return nil
}

type memoryRuns struct {
	mu      sync.Mutex
	created []domain.Run
	updates []domain.Run
	err     error
}

func (m *memoryRuns) Create(_ context.Context, run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *run)
	return m.err
}

func (m *memoryRuns) Update(_ context.Context, run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, *run)
	return m.err
}

func (m *memoryRuns) last() domain.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates[len(m.updates)-1]
}

func newEngine(t *testing.T, runs RunStore, defs ...domain.FlowDefinition) *Engine {
	t.Helper()
	catalog, err := engine.NewCatalog(defs...)
	require.NoError(t, err)

	cfg := Config{
		Catalog:  catalog,
		Registry: steps.DefaultRegistry(steps.Deps{}),
		CacheDir: t.TempDir(),
	}
	if runs != nil {
		cfg.Runs = runs
	}
	return New(cfg)
}

func command(cmd string) domain.FlowStep {
	return domain.FlowStep{Type: "runCommand", Name: cmd, Command: cmd}
}

func TestRunFlow_UnknownFlow(t *testing.T) {
	e := newEngine(t, nil, domain.FlowDefinition{Name: "known", Steps: []domain.FlowStep{command("ls")}})
	sess := &fakeSession{os: "Ubuntu"}
	rec := &progress.Recorder{}

	err := e.RunFlow(context.Background(), "missing", domain.HospitalSettings{}, nil, sess, rec)
	require.NoError(t, err)
	assert.Empty(t, sess.streams)
	assert.Empty(t, rec.Steps())

	_, err = e.Lookup("missing")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestRunFlow_EmptyFlow(t *testing.T) {
	runs := &memoryRuns{}
	e := newEngine(t, runs, domain.FlowDefinition{Name: "placeholder"})
	sess := &fakeSession{os: "Ubuntu"}
	rec := &progress.Recorder{}

	require.NoError(t, e.RunFlow(context.Background(), "placeholder", domain.HospitalSettings{}, nil, sess, rec))
	assert.Empty(t, sess.streams)
	assert.Empty(t, rec.Steps())
	assert.Equal(t, domain.RunStatusSucceeded, runs.last().Status)
}

func TestRunFlow_AbortsAtUnsupportedStep(t *testing.T) {
	runs := &memoryRuns{}
	e := newEngine(t, runs, domain.FlowDefinition{Name: "three", Steps: []domain.FlowStep{
		command("touch /tmp/one"),
		{Type: "restartContainer", Name: "future step"},
		command("touch /tmp/three"),
	}})
	sess := &fakeSession{os: "Ubuntu 22.04.4 LTS"}
	rec := &progress.Recorder{}

	err := e.RunFlow(context.Background(), "three", domain.HospitalSettings{}, nil, sess, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, steps.ErrFlowExecutionFailed)
	assert.ErrorIs(t, err, steps.ErrStepNotFound)

	assert.Equal(t, []string{"touch /tmp/one"}, sess.streams)
	assert.Equal(t, []int{0, 1}, rec.Steps())

	last := runs.last()
	assert.Equal(t, domain.RunStatusFailed, last.Status)
	assert.Equal(t, 1, last.CurrentStep)
	assert.Contains(t, last.Error, "restartContainer")
}

func TestRunFlow_ConditionSkipsStep(t *testing.T) {
	e := newEngine(t, nil, domain.FlowDefinition{Name: "cond", Steps: []domain.FlowStep{
		{Type: "runCommand", Name: "install", Condition: "which docker", Command: "apt install docker"},
		{Type: "runCommand", Name: "start", Condition: "systemctl is-active docker", Command: "systemctl start docker"},
	}})
	sess := &fakeSession{
		os: "Ubuntu",
		conditions: map[string]bool{
			"which docker":               true,
			"systemctl is-active docker": false,
		},
	}
	rec := &progress.Recorder{}

	require.NoError(t, e.RunFlow(context.Background(), "cond", domain.HospitalSettings{}, nil, sess, rec))

	assert.Equal(t, []string{"which docker", "systemctl is-active docker"}, sess.tests)
	assert.Equal(t, []string{"systemctl start docker"}, sess.streams)
	assert.Equal(t, []int{0, 1}, rec.Steps())
}

func TestRunFlow_TemplateContext(t *testing.T) {
	e := newEngine(t, nil, domain.FlowDefinition{Name: "ctx", Steps: []domain.FlowStep{
		{
			Type:      "runCommand",
			Condition: `test "{{ .OS }}" = "skip"`,
			Command:   "echo {{ .OS }} {{ .Settings.MainServerIP }} {{ .Args.version }}",
		},
	}})
	sess := &fakeSession{os: "Ubuntu 22.04.4 LTS\n"}

	err := e.RunFlow(context.Background(), "ctx",
		domain.HospitalSettings{MainServerIP: "10.0.0.5"},
		map[string]any{"version": "2.1"},
		sess, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{`test "ubuntu 22.04.4 lts" = "skip"`}, sess.tests)
	assert.Equal(t, []string{"echo ubuntu 22.04.4 lts 10.0.0.5 2.1"}, sess.streams)
}

func TestRunFlow_RenderError(t *testing.T) {
	e := newEngine(t, nil, domain.FlowDefinition{Name: "render", Steps: []domain.FlowStep{
		command("echo {{ .Args.missing }}"),
	}})
	sess := &fakeSession{os: "CentOS"}

	err := e.RunFlow(context.Background(), "render", domain.HospitalSettings{}, nil, sess, nil)
	assert.ErrorIs(t, err, engine.ErrTemplateRender)
	assert.Empty(t, sess.streams)
}

func TestRunFlow_OSProbeFailure(t *testing.T) {
	e := newEngine(t, nil, domain.FlowDefinition{Name: "probe", Steps: []domain.FlowStep{command("ls")}})
	probeErr := &session.CommandError{ExitStatus: 1, Detail: "no such file"}
	sess := &fakeSession{probeErr: probeErr}
	rec := &progress.Recorder{}

	err := e.RunFlow(context.Background(), "probe", domain.HospitalSettings{}, nil, sess, rec)
	require.ErrorIs(t, err, ErrOSProbe)
	assert.ErrorIs(t, err, session.ErrCommandFailed)
	assert.Empty(t, rec.Steps())
	assert.Empty(t, sess.streams)
}

func TestRunFlow_History(t *testing.T) {
	runs := &memoryRuns{}
	e := newEngine(t, runs, domain.FlowDefinition{Name: "hist", Steps: []domain.FlowStep{command("a"), command("b")}})

	require.NoError(t, e.RunFlow(context.Background(), "hist", domain.HospitalSettings{}, map[string]any{"k": "v"}, &fakeSession{os: "Ubuntu"}, nil))

	require.Len(t, runs.created, 1)
	assert.Equal(t, domain.RunStatusRunning, runs.created[0].Status)
	assert.Equal(t, "10.0.0.9:22", runs.created[0].Host)
	assert.Equal(t, 2, runs.created[0].StepCount)

	last := runs.last()
	assert.Equal(t, runs.created[0].ID, last.ID)
	assert.Equal(t, domain.RunStatusSucceeded, last.Status)
	assert.Equal(t, 1, last.CurrentStep)
	assert.NotNil(t, last.FinishedAt)
}

func TestRunFlow_HistoryFailureIgnored(t *testing.T) {
	runs := &memoryRuns{err: errors.New("database is down")}
	e := newEngine(t, runs, domain.FlowDefinition{Name: "hist", Steps: []domain.FlowStep{command("a")}})
	sess := &fakeSession{os: "Ubuntu"}

	require.NoError(t, e.RunFlow(context.Background(), "hist", domain.HospitalSettings{}, nil, sess, nil))
	assert.Equal(t, []string{"a"}, sess.streams)
}

func TestParseOS(t *testing.T) {
	assert.Equal(t, "ubuntu 22.04.4 lts", ParseOS("Ubuntu 22.04.4 LTS\n"))
	assert.Equal(t, "centos linux 7 (core)", ParseOS("  CentOS Linux 7 (Core)\nsecond\n"))
	assert.Equal(t, "", ParseOS(""))
}

func TestListFlows(t *testing.T) {
	e := newEngine(t, nil,
		domain.FlowDefinition{Name: "b", Steps: []domain.FlowStep{command("b")}},
		domain.FlowDefinition{Name: "a", Steps: []domain.FlowStep{command("a")}},
	)

	flows := e.ListFlows()
	require.Len(t, flows, 2)
	assert.Equal(t, "b", flows[0].Name)
	assert.Equal(t, "a", flows[1].Name)
}
