package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/archive"
	"github.com/shaiso/Deployer/internal/config"
	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/download"
	"github.com/shaiso/Deployer/internal/engine"
	"github.com/shaiso/Deployer/internal/resolver"
	"github.com/shaiso/Deployer/internal/session"
	"github.com/shaiso/Deployer/internal/steps"
	"github.com/shaiso/Deployer/internal/telemetry"
)

// PasswordEnv — переменная окружения с паролем SSH.
// Используется, если пароль не передан флагом.
const PasswordEnv = "DEPLOYER_SSH_PASSWORD"

var (
	// ErrHistoryDisabled — история запусков не настроена.
	ErrHistoryDisabled = errors.New("run history is disabled: db_url is not set")

	// ErrBrokerDisabled — RabbitMQ не настроен.
	ErrBrokerDisabled = errors.New("progress stream is disabled: rabbitmq_url is not set")

	// ErrNoLocalPackages — не задан каталог офлайн-пакетов.
	ErrNoLocalPackages = errors.New("local package directory is not set")
)

// App — общее состояние команд: глобальные флаги, конфигурация, логгер.
// Конфигурация загружается в PersistentPreRunE корневой команды.
type App struct {
	configPath string
	jsonOutput bool
	logLevel   string
	logFormat  string

	server serverFlags

	cfg    *config.Config
	logger *slog.Logger
}

// serverFlags — параметры подключения из командной строки.
type serverFlags struct {
	file     string
	host     string
	port     int
	user     string
	password string
}

// NewRootCmd создаёт корневую команду deployer.
func NewRootCmd(version string) *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "deployer",
		Short:         "Deployer — runs deployment flows on remote hosts over SSH",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&app.configPath, "config", "c", "", "Config file (yaml, json or toml)")
	pf.BoolVar(&app.jsonOutput, "json", false, "Output in JSON format")
	pf.StringVar(&app.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or info)")
	pf.StringVar(&app.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(
		newConnectionCmd(app),
		newExecCmd(app),
		newFlowCmd(app),
		newPackageCmd(app),
		newRunCmd(app),
		newProgressCmd(app),
		newServeCmd(app),
	)

	return root
}

// addServerFlags регистрирует флаги подключения к серверу.
func (a *App) addServerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.server.file, "server", "s", "", "Server settings file")
	f.StringVar(&a.server.host, "host", "", "Server host")
	f.IntVarP(&a.server.port, "port", "p", domain.DefaultSSHPort, "SSH port")
	f.StringVarP(&a.server.user, "user", "u", "root", "SSH user")
	f.StringVar(&a.server.password, "password", "", "SSH password (default: $"+PasswordEnv+")")
	cmd.MarkFlagsMutuallyExclusive("server", "host")
}

func (a *App) init(cmd *cobra.Command) error {
	level := telemetry.LogLevel()
	if a.logLevel != "" {
		level = telemetry.ParseLevel(a.logLevel)
	}
	a.logger = telemetry.NewLogger(cmd.ErrOrStderr(), level, a.logFormat)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("config loaded", "cache_dir", cfg.CacheDir, "flows_dir", cfg.FlowsDir)
	return nil
}

// output создаёт Output, пишущий в потоки команды.
func (a *App) output(cmd *cobra.Command) *Output {
	return NewOutput(a.jsonOutput, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// serverSettings собирает параметры подключения из файла или флагов.
func (a *App) serverSettings() (*domain.ServerSettings, error) {
	var s *domain.ServerSettings
	if a.server.file != "" {
		loaded, err := config.LoadServerSettings(a.server.file)
		if err != nil {
			return nil, err
		}
		s = loaded
	} else {
		if a.server.host == "" {
			return nil, fmt.Errorf("%w: use --host or --server", config.ErrEmptyHost)
		}
		s = &domain.ServerSettings{
			Host:     a.server.host,
			Port:     a.server.port,
			Username: a.server.user,
			Password: a.server.password,
		}
	}
	if s.Password == "" {
		s.Password = os.Getenv(PasswordEnv)
	}
	return s, nil
}

// connect открывает SSH-сессию к серверу из флагов.
func (a *App) connect(ctx context.Context) (*session.Session, error) {
	s, err := a.serverSettings()
	if err != nil {
		return nil, err
	}

	a.logger.Info("connecting", "addr", s.Address(), "user", s.Username)

	return session.Connect(ctx, s.Username, s.Password, s.Address(),
		session.WithInactivityTimeout(a.cfg.SSH.InactivityTimeout),
		session.WithDialTimeout(a.cfg.SSH.DialTimeout),
		session.WithLogger(a.logger),
	)
}

// catalog загружает flows из каталога конфигурации.
func (a *App) catalog() (*engine.Catalog, error) {
	catalog, err := engine.LoadCatalog(engine.DirSource(a.cfg.FlowsDir))
	if err != nil {
		return nil, fmt.Errorf("load flows from %s: %w", a.cfg.FlowsDir, err)
	}
	a.logger.Debug("flows loaded", "dir", a.cfg.FlowsDir, "count", catalog.Len())
	return catalog, nil
}

// remote создаёт resolver сервера пакетов.
func (a *App) remote(baseURL string) *resolver.Remote {
	if baseURL == "" {
		baseURL = a.cfg.PackageBaseURL
	}
	return resolver.NewRemote(baseURL, download.New(download.Config{Logger: a.logger}))
}

// local создаёт resolver каталога офлайн-пакетов.
func (a *App) local(dir string) (*resolver.Local, error) {
	if dir == "" {
		dir = a.cfg.LocalPackageDir
	}
	if dir == "" {
		return nil, ErrNoLocalPackages
	}
	return resolver.NewLocal(dir, a.logger), nil
}

// resolver выбирает источник пакетов: офлайн-каталог, если он задан,
// иначе сервер пакетов.
func (a *App) resolver() resolver.Resolver {
	if a.cfg.LocalPackageDir != "" {
		local, _ := a.local(a.cfg.LocalPackageDir)
		return local
	}
	return a.remote("")
}

// registry создаёт реестр всех обработчиков шагов.
func (a *App) registry() *steps.Registry {
	return steps.DefaultRegistry(steps.Deps{
		Resolver:     a.resolver(),
		Decompressor: archive.NewTarGz(a.logger),
	})
}
