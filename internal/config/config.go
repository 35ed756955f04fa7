// Package config загружает конфигурацию deployer и файлы настроек.
//
// Источники по приоритету: переменные окружения DEPLOYER_*,
// файл конфигурации (YAML/JSON/TOML), значения по умолчанию.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/resolver"
	"github.com/shaiso/Deployer/internal/session"
)

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "DEPLOYER"

// ErrEmptyHost — в настройках сервера не задан хост.
var ErrEmptyHost = errors.New("server host is empty")

// Config — конфигурация deployer.
type Config struct {
	// CacheDir — корень локального кэша пакетов.
	CacheDir string `mapstructure:"cache_dir"`

	// FlowsDir — каталог с документами flow.
	FlowsDir string `mapstructure:"flows_dir"`

	// PackageBaseURL — адрес сервера пакетов.
	PackageBaseURL string `mapstructure:"package_base_url"`

	// LocalPackageDir — каталог офлайн-пакетов. Если задан,
	// пакеты берутся из него, а не с сервера пакетов.
	LocalPackageDir string `mapstructure:"local_package_dir"`

	SSH SSHConfig `mapstructure:"ssh"`

	// DBURL — строка подключения к PostgreSQL. Пустая — история выключена.
	DBURL string `mapstructure:"db_url"`

	// RabbitMQURL — адрес RabbitMQ. Пустой — события не публикуются.
	RabbitMQURL string `mapstructure:"rabbitmq_url"`

	// MetricsAddr — адрес /metrics. Пустой — метрики не отдаются.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// SSHConfig — параметры SSH-соединения.
type SSHConfig struct {
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
}

// Load читает конфигурацию. path может быть пустым.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("flows_dir", "flows")
	v.SetDefault("package_base_url", resolver.DefaultBaseURL)
	v.SetDefault("local_package_dir", "")
	v.SetDefault("ssh.inactivity_timeout", session.DefaultInactivityTimeout)
	v.SetDefault("ssh.dial_timeout", session.DefaultDialTimeout)
	v.SetDefault("db_url", "")
	v.SetDefault("rabbitmq_url", "")
	v.SetDefault("metrics_addr", "")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "deployer")
	}
	return filepath.Join(dir, "deployer")
}

// LoadServerSettings читает настройки подключения к серверу.
func LoadServerSettings(path string) (*domain.ServerSettings, error) {
	var s domain.ServerSettings
	if err := readFile(path, &s); err != nil {
		return nil, err
	}
	if s.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyHost, path)
	}
	return &s, nil
}

// LoadHospitalSettings читает настройки площадки.
func LoadHospitalSettings(path string) (*domain.HospitalSettings, error) {
	var s domain.HospitalSettings
	if err := readFile(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// readFile читает файл настроек в out. Формат определяется по расширению.
func readFile(path string, out any) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode settings %s: %w", path, err)
	}
	return nil
}
