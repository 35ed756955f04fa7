// Package session реализует подключение к удалённому хосту по SSH.
//
// Session владеет одним аутентифицированным SSH-соединением и выполняет
// операции строго последовательно: каждая команда открывает свой exec-канал,
// каждая передача файла — свой канал с подсистемой SFTP, который закрывается
// до возврата из TransferFile. Одновременный вызов операций на одной
// Session не поддерживается.
//
// Поддерживается только аутентификация по паролю. Ключ сервера не проверяется.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/shaiso/Deployer/internal/progress"
	"github.com/shaiso/Deployer/internal/transfer"
)

// Значения по умолчанию.
const (
	DefaultInactivityTimeout = 5 * time.Minute
	DefaultDialTimeout       = 15 * time.Second
)

// OSProbeCommand — команда определения ОС удалённого хоста.
// Результат (в нижнем регистре) доступен в шаблонах как .OS.
const OSProbeCommand = `cat /etc/os-release | grep PRETTY_NAME | cut -d '=' -f 2 | tr -d '"'`

// Session — сессия SSH к одному удалённому хосту.
type Session struct {
	client *ssh.Client
	addr   string
	logger *slog.Logger
}

type options struct {
	inactivityTimeout time.Duration
	dialTimeout       time.Duration
	logger            *slog.Logger
}

// Option настраивает Connect.
type Option func(*options)

// WithInactivityTimeout задаёт таймаут бездействия соединения.
// 0 отключает таймаут.
func WithInactivityTimeout(d time.Duration) Option {
	return func(o *options) { o.inactivityTimeout = d }
}

// WithDialTimeout задаёт таймаут установки TCP-соединения.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithLogger задаёт логгер сессии.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Connect подключается к address и аутентифицируется паролем.
//
// Возвращает ErrAuthenticationFailed, если сервер отклонил пароль;
// остальные ошибки транспорта возвращаются обёрнутыми.
func Connect(ctx context.Context, username, password, address string, opts ...Option) (*Session, error) {
	o := options{
		inactivityTimeout: DefaultInactivityTimeout,
		dialTimeout:       DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	dialer := net.Dialer{Timeout: o.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	config := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	// Handshake не принимает context: закрываем соединение при отмене.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c, chans, reqs, err := ssh.NewClientConn(newIdleConn(conn, o.inactivityTimeout), address, config)
	close(done)
	if err != nil {
		conn.Close()
		if isAuthError(err) {
			return nil, ErrAuthenticationFailed
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ssh handshake with %s: %w", address, ctx.Err())
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", address, err)
	}

	o.logger.Debug("ssh session established", "addr", address, "user", username)

	return &Session{
		client: ssh.NewClient(c, chans, reqs),
		addr:   address,
		logger: o.logger,
	}, nil
}

// isAuthError распознаёт отказ в аутентификации.
// x/crypto/ssh не экспортирует отдельный тип для этой ошибки.
func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}

// Addr возвращает адрес удалённого хоста.
func (s *Session) Addr() string {
	return s.addr
}

// Execute выполняет команду и возвращает её stdout.
//
// Успех — только при коде завершения 0. Ненулевой код даёт *CommandError,
// отсутствие кода — ErrCommandTimeout.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	var stdout bytes.Buffer
	if err := s.run(ctx, command, &stdout); err != nil {
		return "", err
	}
	return strings.ToValidUTF8(stdout.String(), "�"), nil
}

// ExecuteStream выполняет команду, передавая каждый фрагмент stdout
// в sink сразу по получении. Вывод не накапливается.
func (s *Session) ExecuteStream(ctx context.Context, command string, sink progress.Sink) error {
	return s.run(ctx, command, &sinkWriter{ctx: ctx, sink: progress.OrNop(sink)})
}

// Test выполняет команду и возвращает true, если код завершения равен 0.
// Вывод команды отбрасывается.
func (s *Session) Test(ctx context.Context, command string) (bool, error) {
	err := s.run(ctx, command, io.Discard)
	switch {
	case err == nil:
		return true, nil
	case IsCommandError(err):
		return false, nil
	default:
		return false, err
	}
}

// TransferFile записывает data в файл dir/filename на удалённом хосте.
//
// Каталог создаётся через mkdir -p. Для передачи открывается отдельный
// канал SFTP, который закрывается до возврата из метода. Прогресс
// передаётся в sink после каждой порции (см. transfer.Write).
func (s *Session) TransferFile(ctx context.Context, dir, filename string, data []byte, sink progress.Sink) error {
	if _, err := s.Execute(ctx, "mkdir -p "+Quote(dir)); err != nil {
		return fmt.Errorf("create remote dir %s: %w", dir, err)
	}

	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("open sftp subsystem: %w", err)
	}
	defer client.Close()

	target := path.Join(dir, filename)
	file, err := client.Create(target)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", target, err)
	}

	if err := transfer.Write(ctx, file, data, sink); err != nil {
		file.Close()
		return fmt.Errorf("transfer %s: %w", target, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close remote file %s: %w", target, err)
	}

	s.logger.Debug("file transferred", "target", target, "bytes", len(data))

	return client.Close()
}

// Close закрывает соединение.
func (s *Session) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close ssh session: %w", err)
	}
	return nil
}

// run открывает exec-канал, выполняет команду и ждёт код завершения.
func (s *Session) run(ctx context.Context, command string, stdout io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("open exec channel: %w", err)
	}
	defer sess.Close()

	var stderr bytes.Buffer
	sess.Stdout = stdout
	sess.Stderr = &stderr

	stop := context.AfterFunc(ctx, func() { sess.Close() })
	defer stop()

	err = sess.Run(command)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	return exitError(err, stderr.String())
}

// exitError переводит ошибку x/crypto/ssh в ошибки пакета.
func exitError(err error, stderr string) error {
	if err == nil {
		return nil
	}

	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return ErrCommandTimeout
	}

	var exit *ssh.ExitError
	if errors.As(err, &exit) {
		detail := exit.Msg()
		if detail == "" {
			detail = strings.TrimSpace(strings.ToValidUTF8(stderr, "�"))
		}
		if detail == "" {
			detail = unknownDetail
		}
		return &CommandError{ExitStatus: exit.ExitStatus(), Detail: detail}
	}

	return fmt.Errorf("run command: %w", err)
}

// sinkWriter передаёт каждую запись в progress.Sink.
type sinkWriter struct {
	ctx  context.Context
	sink progress.Sink
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	w.sink.Output(w.ctx, chunk)
	return len(p), nil
}

// Quote заключает строку в одинарные кавычки для sh.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
