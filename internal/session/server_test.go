package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

const (
	testUser     = "deploy"
	testPassword = "secret"
)

// execResult описывает, чем сервер отвечает на exec.
type execResult struct {
	status   int
	noStatus bool
	signal   string
	message  string
}

type execHandler func(command string, stdout, stderr io.Writer) execResult

// testServer — SSH-сервер в памяти процесса с exec и подсистемой SFTP.
// SFTP работает с локальной файловой системой.
type testServer struct {
	addr    string
	handler execHandler

	mu       sync.Mutex
	commands []string
}

func newTestServer(t *testing.T, handler execHandler) *testServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPassword {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", c.User())
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &testServer{addr: ln.Addr().String(), handler: handler}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serveConn(conn, config)
		}
	}()

	return s
}

func (s *testServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *testServer) serveConn(nc net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(nc, config)
	if err != nil {
		nc.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go s.serveSession(ch, chReqs)
	}
}

func (s *testServer) serveSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer ch.Close()

	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				req.Reply(false, nil)
				return
			}
			req.Reply(true, nil)

			s.mu.Lock()
			s.commands = append(s.commands, payload.Command)
			s.mu.Unlock()

			res := s.handler(payload.Command, ch, ch.Stderr())
			if res.signal != "" {
				ch.SendRequest("exit-signal", false, ssh.Marshal(struct {
					Signal     string
					CoreDumped bool
					Error      string
					Lang       string
				}{res.signal, false, res.message, ""}))
			}
			if !res.noStatus {
				ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(res.status)}))
			}
			return

		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				req.Reply(false, nil)
				continue
			}
			req.Reply(true, nil)

			go ssh.DiscardRequests(reqs)
			server, err := sftp.NewServer(ch)
			if err != nil {
				return
			}
			server.Serve()
			server.Close()
			return

		default:
			req.Reply(false, nil)
		}
	}
}

// shellHandler понимает mkdir -p и несколько фиксированных команд.
func shellHandler(command string, stdout, stderr io.Writer) execResult {
	switch {
	case strings.HasPrefix(command, "mkdir -p "):
		dir := strings.Trim(strings.TrimPrefix(command, "mkdir -p "), "'")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintln(stderr, err)
			return execResult{status: 1}
		}
		return execResult{}

	case command == OSProbeCommand:
		fmt.Fprintln(stdout, "Ubuntu 22.04.4 LTS")
		return execResult{}

	case command == "echo hello":
		fmt.Fprintln(stdout, "hello")
		return execResult{}

	case command == "stream":
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(stdout, "line %d\n", i)
		}
		return execResult{}

	case command == "fail-stderr":
		fmt.Fprint(stderr, "permission denied\n")
		return execResult{status: 1}

	case command == "fail-silent":
		return execResult{status: 2}

	case command == "killed":
		return execResult{noStatus: true, signal: "KILL", message: "killed by oom"}

	case command == "hang-up":
		fmt.Fprintln(stdout, "partial")
		return execResult{noStatus: true}

	case command == "true":
		return execResult{}

	default:
		fmt.Fprintf(stderr, "sh: %s: not found\n", command)
		return execResult{status: 127}
	}
}
