package steps

import (
	"context"
	"strings"
	"sync"

	"github.com/shaiso/Deployer/internal/progress"
)

type transferCall struct {
	dir      string
	filename string
	data     []byte
}

// fakeSession записывает вызовы и отвечает заранее заданным выводом.
type fakeSession struct {
	mu        sync.Mutex
	outputs   map[string]string
	failing   map[string]error
	commands  []string
	streams   []string
	transfers []transferCall
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		outputs: make(map[string]string),
		failing: make(map[string]error),
	}
}

func (f *fakeSession) Execute(_ context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	for prefix, err := range f.failing {
		if strings.HasPrefix(command, prefix) {
			return "", err
		}
	}
	return f.outputs[command], nil
}

func (f *fakeSession) ExecuteStream(ctx context.Context, command string, sink progress.Sink) error {
	f.mu.Lock()
	f.streams = append(f.streams, command)
	f.mu.Unlock()
	sink.Output(ctx, []byte("ran: "+command))
	return nil
}

func (f *fakeSession) Test(_ context.Context, command string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	return false, nil
}

func (f *fakeSession) TransferFile(ctx context.Context, dir, filename string, data []byte, sink progress.Sink) error {
	f.mu.Lock()
	f.transfers = append(f.transfers, transferCall{dir: dir, filename: filename, data: append([]byte(nil), data...)})
	f.mu.Unlock()
	sink.Progress(ctx, progress.NewEvent(int64(len(data)), int64(len(data))))
	return nil
}
