package resolver

import (
	"context"
	"strings"

	"github.com/shaiso/Deployer/internal/progress"
)

// DefaultBaseURL — адрес сервера пакетов по умолчанию.
const DefaultBaseURL = "http://192.168.10.207:5959/packages/"

// Fetcher загружает url в файл.
// Реализуется download.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url, target string, sink progress.Sink) error
}

// Remote загружает пакеты с сервера пакетов: URL = BaseURL + имя пакета.
type Remote struct {
	baseURL string
	fetcher Fetcher
}

// NewRemote создаёт Remote. Пустой baseURL заменяется на DefaultBaseURL.
func NewRemote(baseURL string, fetcher Fetcher) *Remote {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Remote{baseURL: baseURL, fetcher: fetcher}
}

// URL возвращает адрес пакета.
func (r *Remote) URL(packageName string) string {
	return r.baseURL + strings.TrimPrefix(packageName, "/")
}

// Resolve реализует Resolver.
func (r *Remote) Resolve(ctx context.Context, packageName, targetFile string, sink progress.Sink) error {
	return r.fetcher.Fetch(ctx, r.URL(packageName), targetFile, sink)
}
