package scribe

import (
	"context"
	"runtime"

	"github.com/colonyops/scribe/pkg/executil"
)

// Browser opens URLs with the platform's default handler.
type Browser struct {
	exec executil.Executor
	goos string
}

// NewBrowser returns a Browser that runs the opener through exec.
func NewBrowser(exec executil.Executor) *Browser {
	return &Browser{exec: exec, goos: runtime.GOOS}
}

// Open launches url. The opener command returns once the handler has the URL.
func (b *Browser) Open(ctx context.Context, url string) error {
	name, args := openCommand(b.goos, url)
	_, err := b.exec.Run(ctx, name, args...)
	return err
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
