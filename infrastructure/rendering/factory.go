package rendering

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"archviz/application/ports"
)

// Backends
const (
	BackendProcess = "process"
	BackendRemote  = "remote"
)

// Options selects and configures a renderer backend
type Options struct {
	Backend   string
	Command   string
	Args      []string
	RemoteURL string
	Breaker   BreakerSettings
}

// New builds the renderer named by opts.Backend
func New(opts Options, limits *Limits, logger *zap.Logger) (ports.Renderer, error) {
	switch opts.Backend {
	case BackendProcess, "":
		if opts.Command == "" {
			return nil, fmt.Errorf("process renderer requires a command")
		}
		return NewProcessRenderer(opts.Command, opts.Args, limits, logger), nil
	case BackendRemote:
		if opts.RemoteURL == "" {
			return nil, fmt.Errorf("remote renderer requires a url")
		}
		return NewRemoteRenderer(opts.RemoteURL, &http.Client{Transport: http.DefaultTransport}, limits, opts.Breaker, logger), nil
	default:
		return nil, fmt.Errorf("unknown renderer backend %q", opts.Backend)
	}
}
