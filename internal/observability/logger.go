package observability

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// NewLogger builds the root logger. Components derive named children from it.
func NewLogger(out io.Writer, level string, json bool) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "kvstore",
		Level:      hclog.LevelFromString(level),
		Output:     out,
		JSONFormat: json,
	})
}
