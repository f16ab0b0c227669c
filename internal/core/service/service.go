package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"typed-kv-service/internal/core/ports"
	"typed-kv-service/internal/observability"
)

// ensure implementation
var _ ports.CommandService = (*ServiceImpl)(nil)

type ServiceImpl struct {
	keyspace ports.Keyspace
	commands map[string]command
}

func New(keyspace ports.Keyspace) *ServiceImpl {
	return &ServiceImpl{
		keyspace: keyspace,
		commands: commandTable(),
	}
}

// Execute runs one command line. args[0] is the command name in any case.
// Arity is checked before the handler runs; read commands feed the
// hit/miss counters.
func (s *ServiceImpl) Execute(ctx context.Context, args []string) (ports.Reply, error) {
	if err := ctx.Err(); err != nil {
		return ports.Reply{}, err
	}
	if len(args) == 0 {
		return ports.Reply{}, fmt.Errorf("%w: empty command", ErrSyntax)
	}

	name := strings.ToLower(args[0])
	cmd, ok := s.commands[name]
	if !ok {
		observability.CommandsTotal.WithLabelValues("unknown", "error").Inc()
		return ports.Reply{}, fmt.Errorf("%w '%s'", ErrUnknownCommand, args[0])
	}
	if !cmd.accepts(len(args)) {
		observability.CommandsTotal.WithLabelValues(name, "error").Inc()
		return ports.Reply{}, wrongArgs(name)
	}

	start := time.Now()
	reply, err := cmd.handler(s.keyspace, args)
	observability.CommandDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.CommandsTotal.WithLabelValues(name, "error").Inc()
		return ports.Reply{}, err
	}
	observability.CommandsTotal.WithLabelValues(name, "success").Inc()
	if cmd.read {
		if reply.Kind == ports.NilReply {
			observability.KeyspaceMissesTotal.Inc()
		} else {
			observability.KeyspaceHitsTotal.Inc()
		}
	}
	return reply, nil
}

// Commands lists the supported command names, sorted.
func (s *ServiceImpl) Commands() []string {
	return sortedNames(s.commands)
}
