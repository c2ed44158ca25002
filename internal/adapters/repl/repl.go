// Package repl implements the interactive command prompt: one line per
// command, pushed onto the EventQueue for the worker to consume except for
// view, strategy and contract strategy-assignment commands, which run
// synchronously on the reader thread.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/application/strategy"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/logging"
)

// typeWords maps the REPL's plural/lowercase command words to the event
// vocabulary's Type constants.
var typeWords = map[string]event.Type{
	"ships":     event.TypeShip,
	"contracts": event.TypeContract,
	"agent":     event.TypeAgent,
	"system":    event.TypeSystem,
	"view":      event.TypeView,
	"strategy":  event.TypeStrategy,
	"default":   event.TypeDefault,
}

// REPL reads commands from in and either enqueues them on Params.Queue (the
// normal path) or, for "view"/"strategy" lines and "contracts
// assign_strategy_*"/"contracts strategy" lines, dispatches them directly on
// this goroutine, bypassing the worker.
type REPL struct {
	params      *globalparams.Params
	viewHandler *registry.Registry
	strategies  *strategy.Registry
	out         io.Writer
}

// New builds a REPL over params. viewHandler resolves VIEW.* commands
// synchronously; strategies resolves STRATEGY.*/CONTRACT.assign_strategy_*
// commands synchronously.
func New(params *globalparams.Params, viewHandler *registry.Registry, strategies *strategy.Registry, out io.Writer) *REPL {
	return &REPL{params: params, viewHandler: viewHandler, strategies: strategies, out: out}
}

// RunAutorun pushes every non-blank, non-comment line from r in order onto
// the queue. A missing autorun file is not an error; the caller decides
// whether to open one at all.
func (repl *REPL) RunAutorun(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		repl.handleLine(ctx, line)
	}
}

// Run reads lines from in until EOF or a "default exit" command, returning
// when the shutdown command has been processed.
func (repl *REPL) Run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if repl.handleLine(ctx, line) {
			return
		}
	}
}

// handleLine parses and routes one command line, returning true if it was
// the shutdown command.
func (repl *REPL) handleLine(ctx context.Context, line string) bool {
	logger := logging.FromContext(ctx)
	fields := strings.Fields(line)
	if len(fields) < 2 {
		logger.Warn("repl: malformed line, expected '<type> <name> [args...]'", map[string]interface{}{"line": line})
		return false
	}

	typeWord, name := fields[0], fields[1]
	t, ok := typeWords[typeWord]
	if !ok {
		logger.Warn("repl: unrecognized event type", map[string]interface{}{"type": typeWord, "line": line})
		return false
	}

	args := parseArgs(fields[2:])

	if t == event.TypeDefault && name == "exit" {
		repl.params.Queue.PutNew(event.TypeDefault, "exit")
		return true
	}

	switch t {
	case event.TypeView:
		result, err := repl.viewHandler.Dispatch(ctx, repl.params, event.Event{Type: t, Name: name, Args: args})
		if err != nil {
			fmt.Fprintf(repl.out, "! view %s failed: %v\n", name, err)
		}
		_ = result
		return false
	case event.TypeStrategy:
		if err := repl.strategies.Dispatch(string(t), name, args); err != nil {
			fmt.Fprintf(repl.out, "! strategy %s failed: %v\n", name, err)
		}
		return false
	case event.TypeContract:
		if strings.HasPrefix(name, "assign_strategy_") || name == "strategy" {
			if err := repl.strategies.Dispatch(string(t), name, args); err != nil {
				fmt.Fprintf(repl.out, "! contract %s failed: %v\n", name, err)
			}
			return false
		}
	}

	ev := repl.params.Queue.PutNew(t, name, args...)
	fmt.Fprintf(repl.out, "> queued %s.%s (id=%d)\n", t, name, ev.ID)
	return false
}

// parseArgs converts positional REPL tokens into typed args: integers
// parse as int, everything else stays a string.
func parseArgs(tokens []string) []interface{} {
	args := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		if n, err := strconv.Atoi(tok); err == nil {
			args[i] = n
		} else {
			args[i] = tok
		}
	}
	return args
}
