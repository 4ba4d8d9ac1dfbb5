package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

// Rule is a compliance predicate: a single JS function that receives a data
// product document and returns a boolean. The source is kept and recompiled
// into a fresh VM for every evaluation so rules cannot observe state from
// earlier calls or other rules.
type Rule struct {
	code string
}

// CompileRule checks that code parses and evaluates to a function. It does
// not call the function.
func CompileRule(code string) (*Rule, apperrors.Error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidRule.Msg("rule cannot be empty")
	}

	vm := goja.New()
	bindConsole(vm, &log.Logger)

	wrapped := "(" + code + ")"
	v, err := vm.RunString(wrapped)
	if err != nil {
		return nil, ErrInvalidRule.Err(err)
	}
	if _, ok := goja.AssertFunction(v); !ok {
		return nil, ErrInvalidRule.Msg("rule must be a single function")
	}

	return &Rule{code: code}, nil
}

// Eval runs the rule against one document and reports whether it passed.
// Anything abnormal, a thrown exception, a non-boolean return, or hitting
// the time budget, counts as a failure with a diagnostic message rather
// than an error: one misbehaving rule must not abort a whole run.
func (r *Rule) Eval(ctx context.Context, doc map[string]any, timeout time.Duration) (bool, string) {
	vm := goja.New()
	bindConsole(vm, log.Ctx(ctx))

	wrapped := "(" + r.code + ")"
	v, err := vm.RunString(wrapped)
	if err != nil {
		return false, "rule failed to compile: " + err.Error()
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return false, "rule is not a function"
	}

	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	var result goja.Value
	var callErr error

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				callErr = fmt.Errorf("panic: %v", rec)
			}
			close(done)
		}()
		result, callErr = fn(goja.Undefined(), vm.ToValue(doc))
	}()

	select {
	case <-ctx.Done():
		// Interrupt stops the VM so the goroutine always finishes.
		vm.Interrupt("rule evaluation timed out")
		<-done
		return false, "rule evaluation timed out after " + timeout.String()
	case <-done:
	}

	if callErr != nil {
		if jsErr, ok := callErr.(*goja.Exception); ok {
			return false, "rule threw: " + jsErr.Value().String()
		}
		return false, "rule evaluation failed: " + callErr.Error()
	}

	exported := result.Export()
	passed, ok := exported.(bool)
	if !ok {
		return false, fmt.Sprintf("rule returned %T, want boolean", exported)
	}
	if !passed {
		return false, "rule returned false"
	}
	return true, ""
}

func bindConsole(vm *goja.Runtime, logger *zerolog.Logger) {
	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = fmt.Sprint(arg.Export())
		}
		logger.Debug().Str("source", "rule").Msg(strings.Join(args, " "))
		return goja.Undefined()
	})
	_ = vm.Set("console", console)
}
