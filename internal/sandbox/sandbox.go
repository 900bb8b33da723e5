// Package sandbox implements the restricted dynamic-page execution
// environment (spec.md C9) on top of goja, the pure-Go ECMAScript VM used
// elsewhere in the example corpus for embedding a scriptable tracer inside
// a host process (the same "untrusted script, trusted host" shape).
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/httptim/rednet-core/internal/handlers"
	"github.com/httptim/rednet-core/internal/pool"
)

// stdoutPool recycles the per-execution output buffer; every caller
// returns it before reuse, after the run goroutine has fully unwound
// (Execute always waits on done before either returning or looping).
var stdoutPool = pool.New(func() *strings.Builder { return &strings.Builder{} })

// Request is the dynamic-page request handle bound into the script's
// global scope. It is the same shape Handlers (C8) builds, so Sandbox
// satisfies handlers.Sandbox directly with no adapter glue.
type Request = handlers.DynamicRequest

// Config bounds sandbox execution (spec.md §4.9).
type Config struct {
	Timeout time.Duration // wall-clock execution budget; default 2s
}

// Sandbox runs untrusted page scripts with no access to host filesystem,
// process control, raw network, or peripheral I/O — the VM exposes only
// deterministic math, string/list/map builtins, time-of-day, JSON
// serialization, and a request/response handle.
type Sandbox struct {
	cfg Config
}

// New creates a sandbox with the given execution budget.
func New(cfg Config) *Sandbox {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Sandbox{cfg: cfg}
}

// Execute runs code with req bound as the global `request` object,
// returning whatever the script writes via print()/the implicit return
// value. It never lets a host-level panic or goja stack trace escape:
// every failure mode is normalized to a short string (spec.md §4.9).
func (s *Sandbox) Execute(ctx context.Context, code string, req Request) (ok bool, output string, errMsg string) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	stdout := stdoutPool.Get()
	stdout.Reset()
	defer func() {
		stdoutPool.Put(stdout)
	}()
	if err := bindCapabilities(vm, req, stdout); err != nil {
		return false, "", fmt.Sprintf("sandbox setup error: %v", err)
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if dl, hasDeadline := ctx.Deadline(); hasDeadline && dl.Before(deadline) {
		deadline = dl
	}

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := vm.RunString(code)
		done <- runResult{value: v, err: err}
	}()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return false, "", normalizeError(res.err)
		}
		return true, renderOutput(stdout.String(), res.value), ""
	case <-timer.C:
		vm.Interrupt("timeout")
		<-done // wait for the goroutine to unwind after interrupt
		return false, "", "timeout"
	case <-ctx.Done():
		vm.Interrupt("cancelled")
		<-done
		return false, "", "cancelled"
	}
}

type runResult struct {
	value goja.Value
	err   error
}

func renderOutput(captured string, returned goja.Value) string {
	if captured != "" {
		return captured
	}
	if returned == nil || goja.IsUndefined(returned) || goja.IsNull(returned) {
		return ""
	}
	return returned.String()
}

// normalizeError strips goja's internal error types down to a short
// message — page scripts must never see host stack traces.
func normalizeError(err error) string {
	if exc, ok := err.(*goja.Exception); ok {
		return exc.Value().String()
	}
	msg := err.Error()
	if idx := strings.Index(msg, "\n"); idx >= 0 {
		msg = msg[:idx]
	}
	return msg
}

// bindCapabilities installs the sandbox's allow-listed globals: math,
// string/list/map helpers are goja builtins already; here we add time,
// JSON-ish serialization, print capture, and the request/response handle.
// Host filesystem, process, and network APIs are simply never bound, so
// scripts cannot reach them.
func bindCapabilities(vm *goja.Runtime, req Request, stdout *strings.Builder) error {
	if err := vm.Set("request", map[string]any{
		"url": req.URL, "method": req.Method, "params": req.Params,
		"headers": req.Headers, "cookies": req.Cookies, "body": string(req.Body),
	}); err != nil {
		return err
	}

	var mu sync.Mutex
	print := func(call goja.FunctionCall) goja.Value {
		mu.Lock()
		defer mu.Unlock()
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		stdout.WriteString(strings.Join(parts, " "))
		stdout.WriteString("\n")
		return goja.Undefined()
	}
	if err := vm.Set("print", print); err != nil {
		return err
	}

	now := func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(time.Now().UTC().Format(time.RFC3339))
	}
	return vm.Set("now", now)
}
