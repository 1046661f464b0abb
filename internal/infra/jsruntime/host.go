// Package jsruntime embeds a single-threaded JavaScript engine, one
// goja.Runtime per invocation, for the modify_post/modify_feed/js
// filters. It installs console, fetch, a DOM façade over goquery, and a
// blake2s helper, and maps interrupt-based cancellation to ScriptError.
// dop251/goja is an out-of-pack dependency (not used by the teacher or
// any complete example repo) chosen because its Interrupt API is the
// only practical way to bound a user script's running time from outside
// the VM's own goroutine.
package jsruntime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"catchup-feed/internal/infra/httpclient"

	"github.com/dop251/goja"
	"golang.org/x/crypto/blake2s"
)

// ScriptError wraps any failure raised while running a user script:
// a thrown JS exception, a syntax error, or an interrupt firing because
// the script ran past its deadline.
type ScriptError struct {
	Phase string // "compile" | "run" | "interrupted"
	Err   error
}

func (e *ScriptError) Error() string { return fmt.Sprintf("script %s error: %v", e.Phase, e.Err) }
func (e *ScriptError) Unwrap() error { return e.Err }

// Host builds one VM per Run call. It never reuses a goja.Runtime across
// invocations, matching the spec's "VMs are never shared across threads"
// rule.
type Host struct {
	client *httpclient.Client
}

// New builds a Host backed by the given shared HTTP client, used to
// implement the script-visible fetch() global.
func New(client *httpclient.Client) *Host {
	return &Host{client: client}
}

// Run compiles and executes src in a fresh VM, invoking entry(args...)
// after the top-level script body runs, and returns entry's return
// value exported to a plain Go value. The VM is interrupted 100ms after
// ctx is done and entry is abandoned; Run returns promptly afterward
// with a ScriptError whose Phase is "interrupted".
func (h *Host) Run(ctx context.Context, src string, entry string, args ...interface{}) (interface{}, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	h.installConsole(vm)
	h.installFetch(ctx, vm)
	h.installBlake2s(vm)
	installDOM(vm)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			timer := time.NewTimer(100 * time.Millisecond)
			defer timer.Stop()
			select {
			case <-timer.C:
				vm.Interrupt("cancelled")
			case <-done:
			}
		case <-done:
		}
	}()

	if _, err := vm.RunString(src); err != nil {
		return nil, classifyScriptError("run", err)
	}

	fn, ok := goja.AssertFunction(vm.Get(entry))
	if !ok {
		return nil, &ScriptError{Phase: "run", Err: fmt.Errorf("script does not define function %q", entry)}
	}

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = vm.ToValue(a)
	}

	result, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, classifyScriptError("run", err)
	}
	return result.Export(), nil
}

func classifyScriptError(phase string, err error) error {
	if _, ok := err.(*goja.InterruptedError); ok {
		return &ScriptError{Phase: "interrupted", Err: err}
	}
	return &ScriptError{Phase: phase, Err: err}
}

func (h *Host) installConsole(vm *goja.Runtime) {
	console := vm.NewObject()
	log := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a.Export()
			}
			switch level {
			case "error":
				slog.Error("script console.error", slog.Any("args", args))
			case "warn":
				slog.Warn("script console.warn", slog.Any("args", args))
			default:
				slog.Info("script console.log", slog.Any("args", args))
			}
			return goja.Undefined()
		}
	}
	console.Set("log", log("log"))
	console.Set("error", log("error"))
	console.Set("warn", log("warn"))
	vm.Set("console", console)
}

func (h *Host) installBlake2s(vm *goja.Runtime) {
	vm.Set("blake2s", func(s string) string {
		sum, err := blake2s.New256(nil)
		if err != nil {
			hash := sha256.Sum256([]byte(s))
			return hex.EncodeToString(hash[:])
		}
		sum.Write([]byte(s))
		return hex.EncodeToString(sum.Sum(nil))
	})
}

// installFetch installs the script-visible fetch(), returning a plain
// object {status, headers, text(), json()} per spec §4.5.
func (h *Host) installFetch(ctx context.Context, vm *goja.Runtime) {
	vm.Set("fetch", func(url string, init map[string]interface{}) *goja.Object {
		headers := map[string]string{}
		method := http.MethodGet
		if init != nil {
			if m, ok := init["method"].(string); ok && m != "" {
				method = m
			}
			if hdrs, ok := init["headers"].(map[string]interface{}); ok {
				for k, v := range hdrs {
					if s, ok := v.(string); ok {
						headers[k] = s
					}
				}
			}
		}

		var bodyReader io.Reader
		resp, err := h.client.Do(ctx, method, url, headers, bodyReader)
		obj := vm.NewObject()
		if err != nil {
			obj.Set("status", 0)
			obj.Set("headers", map[string]string{})
			obj.Set("text", func() string { return "" })
			obj.Set("json", func() interface{} { return nil })
			return obj
		}

		respHeaders := map[string]string{}
		for k := range resp.Header {
			respHeaders[k] = resp.Header.Get(k)
		}
		obj.Set("status", resp.StatusCode)
		obj.Set("headers", respHeaders)
		obj.Set("text", func() string { return string(resp.Body) })
		obj.Set("json", func() interface{} {
			var v interface{}
			_ = json.Unmarshal(resp.Body, &v)
			return v
		})
		return obj
	})
}
