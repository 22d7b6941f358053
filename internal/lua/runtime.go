// Package lua embeds a sandboxed interpreter for custom table scrapers: a
// deployment can point the pipeline at a listing we ship no fetcher for by
// providing a script that returns the table shape the validation gates
// expect.
package lua

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cjoudrey/gluahttp"
	lua "github.com/yuin/gopher-lua"
	json "layeh.com/gopher-json"
)

type Runtime struct {
	state *lua.LState
}

// NewRuntime builds a hardened interpreter with the http and json modules
// preloaded. Filesystem and process access are stripped; scripts get the
// network through the preloaded http module only.
func NewRuntime() *Runtime {
	L := lua.NewState()

	r := &Runtime{state: L}
	r.setupSecureState()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	L.PreloadModule("http", gluahttp.NewHttpModule(httpClient).Loader)
	json.Preload(L)

	return r
}

func (r *Runtime) setupSecureState() {
	r.state.SetGlobal("os", lua.LNil)
	r.state.SetGlobal("io", lua.LNil)
	r.state.SetGlobal("debug", lua.LNil)
	r.state.SetGlobal("dofile", lua.LNil)
	r.state.SetGlobal("loadfile", lua.LNil)
}

func (r *Runtime) LoadScript(scriptContent string) error {
	if err := r.state.DoString(scriptContent); err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	return nil
}

// Execute calls a global function defined by the loaded script and converts
// its return values to Go types.
func (r *Runtime) Execute(functionName string, args ...interface{}) ([]interface{}, error) {
	fn := r.state.GetGlobal(functionName)
	if fn == lua.LNil {
		return nil, fmt.Errorf("function %s not found", functionName)
	}

	luaFn, ok := fn.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", functionName)
	}

	r.state.Push(luaFn)
	for _, arg := range args {
		r.state.Push(toLuaValue(r.state, arg))
	}

	if err := r.state.PCall(len(args), lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("lua execution error: %w", err)
	}

	numResults := r.state.GetTop()
	results := make([]interface{}, numResults)
	for i := 1; i <= numResults; i++ {
		results[i-1] = toGoValue(r.state.Get(i))
	}

	r.state.SetTop(0)

	return results, nil
}

func (r *Runtime) Close() error {
	if r.state != nil {
		r.state.Close()
	}
	return nil
}
