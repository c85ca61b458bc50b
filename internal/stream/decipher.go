package stream

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// DecipherFunction is an opaque callable derived from a player script: it
// transforms a ciphered "s=" value into a valid "signature=" value.
type DecipherFunction func(cipher string) (string, error)

// decipherCache is the process-wide, injectable singleton spec.md §9
// requires ("keep that shape but make the singletons explicit and
// injectable for tests"), keyed by player-script URL.
type decipherCache struct {
	mu    sync.Mutex
	funcs map[string]DecipherFunction
}

func newDecipherCache() *decipherCache {
	return &decipherCache{funcs: make(map[string]DecipherFunction)}
}

// defaultDecipherCache is the package-level singleton used by Resolver
// instances that don't inject their own cache.
var defaultDecipherCache = newDecipherCache()

func (c *decipherCache) get(playerURL string) (DecipherFunction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, ok := c.funcs[playerURL]
	return fn, ok
}

func (c *decipherCache) set(playerURL string, fn DecipherFunction) {
	c.mu.Lock()
	c.funcs[playerURL] = fn
	c.mu.Unlock()
}

// sigFuncPattern finds the decipher function's name. The original matches
// `.sig||NAME(` with a lookahead for the call parenthesis; RE2 (used by
// Go's regexp package) has no lookahead, so the parenthesis is captured
// directly instead of asserted.
var sigFuncPattern = regexp.MustCompile(`\.sig\|\|([\w$]+)\(`)

// extractDecipherSource locates the decipher function's name, its
// preceding helper `var` declaration, and its body inside a player
// script, the way _q_onPlayerJSLoaded does via QString::section calls; a
// helper declaration that opens the script (no ";" before its "var") is
// also accepted.
func extractDecipherSource(playerJS string) (funcName, source string, ok bool) {
	m := sigFuncPattern.FindStringSubmatch(playerJS)
	if m == nil {
		return "", "", false
	}
	funcName = m[1]
	marker := "function " + funcName

	prefix := sectionFirst(playerJS, marker)
	helperVar := sectionLast(prefix, ";var")
	if !strings.Contains(prefix, ";var") {
		helperVar = strings.TrimPrefix(prefix, "var")
	}

	afterMarker := sectionAfterFirst(playerJS, marker)
	bodyTail := sectionFirst(afterMarker, ";function")

	funcBody := fmt.Sprintf("function %s%s", funcName, bodyTail)
	source = fmt.Sprintf("var%s %s", helperVar, funcBody)
	return funcName, source, true
}

// compileDecipherFunction evaluates source — "var <helpers>; function
// <name>(...) {...}" — in a fresh goja runtime with no I/O or network
// bindings, per spec.md §9's sandboxing requirement, and returns a Go
// closure over the resulting callable.
func compileDecipherFunction(funcName, source string) (DecipherFunction, error) {
	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("evaluating decipher script: %w", err)
	}
	value := vm.Get(funcName)
	callable, ok := goja.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("decipher function %q did not evaluate to a callable", funcName)
	}
	return func(cipher string) (string, error) {
		result, err := callable(goja.Undefined(), vm.ToValue(cipher))
		if err != nil {
			return "", fmt.Errorf("running decipher function: %w", err)
		}
		return result.String(), nil
	}, nil
}

// sectionFirst, sectionAfterFirst, and sectionLast mirror the three
// QString::section(sep, start, end) call shapes the original decipher
// extraction relies on: text before the first occurrence, text after the
// first occurrence, and text after the last occurrence.
func sectionFirst(s, sep string) string {
	if idx := strings.Index(s, sep); idx >= 0 {
		return s[:idx]
	}
	return s
}

func sectionAfterFirst(s, sep string) string {
	if idx := strings.Index(s, sep); idx >= 0 {
		return s[idx+len(sep):]
	}
	return ""
}

func sectionLast(s, sep string) string {
	if idx := strings.LastIndex(s, sep); idx >= 0 {
		return s[idx+len(sep):]
	}
	return s
}
