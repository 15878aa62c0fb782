package nftexec

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are registered
// against the full command line ("nft list ruleset"); unscripted commands
// succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Result
	calls     []string
}

// NewFakeRunner creates an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Result)}
}

// Script registers the result returned for the given command line.
func (f *FakeRunner) Script(cmdline string, res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = res
}

// Run records the call and returns the scripted result, if any.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) Result {
	cmdline := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)

	if res, ok := f.responses[cmdline]; ok {
		return res
	}

	// Prefix matches cover commands with unpredictable operands, like the
	// temp-file path in "nft -f /tmp/afo-rule-123.nft".
	for key, res := range f.responses {
		if strings.HasSuffix(key, "*") && strings.HasPrefix(cmdline, strings.TrimSuffix(key, "*")) {
			return res
		}
	}

	return Result{}
}

// Calls returns every command line observed, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many commands were run.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var _ Runner = (*FakeRunner)(nil)
var _ Runner = (*ExecRunner)(nil)
