package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	err      error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) exec(ctx context.Context, cmd string) error {
	f.calls = append(f.calls, cmd)
	if cmd == "login" {
		f.loggedIn = true
	}
	return f.err
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"",
		"help",
		"refresh extra-args",
		"verify",
		"exit",
		"logout",
	}, "\n")

	f := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), f, func() string { return "s" }, rdr(input), &out)

	assert.Equal(t, []string{"login", "refresh", "verify"}, f.calls)
	assert.Contains(t, out.String(), "register, login")
	assert.Contains(t, out.String(), "refresh, verify")
	assert.Contains(t, out.String(), "Bye!")
	assert.Contains(t, out.String(), "authctl s> ")
}

func TestRunREPL_PrintsErrorsAndStopsOnEOF(t *testing.T) {
	f := &fakeExec{err: errors.New("nope")}
	var out bytes.Buffer
	runREPL(context.Background(), f, func() string { return "" }, rdr("status\nbogus"), &out)

	assert.Equal(t, []string{"status", "bogus"}, f.calls)
	assert.Equal(t, 2, strings.Count(out.String(), "Error: nope"))
}
