package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL needs. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	exec(ctx context.Context, cmd string) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// Commands prompt on the same reader, so it must not be wrapped in a
// second buffer. Command errors are printed and the loop continues. It
// exits on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "authctl %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: refresh, verify, status, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, status, exit")
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			if err := a.exec(ctx, cmd); err != nil {
				fmt.Fprintln(w, "Error:", err)
			}
		}
	}
}
