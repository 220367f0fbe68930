package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context, crit models.Criteria) error
	Tags(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Favorite(ctx context.Context, id string) error
	Reload(ctx context.Context) error
	Stats(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the contactbook CLI.
//
// Each line is split into words and executed against a fresh cobra command
// tree, so flags never leak from one line to the next. The loop exits on EOF
// or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help, register, login, stats, exit | quit
//
//	Logged in:
//	  - whoami, (l)ist [--search s] [--fav] [--tag t], tags, show <id>
//	  - add, edit <id>, delete <id>, fav <id>, reload, logout
//
// Arguments may be quoted: list --search "Ann Lee".
//
// A protected command fails early when there is no session. A command that
// fails authentication leaves the session cleared and the user is sent back
// to the login prompt.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cb %s> ", statusFn()))

		line, readErr := reader.ReadString('\n')
		if readErr != nil && (!errors.Is(readErr, io.EOF) || line == "") {
			return
		}

		parts, err := splitLine(line)
		if err != nil {
			report(err)
		} else if len(parts) > 0 {
			if !dispatch(ctx, a, parts) {
				return
			}
		}

		if readErr != nil {
			return
		}
	}
}

// dispatch runs one command line and reports whether the loop should go on.
func dispatch(ctx context.Context, a execIface, parts []string) bool {
	cmd := parts[0]
	if cmd == "exit" || cmd == "quit" {
		printlnFn("Bye!")
		return false
	}

	root := newRootCommand(ctx, a)
	if _, _, err := root.Find(parts); err != nil {
		printlnFn("Unknown command:", cmd)
		return true
	}

	root.SetArgs(parts)
	err := root.Execute()
	if err == nil {
		return true
	}

	report(err)

	if errors.Is(err, common.ErrUnauthenticated) && cmd != "login" && !a.isLoggedIn() {
		printlnFn("Please log in again.")
		if err := a.Login(ctx); err != nil {
			report(err)
		}
	}
	return true
}

var errUnterminatedQuote = errors.New("unterminated quote")

// splitLine splits a command line on whitespace. Single or double quotes
// group words into one argument and a backslash escapes the next rune.
func splitLine(line string) ([]string, error) {
	var (
		parts   []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, ch := range line {
		switch {
		case escaped:
			current.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				current.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case unicode.IsSpace(ch):
			if inWord {
				parts = append(parts, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(ch)
			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		parts = append(parts, current.String())
	}
	return parts, nil
}
