package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in")

// usageError is returned when a command got the wrong arguments.
type usageError struct {
	line string
}

func (e *usageError) Error() string { return "usage: " + e.line }

// newRootCommand builds the command tree for a single REPL line.
func newRootCommand(ctx context.Context, a execIface) *cobra.Command {
	root := &cobra.Command{
		Use:           "contactbook",
		Short:         "Manage your contacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(printWriter{})
	root.SetErr(io.Discard)
	root.SetContext(ctx)

	root.SetHelpCommand(&cobra.Command{
		Use:   "help",
		Short: "Show available commands",
		Run: func(cmd *cobra.Command, args []string) {
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, (l)ist [--search s] [--fav] [--tag t], tags, show <id>, add, edit <id>, delete <id>, fav <id>, reload, stats, logout, exit")
			} else {
				printlnFn("Available commands: register, login, stats, exit")
			}
		},
	})

	protected := func(c *cobra.Command) *cobra.Command {
		c.PreRunE = func(cmd *cobra.Command, args []string) error {
			if !a.isLoggedIn() {
				return errNotLoggedIn
			}
			return nil
		}
		return c
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "register",
			Short: "Create an account",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Register(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "login",
			Short: "Sign in",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Login(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show remote call statistics",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Stats(cmd.Context()) },
		},
		protected(&cobra.Command{
			Use:   "logout",
			Short: "Sign out and forget the token",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Logout(cmd.Context()) },
		}),
		protected(&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in user",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.WhoAmI(cmd.Context()) },
		}),
		protected(newListCommand(a)),
		protected(&cobra.Command{
			Use:   "tags",
			Short: "List tags in use",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Tags(cmd.Context()) },
		}),
		protected(&cobra.Command{
			Use:   "show <id>",
			Short: "Show one contact",
			Args:  oneID,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Show(cmd.Context(), args[0]) },
		}),
		protected(&cobra.Command{
			Use:   "add",
			Short: "Add a contact",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Add(cmd.Context()) },
		}),
		protected(&cobra.Command{
			Use:   "edit <id>",
			Short: "Edit a contact",
			Args:  oneID,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Edit(cmd.Context(), args[0]) },
		}),
		protected(&cobra.Command{
			Use:     "delete <id>",
			Aliases: []string{"rm"},
			Short:   "Delete a contact",
			Args:    oneID,
			RunE:    func(cmd *cobra.Command, args []string) error { return a.Delete(cmd.Context(), args[0]) },
		}),
		protected(&cobra.Command{
			Use:   "fav <id>",
			Short: "Toggle the favorite flag",
			Args:  oneID,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Favorite(cmd.Context(), args[0]) },
		}),
		protected(&cobra.Command{
			Use:   "reload",
			Short: "Fetch the contact list again",
			Args:  noArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.Reload(cmd.Context()) },
		}),
	)

	// Find only sees the help command once it has been attached.
	root.InitDefaultHelpCmd()
	return root
}

func newListCommand(a execIface) *cobra.Command {
	var crit models.Criteria

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List contacts",
		Args:    noArgs,
		RunE:    func(cmd *cobra.Command, args []string) error { return a.List(cmd.Context(), crit) },
	}
	cmd.Flags().StringVarP(&crit.SearchText, "search", "s", "", "text to look for in name, phone or email")
	cmd.Flags().BoolVarP(&crit.FavoriteOnly, "fav", "f", false, "favorites only")
	cmd.Flags().StringVarP(&crit.Tag, "tag", "t", "", "exact tag")
	return cmd
}

// printWriter sends cobra's own output, such as -h, through printlnFn.
type printWriter struct{}

func (printWriter) Write(p []byte) (int, error) {
	printlnFn(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return &usageError{line: cmd.Name()}
	}
	return nil
}

func oneID(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &usageError{line: fmt.Sprintf("%s <id>", cmd.Name())}
	}
	return nil
}
