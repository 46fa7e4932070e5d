package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abacus-app/abacus/internal/client"
	"github.com/abacus-app/abacus/internal/config"
	"github.com/abacus-app/abacus/internal/guard"
	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/session"
)

// app holds what every command needs once the session is resolved.
type app struct {
	out     io.Writer
	verbose bool

	logger  *slog.Logger
	client  *client.Client
	manager *session.Manager
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "abacus",
		Short: "Currency calculator with a per-account history",
		Long: `abacus computes add, subtract, multiply and divide on the abacus API and
formats the result as US dollars or euros. Signed-in users keep a history
of their calculations.`,
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: a.connect,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newSignUpCmd(a),
		newLoginCmd(a),
		newLoginGoogleCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newCalcCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// connect builds the client and resolves the stored session.
func (a *app) connect(cmd *cobra.Command, _ []string) error {
	if a.logger == nil {
		level := slog.LevelWarn
		if a.verbose {
			level = slog.LevelDebug
		}
		a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	if a.client == nil {
		cfg, err := config.LoadClient()
		if err != nil {
			return err
		}
		a.client = client.NewFromConfig(cfg, a.logger, client.WithBrowser(a.presentURL))
	}

	a.manager = session.New(a.client, a.logger)
	if err := a.manager.Start(cmd.Context()); err != nil {
		return err
	}
	if _, err := a.manager.WaitResolved(cmd.Context()); err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	if a.manager != nil {
		a.manager.Close()
	}
}

func (a *app) presentURL(url string) error {
	fmt.Fprintf(a.out, "Continue signing in with Google in your browser:\n  %s\n", url)
	return client.OpenBrowser(url)
}

// gate applies the guard of the view at path. It reports whether the
// command may run and prints where the user should go instead.
func (a *app) gate(path string) (bool, error) {
	state := a.manager.State()
	decision, err := guard.Resolve(path, state)
	if err != nil {
		return false, err
	}

	switch decision.Action {
	case guard.Render:
		return true, nil
	case guard.Redirect:
		if decision.Location == guard.SignInPath {
			fmt.Fprintln(a.out, "You are not signed in. Run `abacus login` first.")
		} else {
			fmt.Fprintf(a.out, "Already signed in as %s.\n", state.Identity.DisplayName)
		}
		return false, nil
	default:
		return false, errors.New("session state is not resolved")
	}
}

// report prints a user-facing failure. Anything else is returned.
func (a *app) report(err error) error {
	var (
		validationErr *session.ValidationError
		authErr       *model.AuthError
	)
	switch {
	case errors.As(err, &validationErr):
		fmt.Fprintln(a.out, validationErr.Message)
	case errors.As(err, &authErr):
		fmt.Fprintln(a.out, authErr.Message)
	default:
		return err
	}
	return nil
}
