package main

import (
	"encoding/json"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/bootstrap"
	"github.com/consilium/popcorn/pkg/preference"
	"github.com/consilium/popcorn/pkg/server"
	"github.com/consilium/popcorn/pkg/sessions"
)

func stateCmd(flags *globalFlags) *cobra.Command {
	var (
		currentUser string
		actions     []string
		login       string
		signup      string
		sync        bool
	)

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Bootstrap a store, apply actions and print the state",
		Long: `Bootstrap a store, dispatch the given actions in order and print the
resulting state as JSON.

With --signup, --login and --sync the session and preference thunks run
against server.apiBaseURL from popcorn.json.`,
		Example: `  popcorn state --current-user '{"id":42,"name":"Ada"}'
  popcorn state --action '{"type":"RECEIVE_MOVIE_RATING","payload":{"movie_id":1,"rating":4}}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseActions(actions)
			if err != nil {
				return err
			}

			var extra []bootstrap.Option
			if currentUser != "" {
				u, err := parseUser(currentUser)
				if err != nil {
					return err
				}
				extra = append(extra, bootstrap.WithSeed(u))
			}

			a, err := newApp(flags, cmd.ErrOrStderr(), prometheus.NewRegistry(), extra...)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if login != "" || signup != "" || sync {
				if a.client == nil {
					return errors.New("E180").
						WithDetail("--signup, --login and --sync need server.apiBaseURL").
						WithSuggestion("Set server.apiBaseURL in popcorn.json")
				}
			}

			if signup != "" {
				parts := strings.SplitN(signup, ":", 3)
				if len(parts) != 3 {
					return errors.New("E180").WithDetail("--signup must be name:email:password")
				}
				reg := sessions.Registration{Name: parts[0], Email: parts[1], Password: parts[2]}
				if _, err := a.store.Dispatch(ctx, sessions.Signup(a.client, reg)); err != nil {
					return err
				}
			}

			if login != "" {
				email, password, ok := strings.Cut(login, ":")
				if !ok {
					return errors.New("E180").WithDetail("--login must be email:password")
				}
				if _, err := a.store.Dispatch(ctx, sessions.Login(a.client, sessions.Credentials{Email: email, Password: password})); err != nil {
					return err
				}
			}

			for _, action := range parsed {
				if _, err := a.store.Dispatch(ctx, action); err != nil {
					return err
				}
			}

			if sync {
				if _, err := a.store.Dispatch(ctx, preference.SavePreference(a.client)); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(server.Snapshot{Version: a.store.Version(), State: a.store.GetState()})
		},
	}

	cmd.Flags().StringVar(&currentUser, "current-user", "", "JSON user to seed the sessions slice with")
	cmd.Flags().StringArrayVar(&actions, "action", nil, "JSON action or list of actions to dispatch (repeatable)")
	cmd.Flags().StringVar(&signup, "signup", "", "Create an account as name:email:password before applying actions")
	cmd.Flags().StringVar(&login, "login", "", "Sign in as email:password before applying actions")
	cmd.Flags().BoolVar(&sync, "sync", false, "Save the preference to the server after applying actions")

	return cmd
}
