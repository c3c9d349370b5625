package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/formleszs/music-app/internal/domain"
)

type credentialFlags struct {
	phone    string
	password string
	confirm  string
}

func newLoginCommand(opts *options) *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Long:  `Log in with a phone number and password. The password is read from stdin when --password is not given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := creds.fillPasswords(cmd.InOrStdin(), false); err != nil {
				return err
			}

			application, err := opts.newApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			session, err := application.Sessions().Login(cmd.Context(), creds.phone, creds.password)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), "Logged in", session)
			return nil
		},
	}

	creds.bind(cmd, false)
	return cmd
}

func newRegisterCommand(opts *options) *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and remember the session",
		Long:  `Create an account. Passwords not given as flags are read from stdin, one per line.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := creds.fillPasswords(cmd.InOrStdin(), true); err != nil {
				return err
			}

			application, err := opts.newApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			session, err := application.Sessions().Register(cmd.Context(), creds.phone, creds.password, creds.confirm)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), "Registered", session)
			return nil
		},
	}

	creds.bind(cmd, true)
	return cmd
}

func (c *credentialFlags) bind(cmd *cobra.Command, confirm bool) {
	cmd.Flags().StringVarP(&c.phone, "phone", "p", "", "phone number, any formatting")
	cmd.Flags().StringVar(&c.password, "password", "", "password (read from stdin if empty)")
	if confirm {
		cmd.Flags().StringVar(&c.confirm, "confirm", "", "password confirmation (read from stdin if empty)")
	}
	_ = cmd.MarkFlagRequired("phone")
}

// fillPasswords reads missing passwords from r, one per line.
func (c *credentialFlags) fillPasswords(r io.Reader, confirm bool) error {
	if c.password != "" && (!confirm || c.confirm != "") {
		return nil
	}

	scanner := bufio.NewScanner(r)
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.New("password not provided")
		}
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}

	var err error
	if c.password == "" {
		if c.password, err = next(); err != nil {
			return err
		}
	}
	if confirm && c.confirm == "" {
		if c.confirm, err = next(); err != nil {
			return err
		}
	}
	return nil
}

func printSession(w io.Writer, verb string, session domain.Session) {
	fmt.Fprintf(w, "%s %s\n", styles.ok.Render(verb), styles.muted.Render(describeSession(session)))
}

func describeSession(session domain.Session) string {
	var parts []string
	if session.Phone != "" {
		parts = append(parts, "as "+domain.MaskPhone(session.Phone))
	}
	if !session.ExpiresAt.IsZero() {
		parts = append(parts, "until "+session.ExpiresAt.Local().Format(time.DateTime))
	}
	return strings.Join(parts, " ")
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.newApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			wasAuthenticated := application.Sessions().IsAuthenticated()
			if err := application.Sessions().Logout(); err != nil {
				return err
			}
			if wasAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), styles.ok.Render("Logged out"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), styles.muted.Render("Not logged in"))
			}
			return nil
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and configuration in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := opts.newApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			cfg := application.Config()
			session, ok := application.Sessions().Session()
			state := styles.warn.Render("anonymous")
			if ok {
				state = styles.ok.Render("authenticated") + " " + styles.muted.Render(describeSession(session))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.title.Render("musicapp"), styles.muted.Render(cmd.Root().Version))
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, [][]string{
				{"Session", state},
				{"Session store", cfg.Session.Store},
				{"Auth server", cfg.Auth.BaseURL},
				{"Catalog", cfg.Catalog.Source},
				{"Engine", cfg.Player.Engine},
				{"Session TTL", cfg.Session.TTL.String()},
			}))
			return nil
		},
	}
}
