package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newUserCommand(globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage application users",
	}
	cmd.AddCommand(newUserRegisterCommand(globals))
	cmd.AddCommand(newUserLoginCommand(globals))
	cmd.AddCommand(newUserListCommand(globals))
	return cmd
}

func newUserRegisterCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Register a user, reading the password from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPasswordFromStdin(cmd.InOrStdin())
			if err != nil {
				return err
			}

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			id, err := rt.Users.Register(cmd.Context(), args[0], password)
			if err != nil {
				return mapCommandError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d registered\n", id)
			return nil
		},
	}
}

func newUserLoginCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Verify credentials, reading the password from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPasswordFromStdin(cmd.InOrStdin())
			if err != nil {
				return err
			}

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			if err := rt.Users.Login(cmd.Context(), args[0], password); err != nil {
				return mapCommandError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "login ok")
			return nil
		},
	}
}

func newUserListCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			users, err := rt.Users.List(cmd.Context())
			if err != nil {
				return mapCommandError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
			for _, u := range users {
				created := time.UnixMilli(u.CreatedAt).UTC().Format(time.RFC3339)
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, created)
			}
			return w.Flush()
		},
	}
}

func readPasswordFromStdin(r io.Reader) ([]byte, error) {
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, mapCommandError(fmt.Errorf("read password from stdin: %w", err))
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, usageErrorf("a non-empty password is required on stdin")
	}
	return []byte(line), nil
}
