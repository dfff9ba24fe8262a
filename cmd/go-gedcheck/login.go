package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

func newLoginCmd(a *cli) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   config.CmdLogin,
		Short: config.CmdShortLogin,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed(config.FlagUser) {
				a.settings.Source.User = user
			}
			name := a.settings.Source.User
			if name == "" {
				return errors.New(config.ErrUserRequired)
			}

			fmt.Fprint(cmd.ErrOrStderr(), config.MsgPasswordPrompt)
			pass, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if err := keyring.Set(config.KeyringService, name, pass); err != nil {
				return fmt.Errorf("%s: %w", config.ErrKeyring, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), config.MsgPasswordStored, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, config.FlagUser, "", config.FlagDescUser)
	return cmd
}

// promptPassword reads the password without echo when r is a terminal,
// and as one line otherwise.
func promptPassword(r io.Reader, w io.Writer) (string, error) {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readPassword(r)
	}

	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrPasswordRead, err)
	}
	if len(b) == 0 {
		return "", errors.New(config.ErrPasswordRead)
	}
	return string(b), nil
}

// readPassword reads one line of piped input.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%s: %w", config.ErrPasswordRead, err)
	}
	pass := strings.TrimRight(line, "\r\n")
	if pass == "" {
		return "", errors.New(config.ErrPasswordRead)
	}
	return pass, nil
}
