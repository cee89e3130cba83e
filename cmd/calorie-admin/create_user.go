package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"lg/calorie-budget-api/internal/app"
	"lg/calorie-budget-api/internal/config"
	"lg/calorie-budget-api/internal/logging"
	"lg/calorie-budget-api/internal/model"
)

// newCreateUserCmd creates an account with a bcrypt-hashed password and a
// fresh auth token. Values not given as flags are prompted for on stdin.
func newCreateUserCmd(configPath *string) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging.Level, "console")
			if err != nil {
				return err
			}
			defer log.Sync()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			for _, f := range []struct {
				label string
				dst   *string
			}{
				{"Username", &username},
				{"Email", &email},
				{"Password", &password},
			} {
				if *f.dst != "" {
					continue
				}
				if *f.dst, err = prompt(in, out, f.label); err != nil {
					return err
				}
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			st, err := app.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			u, err := st.CreateUser(cmd.Context(), model.User{
				ID:        uuid.NewString(),
				Username:  username,
				Email:     email,
				Password:  string(hash),
				AuthToken: uuid.NewString(),
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(out, "\nUser created successfully!\n")
			fmt.Fprintf(out, "  ID:         %s\n", u.ID)
			fmt.Fprintf(out, "  Username:   %s\n", u.Username)
			fmt.Fprintf(out, "  Auth Token: %s\n", u.AuthToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Account username")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}
