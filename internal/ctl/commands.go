// Package ctl implements dealerctl, the operator tool for managing
// accounts that public registration cannot create, such as employees and
// admins.
package ctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/validation"
)

// AccountAdmin is the account workflow dealerctl drives.
type AccountAdmin interface {
	CreateAccount(ctx context.Context, firstName, lastName, email, password string, role models.Role) (*models.Account, error)
	SetRole(ctx context.Context, id int64, role models.Role) error
}

// Opener connects to the store named by dsn.
type Opener func(ctx context.Context, dsn string) (AccountAdmin, io.Closer, error)

type rootOptions struct {
	dsn  string
	open Opener
	in   *bufio.Reader
}

// NewRootCmd builds the dealerctl command tree. defaultDSN is used unless
// --dsn is given.
func NewRootCmd(open Opener, defaultDSN string, in io.Reader) *cobra.Command {
	opts := &rootOptions{open: open, in: bufio.NewReader(in)}

	root := &cobra.Command{
		Use:           "dealerctl",
		Short:         "Manage CSE Motors accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", defaultDSN, "PostgreSQL DSN")

	root.AddCommand(
		createAccountCmd(opts),
		setRoleCmd(opts),
	)
	return root
}

func (o *rootOptions) withAdmin(ctx context.Context, fn func(AccountAdmin) error) error {
	admin, closer, err := o.open(ctx, o.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer closer.Close()
	return fn(admin)
}

func createAccountCmd(opts *rootOptions) *cobra.Command {
	var (
		first, last, email, role string
		passwordStdin            bool
	)

	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create an account with any role",
		Long: `Create an account with any role. The password is prompted for on the
terminal, or read from the first line of stdin with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			first = strings.TrimSpace(first)
			last = strings.TrimSpace(last)
			email = strings.ToLower(strings.TrimSpace(email))
			switch {
			case first == "" || last == "":
				return errors.New("--first and --last are required")
			case !validation.IsEmail(email):
				return fmt.Errorf("%q is not a valid email", email)
			}

			var password string
			if passwordStdin {
				password, err = readLine(opts.in)
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if !validation.IsStrongPassword(password) {
				return fmt.Errorf("password must be %d characters to %d bytes long with upper and lower case letters, a digit and a symbol",
					validation.MinPasswordLength, validation.MaxPasswordBytes)
			}

			return opts.withAdmin(cmd.Context(), func(admin AccountAdmin) error {
				a, err := admin.CreateAccount(cmd.Context(), html.EscapeString(first), html.EscapeString(last), email, password, r)
				if err != nil {
					if errors.Is(err, common.ErrorAlreadyExists) {
						return fmt.Errorf("an account with email %s already exists", email)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created account %d (%s, %s)\n", a.ID, a.Email, a.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&first, "first", "", "first name")
	cmd.Flags().StringVar(&last, "last", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(models.RoleEmployee), "Client, Employee or Admin")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func setRoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <account_id> <role>",
		Short: "Change the role of an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			r, err := models.ParseRole(args[1])
			if err != nil {
				return err
			}

			return opts.withAdmin(cmd.Context(), func(admin AccountAdmin) error {
				if err := admin.SetRole(cmd.Context(), id, r); err != nil {
					if errors.Is(err, common.ErrorNotFound) {
						return fmt.Errorf("account %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "account %d is now %s\n", id, r)
				return nil
			})
		},
	}
}
