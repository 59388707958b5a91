package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ucubank/bankaccounts/internal/adapter/http/dto"
	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/infrastructure/auth"
	"github.com/ucubank/bankaccounts/internal/infrastructure/postgres"
)

type schemaMigrator interface {
	Up() error
	Down() error
}

// newMigrator is swapped in tests.
var newMigrator = func(databaseURL, path string, logger zerolog.Logger) schemaMigrator {
	return postgres.NewMigrator(databaseURL, path, logger)
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to the embedded migrations)")

	run := func(apply func(schemaMigrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
				With().Timestamp().Logger()
			return apply(newMigrator(databaseURL, path, logger))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(schemaMigrator.Up),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE:  run(schemaMigrator.Down),
		},
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret   string
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a development JWT for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{ID: args[0], Username: username})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	cmd.Flags().StringVar(&username, "username", "", "Username claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

func usersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User operations",
	}

	var req dto.CreateUserRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var user dto.UserResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/users", req, &user); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	createCmd.Flags().StringVar(&req.ID, "id", "", "User id from the identity provider")
	createCmd.Flags().StringVar(&req.Username, "username", "", "Username")
	createCmd.Flags().StringVar(&req.Email, "email", "", "Email address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ListUsersResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/users", nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
			for _, u := range resp.Users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Username, truncate(u.Email, 32))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(createCmd, listCmd)
	return cmd
}

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the current user's accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ListAccountsResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/accounts", nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tBANK\tBALANCE\tCREATOR")
			for _, a := range resp.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", a.ID, a.AccountType, a.Bank, a.Balance, truncate(a.Creator, 24))
			}
			return tw.Flush()
		},
	}

	var (
		create  dto.CreateAccountRequest
		opening string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account for the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := parseAmount(opening)
			if err != nil {
				return err
			}
			create.OpeningBalance = amount

			var acc dto.AccountResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/accounts", create, &acc); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), acc)
		},
	}
	createCmd.Flags().StringVar(&create.AccountType, "type", "Checking", "Account type (Checking or Savings)")
	createCmd.Flags().StringVar(&create.Bank, "bank", "", "Bank name")
	createCmd.Flags().StringVar(&create.Creator, "creator", "", "Creator label")
	createCmd.Flags().StringVar(&opening, "opening-balance", "0", "Opening balance in minor units")

	cmd.AddCommand(listCmd, createCmd, ledgerCmd(opts, "deposit"), ledgerCmd(opts, "withdraw"))
	return cmd
}

func ledgerCmd(opts *options, operation string) *cobra.Command {
	return &cobra.Command{
		Use:   operation + " <account-id> <amount>",
		Short: "Run a " + operation + " on an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			var acc dto.AccountResponse
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/" + operation
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, dto.AmountRequest{Amount: amount}, &acc); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s balance: %d\n", acc.ID, acc.Balance)
			return err
		},
	}
}

func transferCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money",
	}

	var internal dto.InternalTransferRequest
	internalCmd := &cobra.Command{
		Use:   "internal <amount>",
		Short: "Move money between two of your accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			internal.Amount = amount

			var resp dto.InternalTransferResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/transfers/internal", internal, &resp); err != nil {
				return err
			}
			return reportTransfer(cmd, resp.OK, resp.Error, resp.Message, resp)
		},
	}
	internalCmd.Flags().StringVar(&internal.FromAccountID, "from", "", "Source account id")
	internalCmd.Flags().StringVar(&internal.ToAccountID, "to", "", "Destination account id")

	var external dto.ExternalTransferRequest
	externalCmd := &cobra.Command{
		Use:   "external <amount>",
		Short: "Pay another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			external.Amount = amount

			var resp dto.ExternalTransferResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/transfers/external", external, &resp); err != nil {
				return err
			}
			return reportTransfer(cmd, resp.OK, resp.Error, resp.Message, resp)
		},
	}
	externalCmd.Flags().StringVar(&external.FromAccountID, "from", "", "Source checking account id")
	externalCmd.Flags().StringVar(&external.PayeeID, "payee", "", "Payee user id")
	externalCmd.Flags().StringVar(&external.Comment, "comment", "", "Comment shown on the receipt")

	cmd.AddCommand(internalCmd, externalCmd)
	return cmd
}

func receiptsCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:       "receipts <internal|external>",
		Short:     "List transfer receipts",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"internal", "external"},
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp map[string]any
			path := "/api/v1/receipts/" + args[0] + "?" + q.Encode()
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp["receipts"])
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

// parseAmount accepts whole minor units only; the server rejects anything else.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if _, err := dto.MinorUnits(d); err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func reportTransfer(cmd *cobra.Command, ok bool, code, message string, resp any) error {
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transfer rejected: %s: %s", code, message)
	}
	return nil
}
