package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the connection flags shared by API commands.
type options struct {
	baseURL        string
	userID         string
	token          string
	idempotencyKey string
	timeout        time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "bankctl",
		Short:         "Bank accounts CLI tool",
		Long:          `A command line interface for the bank accounts API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the bank accounts API")
	flags.StringVar(&opts.userID, "user", os.Getenv("BANKCTL_USER"), "User id sent as X-User-ID when no token is given")
	flags.StringVar(&opts.token, "token", os.Getenv("BANKCTL_TOKEN"), "Bearer token")
	flags.StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency-Key for mutating requests")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		migrateCmd(),
		tokenCmd(),
		usersCmd(opts),
		accountsCmd(opts),
		transferCmd(opts),
		receiptsCmd(opts),
	)

	return rootCmd
}
