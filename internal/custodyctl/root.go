// Package custodyctl implements the operator CLI for wallet custody:
// provisioning the envelope key, applying migrations and verifying that a
// stored wallet still decrypts to its address.
package custodyctl

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/config"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/dmitrijs2005/tipkeeper/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// Seams for tests.
var (
	loadConfig     = config.LoadConfig
	openDB         = repomanager.OpenDB
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newProvider    = func(ctx context.Context, c *config.Config) (custody.ProviderBundle, error) {
		return custody.NewProviderFromConfig(ctx, c)
	}
)

type options struct {
	askSecret bool
	out       io.Writer
	in        int

	cfg    *config.Config
	logger logging.Logger
	db     func(ctx context.Context) (*sql.DB, error)
}

// NewRootCmd builds the command tree. Server flags (-c, -d, -k, -b, ...)
// are accepted alongside the subcommands and read by the config package.
func NewRootCmd(out io.Writer) *cobra.Command {
	o := &options{out: out, in: int(os.Stdin.Fd())}

	root := &cobra.Command{
		Use:           "custodyctl",
		Short:         "tipkeeper custody administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			o.cfg = loadConfig()
			log, _ := logging.New(logging.Options{Level: o.cfg.LogLevel})
			o.logger = log.With("module", "custodyctl")
			o.db = func(ctx context.Context) (*sql.DB, error) { return openDB(ctx, o.cfg.DatabaseDSN) }
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&o.askSecret, "ask-secret", false, "prompt for the application secret instead of using the configured one")

	root.AddCommand(newProvisionCmd(o), newMigrateCmd(o), newVerifyCmd(o))
	return root
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}
