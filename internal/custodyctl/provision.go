package custodyctl

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/spf13/cobra"
)

func newProvisionCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the key ring and the symmetric crypto key",
		Long: `Creates the configured key ring and crypto key in the envelope
provider. The key rotates every 10 days, first 24h from now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ref := custody.KeyRefFromConfig(o.cfg)

			p, err := newProvider(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ring, err := p.CreateKeyRing(ctx, ref)
			if err != nil {
				return fmt.Errorf("create key ring: %w", err)
			}
			o.logger.Info(ctx, "key ring created", "name", ring)

			key, err := p.CreateCryptoKey(ctx, ref, custody.DefaultCryptoKeySpec(time.Now()))
			if err != nil {
				return fmt.Errorf("create crypto key: %w", err)
			}
			o.logger.Info(ctx, "crypto key created", "name", key)

			fmt.Fprintln(o.out, key)
			return nil
		},
	}
}
