package custodyctl

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/spf13/cobra"
)

func newVerifyCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <userID>",
		Short: "Check that a stored wallet decrypts to its address",
		Long: `Decrypts the user's stored key through both layers and checks that
it derives the stored address. No key material is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			profile, err := custody.ParseProfile(o.cfg.Environment)
			if err != nil {
				return err
			}

			secret, err := o.appSecret()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(secret)

			db, err := o.db(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			w, err := newRepoManager().Wallets(db).Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load wallet: %w", err)
			}
			if !w.Complete() {
				return fmt.Errorf("load wallet: %w", common.ErrorNotFound)
			}

			p, err := newProvider(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := custody.NewService(p, custody.KeyRefFromConfig(o.cfg).Name(), secret, profile, nil, o.logger)
			if err != nil {
				return err
			}

			key, err := svc.DecryptLayered(ctx, custody.EncryptedSecret(w.EncryptedKey))
			if err != nil {
				return err
			}
			addr, err := custody.AddressOf(key)
			common.WipeByteArray(key)
			if err != nil {
				return err
			}

			if !strings.EqualFold(addr.Hex(), w.Address) {
				return fmt.Errorf("%w: key derives %s, stored %s", common.ErrIntegrityViolation, common.CanonicalAddress(addr.Hex()), w.Address)
			}
			fmt.Fprintf(o.out, "ok %s\n", w.Address)
			return nil
		},
	}
}
