package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/foodorder/internal/auth"
	"github.com/Alturino/foodorder/internal/config"
	"github.com/Alturino/foodorder/internal/constants"
	"github.com/Alturino/foodorder/internal/log"
)

// newTokenCommand mints a bearer token for the order status endpoint, signed
// with the order service secret.
func newTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate an admin token for updating order status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main token").
				Str(log.KeyProcess, "generating admin token").
				Logger()

			cfg := config.InitConfig(logger.WithContext(c), constants.APP_ORDER_SERVICE)
			token, err := auth.GenerateAdminToken(cfg.Application.SecretKey, subject, ttl)
			if err != nil {
				return fmt.Errorf("failed generating admin token with error=%w", err)
			}
			logger.Info().Str("subject", subject).Dur("ttl", ttl).Msg("generated admin token")

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
