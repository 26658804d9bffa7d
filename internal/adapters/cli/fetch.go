package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/aquote/internal/platform/logging"
)

func newFetchCommand(sess *session) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a new quote",
		Long: `Fetch a new quote from a randomly selected enabled vendor and record it
as the latest quote. A failed attempt is retried once after a short delay,
possibly against a different vendor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			defer sess.writeMetrics()

			svc, err := sess.quotes()
			if err != nil {
				return err
			}

			quote, err := svc.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetching quote: %w", err)
			}

			logging.FromContext(ctx).InfoContext(ctx, "quote fetched",
				slog.String("vendor", quote.VendorKey),
			)

			if show {
				sess.printer.Println(sess.formatShow(quote, ""))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the fetched quote")

	return cmd
}
