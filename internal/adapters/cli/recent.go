package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/aquote/internal/domain"
)

const (
	// recentSeparator separates quotes in `aquote recent`.
	recentSeparator = "\n-----\n"

	// fetchTimeLayout formats fetch times in local time.
	fetchTimeLayout = "2006-01-02 15:04:05"
)

func newRecentCommand(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recent quotes",
		Long:  `List the quote history, oldest first.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := sess.quotes()
			if err != nil {
				return err
			}

			quotes := svc.Recent()
			if len(quotes) == 0 {
				return nil
			}

			blocks := make([]string, 0, len(quotes))
			for i := range quotes {
				blocks = append(blocks, sess.formatRecent(&quotes[i]))
			}

			sess.printer.Println(strings.Join(blocks, recentSeparator))

			return nil
		},
	}
}

// formatRecent renders one history entry. The URL line is omitted when the
// quote has none; the From line when its vendor is no longer configured.
func (s *session) formatRecent(quote *domain.Quote) string {
	type row struct {
		heading string
		value   string
		present bool
	}

	vendor, known := s.vendors.Vendors().Lookup(quote.VendorKey)

	rows := []row{
		{"Fetched at:", quote.FetchTime.Local().Format(fetchTimeLayout), true},
		{"Quote:", quote.Text, true},
		{"Author:", quote.Author, true},
		{"URL:", quote.URLString(), quote.URL != nil},
		{"From:", vendor.DisplayName(), known},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.present {
			lines = append(lines, s.printer.Bold(r.heading)+" "+r.value)
		}
	}

	return strings.Join(lines, "\n")
}
