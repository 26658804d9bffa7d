package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/aquote/internal/domain"
)

// noQuotesMessage is printed by show when the history is empty.
const noQuotesMessage = "No quotes available, run `aquote fetch` to fetch a quote"

// Attributes accepted by `aquote show`.
const (
	attrQuote  = "quote"
	attrAuthor = "author"
)

func newShowCommand(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:       "show [quote|author]",
		Short:     "Show the latest quote",
		Long:      `Show the latest quote, or only its text or author.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{attrQuote, attrAuthor},
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := sess.quotes()
			if err != nil {
				return err
			}

			quote, ok := svc.Latest()
			if !ok {
				sess.printer.Println(noQuotesMessage)
				return nil
			}

			attr := ""
			if len(args) == 1 {
				attr = args[0]
			}

			sess.printer.Println(sess.formatShow(&quote, attr))

			return nil
		},
	}
}

// formatShow renders quote for `aquote show`. An empty attr shows the
// italic quote text over the author.
func (s *session) formatShow(quote *domain.Quote, attr string) string {
	switch attr {
	case attrQuote:
		return quote.Text
	case attrAuthor:
		return quote.Author
	default:
		return fmt.Sprintf("%s\n—%s", s.printer.Italic(quote.Text), quote.Author)
	}
}
