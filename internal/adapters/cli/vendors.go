package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/aquote/internal/adapters/cli/output"
	"github.com/jsamuelsen/aquote/internal/ports"
)

func newVendorsCommand(sess *session) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "List configured quote vendors",
		Long: `List every configured vendor and whether it is enabled.

With --check every enabled vendor is queried once, in parallel, and the
outcome is shown in a STATUS column. The command fails when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result *ports.HealthResult

			if check {
				var err error

				result, err = sess.vendors.CheckVendors(cmd.Context())
				if err != nil {
					return fmt.Errorf("checking vendors: %w", err)
				}
			}

			if err := sess.renderVendors(result); err != nil {
				return fmt.Errorf("rendering vendors: %w", err)
			}

			return checkFailures(result)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "probe every enabled vendor")

	return cmd
}

// renderVendors prints the vendor table. result is nil unless checks ran.
func (s *session) renderVendors(result *ports.HealthResult) error {
	headers := []string{"key", "name", "enabled", "endpoint"}
	if result != nil {
		headers = append(headers, "status")
	}

	table := output.NewTable(s.printer.Out(), headers)
	vendors := s.vendors.Vendors()

	for _, key := range vendors.Keys() {
		vendor, _ := vendors.Lookup(key)

		enabled := "no"
		if vendors.IsEnabled(key) {
			enabled = "yes"
		}

		row := []string{key, vendor.Name, enabled, vendor.Endpoint}

		if result != nil {
			row = append(row, s.checkStatus(result, key))
		}

		table.AddRow(row...)
	}

	return table.Render()
}

func (s *session) checkStatus(result *ports.HealthResult, key string) string {
	check, ok := result.Checks[key]
	if !ok {
		return s.printer.Dim("-")
	}

	if check.Status == ports.HealthStatusHealthy {
		return s.printer.StatusBadge(true)
	}

	return s.printer.StatusBadge(false) + " " + check.Message
}

func checkFailures(result *ports.HealthResult) error {
	if result == nil || result.Status == ports.HealthStatusHealthy {
		return nil
	}

	failed := 0

	for _, name := range result.Names() {
		if result.Checks[name].Status != ports.HealthStatusHealthy {
			failed++
		}
	}

	return fmt.Errorf("%d of %d vendors failed their check", failed, len(result.Checks))
}
