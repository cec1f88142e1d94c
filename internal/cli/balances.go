package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/money"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/pkg/api"
)

func newBalancesCommand(a *app) *cobra.Command {
	var (
		verify bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "balances <group-id>",
		Short: "Print a group's net balances and suggested transfers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(false); err != nil {
				return err
			}
			planner, err := a.cfg.Planner()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := service.NewGroupService(store, planner, nil, nil, a.logger)
			balances, err := svc.ComputeBalances(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if verify {
				if err := verifySettles(balances, planner.Tolerance); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.FromBalances(balances.Net, balances.Suggestions))
			}
			return printBalances(out, balances)
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "fail unless the suggested transfers bring every balance to zero")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API JSON payload")
	return cmd
}

// verifySettles replays the suggestions and checks nothing beyond tolerance
// is left owing.
func verifySettles(b *service.Balances, tolerance money.Amount) error {
	settled, err := calculator.Apply(b.Net, b.Suggestions)
	if err != nil {
		return err
	}
	for _, n := range settled {
		if n.Net.Abs() > tolerance {
			return fmt.Errorf("%w: %s still at %s after suggested transfers",
				models.ErrInvariantViolation, n.User.Name, n.Net)
		}
	}
	return nil
}

func printBalances(w io.Writer, b *service.Balances) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Group:\t%s (%s)\n\n", b.Group.Name, b.Group.ID)
	fmt.Fprintln(tw, "MEMBER\tNET")
	for _, n := range b.Net {
		fmt.Fprintf(tw, "%s\t%s\n", n.User.Name, n.Net)
	}
	fmt.Fprintln(tw, "\nFROM\tTO\tAMOUNT")
	for _, s := range b.Suggestions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.From.Name, s.To.Name, s.Amount)
	}
	return tw.Flush()
}
