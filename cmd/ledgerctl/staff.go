package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"staffledger/internal/attendance"
)

func newStaffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage the roster",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Add a staff member",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd.Context(), func(repo *attendance.Repository) error {
				s, err := repo.CreateStaff(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.ID, s.Name)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the roster",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd.Context(), func(repo *attendance.Repository) error {
				staff, err := repo.ListStaff(cmd.Context(), attendance.StaffFilter{})
				if err != nil {
					return err
				}
				if len(staff) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No staff yet. Use 'ledgerctl staff add NAME'.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCREATED")
				for _, s := range staff {
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.CreatedAt.In(a.cfg.Location()).Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	})
	return cmd
}
