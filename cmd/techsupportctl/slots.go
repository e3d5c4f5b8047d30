package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"techsupport/backend/internal/app"
	"techsupport/backend/internal/service/slots"
)

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var (
		technicianID string
		date         string
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the bookable windows of a technician on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.Parse("2006-01-02", date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			s, err := app.OpenStore(cmd.Context(), cfg.Database, zap.NewNop())
			if err != nil {
				return err
			}
			defer s.Close()

			fragments, err := slots.NewResolver(s).Resolve(cmd.Context(), technicianID, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(fragments) == 0 {
				fmt.Fprintf(out, "no bookable windows for %s on %s (%s)\n", technicianID, date, day.Weekday())
				return nil
			}
			for _, f := range fragments {
				fmt.Fprintf(out, "%s  %s - %s\n", date, f.Start.Format("15:04"), f.End.Format("15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&technicianID, "tech", "", "technician id")
	cmd.Flags().StringVar(&date, "date", "", "civil date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("tech")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
