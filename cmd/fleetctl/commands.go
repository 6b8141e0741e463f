package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fleet-timesheet-backend/internal/app"
	"fleet-timesheet-backend/internal/logger"
	"fleet-timesheet-backend/internal/maintenance"
	"fleet-timesheet-backend/internal/parse"
	"fleet-timesheet-backend/internal/report"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "fleetctl",
		Short:        "Administer the fleet timesheet store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the YAML configuration")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newInitCmd(opts),
		newResetCmd(opts),
		newReportCmd(opts),
		newAttentionCmd(opts),
	)
	return root
}

// newApp reads the config and builds the application. The caller must
// defer app.Close().
func newApp(opts *rootOptions) (*app.App, error) {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	// The CLI never serves push reminders.
	cfg.Push.Enabled = false

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	zl, err := logger.New(level, "console")
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, zl)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed the store with the sample fleet if it was never initialized",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			seeded, err := a.Init(cmd.Context())
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "store initialized")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "store already initialized, nothing written")
			}
			return nil
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every collection and seed the sample fleet again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all fleet data, pass --yes to confirm")
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.Reset(cmd.Context(), a.Dataset); err != nil {
				return err
			}
			a.Log.Info("store reset", zap.String("driver", a.Config.Database.Driver))
			fmt.Fprintln(cmd.OutOrStdout(), "store reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to, machineID string
		asJSON              bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print worked hours and maintenance over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			loc := a.Reports.Location()
			f := report.Filter{MachineID: machineID}
			if f.From, err = parse.OptionalDay(from, loc, false); err != nil {
				return err
			}
			if f.To, err = parse.OptionalDay(to, loc, true); err != nil {
				return err
			}

			p, err := a.Reports.Period(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			return writePeriod(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD, inclusive")
	cmd.Flags().StringVar(&machineID, "machine", "", "only this machine ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newAttentionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attention",
		Short: "List pending and overdue maintenance, overdue first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.Store.ListMaintenance(cmd.Context())
			if err != nil {
				return err
			}
			list := maintenance.AttentionList(events)
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no maintenance needs attention")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "URGENCY\tID\tMACHINE\tDESCRIPTION\tNEXT DUE")
			for _, item := range list {
				due := "-"
				if item.Event.NextDueHourMeter != nil {
					due = fmt.Sprintf("%.1f h", *item.Event.NextDueHourMeter)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", item.Urgency, item.Event.ID, item.Event.MachineID, item.Event.Description, due)
			}
			return tw.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePeriod(w io.Writer, p report.Period) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total hours\t%.1f\n", p.Summary.TotalHours)
	fmt.Fprintf(tw, "Shifts\t%d\n", p.Summary.ShiftCount)
	fmt.Fprintf(tw, "Machines used\t%d\n", p.Summary.MachinesUsed)
	fmt.Fprintf(tw, "Maintenance\t%d (cost %.2f)\n", p.Summary.MaintenanceCount, p.Summary.MaintenanceCost)

	fmt.Fprintln(tw, "\nMACHINE\tHOURS\tSHIFTS")
	for _, h := range p.ByMachine {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\n", h.Name, h.Hours, h.Shifts)
	}
	fmt.Fprintln(tw, "\nOPERATOR\tHOURS\tSHIFTS")
	for _, h := range p.ByOperator {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\n", h.Name, h.Hours, h.Shifts)
	}
	return tw.Flush()
}
