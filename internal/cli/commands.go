package cli

import (
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Propose the next sprint: capacity, man-days and recommended points",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.Service.PlanNextSprint(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			return app.render(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Sprint start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&end, "end", "", "Sprint end date (YYYY-MM-DD), defaults to start + 13 days")

	return cmd
}

func newCapacityCmd(app *App) *cobra.Command {
	var workingDays, holidays int

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Show team capacity and man-days for the stored roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			members, err := app.Service.ListMembers(ctx)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("working-days") {
				settings, err := app.Service.GetSettings(ctx)
				if err != nil {
					return err
				}
				workingDays = settings.WorkingDaysPerSprint
			}

			result, err := app.Service.CalculateCapacity(members, workingDays, holidays)
			if err != nil {
				return err
			}
			return app.render(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&workingDays, "working-days", 0, "Working days per sprint (defaults to settings)")
	cmd.Flags().IntVar(&holidays, "holidays", 0, "Public holidays falling inside the sprint")

	return cmd
}

func newRecommendCmd(app *App) *cobra.Command {
	var capacity float64
	var periods int
	var noFibonacci bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend story points from sprint history and a capacity percentage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := app.Service.GetSettings(ctx)
			if err != nil {
				return err
			}
			history, err := app.Service.ListSprints(ctx)
			if err != nil {
				return err
			}

			opts := settings.CalculationOptions()
			if cmd.Flags().Changed("periods") {
				opts.VelocityPeriods = periods
			}
			if noFibonacci {
				opts.RoundToFibonacci = false
			}

			points, err := app.Service.CalculateRecommendation(history, capacity, opts)
			if err != nil {
				return err
			}

			return app.render(cmd.OutOrStdout(), map[string]any{
				"team_capacity":      capacity,
				"velocity_periods":   opts.VelocityPeriods,
				"round_to_fibonacci": opts.RoundToFibonacci,
				"recommended_points": points,
			})
		},
	}

	cmd.Flags().Float64Var(&capacity, "capacity", 0, "Team capacity in percent")
	cmd.Flags().IntVar(&periods, "periods", 0, "Number of recent sprints to average (defaults to settings)")
	cmd.Flags().BoolVar(&noFibonacci, "no-fibonacci", false, "Round to the nearest integer instead of Fibonacci")
	_ = cmd.MarkFlagRequired("capacity")

	return cmd
}

func newHolidaysCmd(app *App) *cobra.Command {
	var country, start, end string

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List public holidays or count them inside a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if country == "" {
				settings, err := app.Service.GetSettings(ctx)
				if err != nil {
					return err
				}
				country = settings.SelectedCountry
			}

			if start != "" && end != "" {
				count, err := app.Service.CountHolidays(ctx, country, start, end)
				if err != nil {
					return err
				}
				return app.render(cmd.OutOrStdout(), map[string]any{"country": country, "count": count})
			}

			holidays, err := app.Service.ListHolidays(ctx, country)
			if err != nil {
				return err
			}
			return app.render(cmd.OutOrStdout(), map[string]any{"country": country, "holidays": holidays})
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Country (defaults to the selected country in settings)")
	cmd.Flags().StringVar(&start, "start", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Window end date (YYYY-MM-DD)")

	return cmd
}
