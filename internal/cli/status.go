package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/ui"
)

func newStreakCmd(e *env) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show the current and best streak",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				status := a.StreakStatus
				if rebuild {
					status = a.RebuildStreak
				}
				st, err := status(cmd.Context())
				if err != nil {
					return err
				}
				t := ui.Current()
				snap := a.Snapshot()
				lines := []string{
					t.Title.Render(fmt.Sprintf("Streak %d days", st.Current)),
					fmt.Sprintf("best %d", st.Best),
					fmt.Sprintf("today %s", ui.ProgressBar(snap.Percent, 20)),
				}
				if snap.Percent < st.Threshold {
					lines = append(lines, t.Muted.Render(fmt.Sprintf("reach %d%% today to keep it going", st.Threshold)))
				}
				ui.Panel(lines)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Recompute the streak from the daily history and store it")
	return cmd
}

func newHistoryCmd(e *env) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Chart daily completion for the last days",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 366 {
				return usagef("history: --days must be 1..366, got %d", days)
			}
			return e.withApp(cmd, func(a *app.App) error {
				window, err := a.HistoryWindow(cmd.Context(), days)
				if err != nil {
					return err
				}
				lines := []string{ui.Current().Title.Render(fmt.Sprintf("Last %d days", days))}
				lines = append(lines, ui.Chart(window, 20, a.Streak.Threshold())...)
				ui.Panel(lines)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days ending today")
	return cmd
}
