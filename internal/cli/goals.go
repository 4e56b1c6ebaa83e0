package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/ui"
)

func newAddCmd(e *env) *cobra.Command {
	var (
		date, tm, recurring string
		tags                []string
		email               bool
	)
	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a goal",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return usagef("add: empty text")
			}
			rec, err := model.ParseRecurrence(recurring)
			if err != nil {
				return usageError{err.Error()}
			}
			due, err := model.NormalizeTime(tm)
			if err != nil {
				return usageError{err.Error()}
			}
			if email && due == "" {
				return usagef("add: --email needs --time")
			}
			return e.withApp(cmd, func(a *app.App) error {
				day, err := model.NormalizeDate(date, a.Now())
				if err != nil {
					return usageError{err.Error()}
				}
				// A timed one-off goal is due today unless told otherwise.
				if day == "" && due != "" && rec == model.RecurNone {
					day = a.Today()
				}
				g, err := a.Add(cmd.Context(), goals.Draft{
					Text:              text,
					Date:              day,
					Time:              due,
					Tags:              tags,
					Recurring:         rec,
					EmailNotification: email,
				})
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("added %q", g.Text)
				if g.IsTemplate() {
					msg += " (repeats " + string(g.Recurring) + ")"
				}
				ui.OK(msg)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&date, "date", "", "Day the goal belongs to (YYYY-MM-DD, today, tomorrow)")
	f.StringVar(&tm, "time", "", "Due time (HH:MM)")
	f.StringSliceVar(&tags, "tag", nil, "Tags, repeatable or comma separated")
	f.StringVar(&recurring, "recurring", "", "Repeat the goal (daily|weekdays|weekly)")
	f.BoolVar(&email, "email", false, "Email a reminder shortly before the due time")
	return cmd
}

func newListCmd(e *env) *cobra.Command {
	var (
		tag   string
		all   bool
		group bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List today's goals with the climb so far",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				st, err := a.StreakStatus(cmd.Context())
				if err != nil {
					return err
				}
				ui.Panel(listLines(a, st, tag, all, group))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&tag, "tag", "", "Only goals carrying this tag")
	f.BoolVar(&all, "all", false, "Include templates and goals on other days")
	f.BoolVar(&group, "group", false, "Group output by pending/done")
	return cmd
}

// indexed pairs a goal with its 1-based position in the working set, 0
// when it is not part of it.
type indexed struct {
	n    int
	goal model.Goal
}

func listLines(a *app.App, st app.StreakStatus, tag string, all, group bool) []string {
	t := ui.Current()
	snap := a.Snapshot()

	pos := map[int64]int{}
	for i, g := range a.Working() {
		pos[g.ID] = i + 1
	}
	src := a.Working()
	if all {
		// Dated and undated goals first, templates at the bottom.
		var goalsOnly []model.Goal
		for _, g := range a.Goals.All() {
			if !g.IsTemplate() {
				goalsOnly = append(goalsOnly, g)
			}
		}
		src = append(goalsOnly, a.Templates()...)
	}
	norm := goals.NormalizeTags([]string{tag})
	var rows []indexed
	for _, g := range src {
		if len(norm) == 1 && !g.HasTag(norm[0]) {
			continue
		}
		rows = append(rows, indexed{n: pos[g.ID], goal: g})
	}

	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Today "+snap.Date),
		t.Success.Render(t.SymDone), snap.Done,
		t.Pending.Render(t.SymPending), snap.Pending,
		t.Accent.Render("Total"), snap.Total,
	)
	lines := []string{header, ui.ProgressBar(snap.Percent, 28)}
	lines = append(lines, ui.Mountain(snap.Percent, ui.MountainRows)...)
	lines = append(lines, t.Muted.Render(fmt.Sprintf("streak %d  best %d", st.Current, st.Best)), "")

	if group {
		lines = append(lines, groupLines(rows)...)
	} else {
		lines = append(lines, flatLines(rows)...)
	}
	lines = append(lines, "", t.Muted.Render(ui.Quote(nil)))
	return lines
}

func flatLines(rows []indexed) []string {
	t := ui.Current()
	if len(rows) == 0 {
		return []string{t.Muted.Render("no goals")}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		idx := " -."
		if r.n > 0 {
			idx = fmt.Sprintf("%2d.", r.n)
		}
		out = append(out, t.Muted.Render(idx)+" "+ui.GoalLine(r.goal))
	}
	return out
}

func groupLines(rows []indexed) []string {
	t := ui.Current()
	var pend, done []indexed
	for _, r := range rows {
		if r.goal.Done {
			done = append(done, r)
		} else {
			pend = append(pend, r)
		}
	}
	section := func(title string, rs []indexed) []string {
		out := []string{t.Accent.Render(title)}
		if len(rs) == 0 {
			return append(out, t.Muted.Render("(none)"))
		}
		return append(out, flatLines(rs)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

// pick resolves a 1-based index over the working set.
func pick(a *app.App, arg string) (model.Goal, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.Goal{}, usagef("not a number: %s", arg)
	}
	work := a.Working()
	if n < 1 || n > len(work) {
		return model.Goal{}, usagef("index out of range: have %d, got %d (run `summit ls` to see valid indexes)", len(work), n)
	}
	return work[n-1], nil
}

func newDoneCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle done for the goal at a 1-based index",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				g, err := pick(a, args[0])
				if err != nil {
					return err
				}
				g, err = a.Toggle(cmd.Context(), g.ID)
				if err != nil {
					return err
				}
				state := "reopened"
				if g.Done {
					state = "done"
				}
				ui.OK(fmt.Sprintf("%s: %s (%d%%)", state, g.Text, a.Snapshot().Percent))
				return nil
			})
		},
	}
}

func newRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the goal at a 1-based index",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				g, err := pick(a, args[0])
				if err != nil {
					return err
				}
				if _, _, err := a.Remove(cmd.Context(), g.ID); err != nil {
					return err
				}
				ui.OK("removed " + g.Text)
				return nil
			})
		},
	}
}

func newEditCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index> <text...>",
		Short: "Replace the text of a goal",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return usagef("edit: empty text")
			}
			return e.withApp(cmd, func(a *app.App) error {
				g, err := pick(a, args[0])
				if err != nil {
					return err
				}
				if _, err := a.Edit(cmd.Context(), g.ID, text); err != nil {
					return err
				}
				ui.OK("edited")
				return nil
			})
		},
	}
}

func newTagCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <index> [tags...]",
		Short: "Replace the tags of a goal (none clears them)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				g, err := pick(a, args[0])
				if err != nil {
					return err
				}
				g, err = a.SetTags(cmd.Context(), g.ID, args[1:])
				if err != nil {
					return err
				}
				if len(g.Tags) == 0 {
					ui.OK("tags cleared")
					return nil
				}
				ui.OK("tagged #" + strings.Join(g.Tags, " #"))
				return nil
			})
		},
	}
}

func newTagsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with goal counts",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				t := ui.Current()
				counts := a.Goals.Tags()
				if len(counts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), t.Muted.Render("no tags"))
					return nil
				}
				names := make([]string, 0, len(counts))
				for name := range counts {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", t.Accent.Render("#"+name), counts[name])
				}
				return nil
			})
		},
	}
}
