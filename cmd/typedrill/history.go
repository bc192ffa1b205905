package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typedrill/internal/historyui"
	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/stats"
	"github.com/verte-zerg/typedrill/internal/store"
)

const defaultTrendWindow = 5

var (
	historyDoc    string
	historySince  string
	historyLast   int
	historyWindow int
	historyTUI    bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded rounds",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyDoc, "doc", "", "document id filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&historyWindow, "window", defaultTrendWindow, "moving average window")
	cmd.Flags().BoolVarP(&historyTUI, "interactive", "i", false, "browse history in a TUI")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(historyDoc, historySince, historyLast)
	if err != nil {
		return err
	}
	if historyWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	return withStore(func(st *store.Store) error {
		if historyTUI {
			ui := historyui.NewModel(st, historyui.Settings{Filter: filter, Window: historyWindow})
			if _, err := tea.NewProgram(ui, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("failed to run history UI: %w", err)
			}
			return nil
		}
		report, err := stats.BuildReport(context.Background(), st, filter)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		out := cmd.OutOrStdout()
		if err := stats.RenderSummary(out, report.Records); err != nil {
			return err
		}
		if err := stats.RenderHistoryTable(out, report.Records); err != nil {
			return err
		}
		return stats.RenderTrend(out, report.Records, historyWindow, 0)
	})
}

func historyFilter(doc, since string, last int) (model.HistoryFilter, error) {
	if last < 0 {
		return model.HistoryFilter{}, fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{DocID: doc, Last: last}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}
