package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ragcore/ragcore"
)

func newStatusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a namespace's index and cache occupancy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch {
				return runStatusWatch(cmd)
			}
			return runStatusOnce(cmd)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Continuously refresh the status display")
	return cmd
}

func runStatusOnce(cmd *cobra.Command) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.GetStatus(tenantID, scenarioID)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatStatusLine(stats))
	return nil
}

func runStatusWatch(cmd *cobra.Command) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.Close()

	m := &statusModel{core: c, tenant: tenantID, scenario: scenarioID}
	program := tea.NewProgram(m, tea.WithContext(cmd.Context()))
	_, err = program.Run()
	return err
}

func formatStatusLine(stats ragcore.Stats) string {
	return fmt.Sprintf(
		"indices_loaded=%v  exact_cache=%d/%d  semantic_cache=%d/%d  total_queries=%d  hybrid=%d  bm25_only=%d  vector_only=%d  failed=%d",
		stats.IndicesLoaded,
		stats.CacheStats.ExactEntries, stats.CacheStats.ExactCapacity,
		stats.CacheStats.SemanticEntries, stats.CacheStats.SemanticCapacity,
		stats.RetrievalStats.TotalQueries,
		stats.RetrievalStats.Hybrid, stats.RetrievalStats.BM25Only, stats.RetrievalStats.VectorOnly, stats.RetrievalStats.Failed,
	)
}

type statusTickMsg time.Time

type statusModel struct {
	core     *ragcore.Core
	tenant   string
	scenario string
	stats    ragcore.Stats
	err      error
	quitting bool
}

func (m *statusModel) Init() tea.Cmd {
	return statusTickCmd()
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m *statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	case statusTickMsg:
		m.stats, m.err = m.core.GetStatus(m.tenant, m.scenario)
		return m, statusTickCmd()
	}
	return m, nil
}

var statusTitleStyle = lipgloss.NewStyle().Bold(true)

func (m *statusModel) View() string {
	if m.quitting {
		return "Stopped watching.\n"
	}
	header := statusTitleStyle.Render(fmt.Sprintf("ragcore status — tenant=%s scenario=%s", m.tenant, m.scenario))
	if m.err != nil {
		return fmt.Sprintf("%s\n\nerror: %s\n\n(press q to quit)\n", header, m.err.Error())
	}
	return fmt.Sprintf("%s\n\n%s\n\n(press q to quit)\n", header, formatStatusLine(m.stats))
}
