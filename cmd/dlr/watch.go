package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dealersim/internal/api"
	cl "dealersim/internal/cli"
	"dealersim/internal/syncq"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type watchTab int

const (
	tabInventory watchTab = iota
	tabDeals
	tabActivity
)

func (t watchTab) String() string {
	switch t {
	case tabDeals:
		return "recent deals"
	case tabActivity:
		return "lead activity"
	default:
		return "inventory"
	}
}

type stateMsg struct {
	st  api.StateView
	err error
}

type actionMsg struct {
	text string
	err  error
}

type pollMsg struct{}

type watchModel struct {
	ctx    context.Context
	client *cl.Client
	every  time.Duration

	st      api.StateView
	loaded  bool
	tab     watchTab
	table   table.Model
	status  string
	lastErr error
	width   int
}

func (a *app) newWatchCmd() *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard (q quits, p pause, c close out, +/- speed, tab switches view)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("watch needs an interactive terminal; use `dlr state` instead")
			}
			m := newWatchModel(cmd.Context(), a.client(), every)
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&every, "every", time.Second, "refresh interval")
	return cmd
}

func newWatchModel(ctx context.Context, client *cl.Client, every time.Duration) watchModel {
	t := table.New(table.WithFocused(true), table.WithHeight(12))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)
	m := watchModel{ctx: ctx, client: client, every: every, table: t}
	m.table.SetColumns(m.columns())
	return m
}

func (m watchModel) Init() tea.Cmd {
	return m.fetch()
}

func (m watchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()
		st, err := m.client.State(ctx)
		return stateMsg{st: st, err: err}
	}
}

func (m watchModel) poll() tea.Cmd {
	return tea.Tick(m.every, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m watchModel) command(path string, body map[string]any, okText string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()
		_, err := m.client.Command(ctx, syncq.Command{
			Method:         http.MethodPost,
			Path:           path,
			Body:           body,
			IdempotencyKey: uuid.NewString(),
		})
		return actionMsg{text: okText, err: err}
	}
}

func (m watchModel) closeOut() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()
		rep, err := m.client.CloseOut(ctx, false, uuid.NewString())
		if err != nil {
			return actionMsg{err: err}
		}
		if _, err := m.client.Command(ctx, syncq.Command{Method: http.MethodPost, Path: "/v1/resume"}); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: fmt.Sprintf("Closed %s: %d units, net cash %s", rep.Date, rep.UnitsSold, signedMoney(rep.NetCashFlow))}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(5, msg.Height-14))
		return m, nil
	case stateMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.st = msg.st
			m.loaded = true
			m.table.SetRows(m.rows())
		}
		return m, m.poll()
	case pollMsg:
		return m, m.fetch()
	case actionMsg:
		if msg.err != nil {
			m.status = lossStyle.Render(msg.err.Error())
		} else {
			m.status = gainStyle.Render(msg.text)
		}
		return m, m.fetch()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.tab = (m.tab + 1) % 3
			m.table.SetRows(nil)
			m.table.SetColumns(m.columns())
			m.table.SetRows(m.rows())
			m.table.GotoTop()
			return m, nil
		case "p":
			if m.st.Paused {
				return m, m.command("/v1/resume", nil, "Resumed")
			}
			return m, m.command("/v1/pause", nil, "Paused")
		case "c":
			if !m.st.AwaitingCloseout {
				m.status = alertStyle.Render("The business day has not ended yet")
				return m, nil
			}
			return m, m.closeOut()
		case "+", "=":
			return m, m.setSpeed(nextSpeed(m.st.Speed, 1))
		case "-", "_":
			return m, m.setSpeed(nextSpeed(m.st.Speed, -1))
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m watchModel) setSpeed(speed int) tea.Cmd {
	return m.command("/v1/speed", map[string]any{"speed": speed}, fmt.Sprintf("Speed %dx", speed))
}

var speeds = []int{1, 2, 4, 8}

func nextSpeed(current, dir int) int {
	idx := 0
	for i, s := range speeds {
		if s == current {
			idx = i
		}
	}
	idx += dir
	idx = max(0, min(len(speeds)-1, idx))
	return speeds[idx]
}

func (m watchModel) columns() []table.Column {
	switch m.tab {
	case tabDeals:
		return []table.Column{
			{Title: "Time", Width: 11},
			{Title: "Stock", Width: 8},
			{Title: "Vehicle", Width: 28},
			{Title: "Customer", Width: 14},
			{Title: "Sold", Width: 10},
			{Title: "Front", Width: 9},
			{Title: "Back", Width: 8},
		}
	case tabActivity:
		return []table.Column{
			{Title: "Time", Width: 9},
			{Title: "Kind", Width: 13},
			{Title: "Advisor", Width: 10},
			{Title: "Customer", Width: 14},
			{Title: "Detail", Width: 40},
		}
	default:
		return []table.Column{
			{Title: "Stock", Width: 8},
			{Title: "Vehicle", Width: 28},
			{Title: "Segment", Width: 10},
			{Title: "Status", Width: 8},
			{Title: "Asking", Width: 10},
			{Title: "Floor", Width: 10},
			{Title: "Age", Width: 4},
		}
	}
}

func (m watchModel) rows() []table.Row {
	switch m.tab {
	case tabDeals:
		deals := m.st.RecentDeals
		rows := make([]table.Row, 0, len(deals))
		for i := len(deals) - 1; i >= 0; i-- {
			d := deals[i]
			rows = append(rows, table.Row{
				fmt.Sprintf("%02d/%02d %02d:00", d.Month, d.Day, d.Hour),
				d.StockNumber,
				truncate(d.Vehicle, 28),
				d.Customer,
				money(d.SoldPrice),
				money(d.FrontGross),
				money(d.BackGross),
			})
		}
		return rows
	case tabActivity:
		acts := m.st.LeadActivity
		rows := make([]table.Row, 0, len(acts))
		for i := len(acts) - 1; i >= 0; i-- {
			a := acts[i]
			rows = append(rows, table.Row{
				fmt.Sprintf("d%d %02d:%02d", a.Day, a.Hour, a.Minute),
				a.Kind,
				truncate(a.AdvisorID, 10),
				a.Customer,
				truncate(a.Detail, 40),
			})
		}
		return rows
	default:
		rows := make([]table.Row, 0, len(m.st.Inventory))
		for _, v := range m.st.Inventory {
			rows = append(rows, table.Row{
				v.StockNumber,
				truncate(vehicleName(v), 28),
				v.Segment,
				string(v.Status),
				money(v.Asking),
				money(v.Floor),
				fmt.Sprint(v.AgeDays),
			})
		}
		return rows
	}
}

func (m watchModel) View() string {
	if !m.loaded {
		if m.lastErr != nil {
			return lossStyle.Render("cannot reach API: "+m.lastErr.Error()) + "\n\n" + footerStyle.Render("q quit")
		}
		return "Loading dealership...\n"
	}
	st := m.st

	clock := gainStyle.Render("OPEN")
	switch {
	case st.AwaitingCloseout:
		clock = alertStyle.Render("DAY ENDED, press c to close out")
	case st.Paused:
		clock = labelStyle.Render("PAUSED")
	}
	header := titleStyle.Render(fmt.Sprintf("%s  %02d:00", st.Date, st.Hour)) + "  " + clock +
		labelStyle.Render(fmt.Sprintf("  speed %dx", st.Speed))

	cash := "$" + money(st.Cash)
	if st.Cash < 0 {
		cash = lossStyle.Render(cash)
	}
	stats := strings.Join([]string{
		kv("Cash", cash),
		kv("CSI", fmt.Sprintf("%.1f", st.CSI)),
		kv("Morale", fmt.Sprintf("%.1f", st.MoraleIndex)),
		kv("Lot", fmt.Sprintf("%d/%d", st.InStock, st.Capacity.LotSize)),
		kv("Advisors", fmt.Sprint(len(st.Advisors))),
		kv("Techs", fmt.Sprint(len(st.Technicians))),
		kv("Queue", fmt.Sprint(len(st.ServiceQueue))),
	}, "   ")
	today := strings.Join([]string{
		kv("Leads", fmt.Sprint(st.Today.Leads)),
		kv("Sold", fmt.Sprint(st.Today.UnitsSold)),
		kv("Front", money(st.Today.FrontGross)),
		kv("Back", money(st.Today.BackGross)),
		kv("ROs", fmt.Sprint(st.Today.ROsCompleted)),
		kv("Comebacks", fmt.Sprint(st.Today.Comebacks)),
	}, "   ")

	note := ""
	if n := len(st.Notifications); n > 0 {
		note = alertStyle.Render(truncate(st.Notifications[n-1], max(20, m.width-4)))
	}

	parts := []string{
		header,
		panelStyle.Render(stats + "\n" + today),
		titleStyle.Render(strings.ToUpper(m.tab.String())),
		m.table.View(),
	}
	if note != "" {
		parts = append(parts, note)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.lastErr != nil {
		parts = append(parts, lossStyle.Render("refresh failed: "+m.lastErr.Error()))
	}
	parts = append(parts, footerStyle.Render("q quit  p pause/resume  c close out  +/- speed  tab view  up/down scroll"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func kv(label, value string) string {
	return labelStyle.Render(label+" ") + value
}

var _ tea.Model = watchModel{}
