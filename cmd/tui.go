// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/Thermoquad/velocictl/mup1coap"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI showing live frame activity and request statistics",
	Long: `Connects to the device and shows a live-updating terminal view of
every pong, announcement, CoAP response, system and trace frame received,
alongside rolling request/response latency statistics.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// frameItem is one received frame, rendered as a row in the event list.
// It implements list.Item so frames can be browsed/selected the way the
// device list in the teacher's control TUI is.
type frameItem struct {
	at      time.Time
	kind    string
	message string
	isError bool
}

func (f frameItem) Title() string {
	title := fmt.Sprintf("%s  %-8s %s", f.at.Format("15:04:05.000"), f.kind, f.message)
	if f.isError {
		return errStyle.Render(title)
	}
	return title
}
func (f frameItem) Description() string { return "" }
func (f frameItem) FilterValue() string { return f.kind + " " + f.message }

type tickMsg time.Time
type frameMsg frameItem
type traceMsg string

type monitorModel struct {
	ctrl         *mup1coap.Controller
	list         list.Model
	trace        viewport.Model
	traceContent string

	maxLogLines int
	stats       mup1coap.StatsSnapshot
	width       int
	height      int
	ready       bool
	quitting    bool
}

func newMonitorModel(ctrl *mup1coap.Controller) monitorModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Frames"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return monitorModel{
		ctrl:        ctrl,
		list:        l,
		trace:       viewport.New(0, 0),
		maxLogLines: 200,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.updateLayout()
		m.ready = true

	case tickMsg:
		m.stats = m.ctrl.Stats()
		return m, tickCmd()

	case frameMsg:
		m.list.InsertItem(len(m.list.Items()), frameItem(msg))
		if len(m.list.Items()) > m.maxLogLines {
			m.list.RemoveItem(0)
		}
		m.list.Select(len(m.list.Items()) - 1)

	case traceMsg:
		if m.traceContent != "" {
			m.traceContent += "\n"
		}
		m.traceContent += string(msg)
		m.trace.SetContent(m.traceContent)
		m.trace.GotoBottom()
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *monitorModel) updateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	listHeight := m.height - 6
	if listHeight < 5 {
		listHeight = 5
	}
	leftWidth := m.width * 2 / 3
	rightWidth := m.width - leftWidth - 4

	m.list.SetSize(leftWidth, listHeight)
	m.trace.Width = rightWidth
	m.trace.Height = listHeight
}

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}
	header := headerStyle.Render("velocictl monitor") + "  " + dimStyle.Render("(q to quit)") + "\n"
	header += fmt.Sprintf("%s\n\n", m.stats)

	if !m.ready {
		return header + "initializing...\n"
	}

	left := boxStyle.Render(m.list.View())
	right := boxStyle.Render("TRACE\n" + m.trace.View())
	return header + lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctrl, err := openController(mup1coap.WithTraceCapacity(0))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	m := newMonitorModel(ctrl)
	p := tea.NewProgram(m, tea.WithAltScreen())

	send := func(kind string, formatted string, isError bool) {
		p.Send(frameMsg{at: time.Now(), kind: kind, message: formatted, isError: isError})
	}
	ctrl.On(mup1coap.EventPong, func(ev mup1coap.Event) { send("PONG", "", false) })
	ctrl.On(mup1coap.EventAnnounce, func(ev mup1coap.Event) {
		if ev.Info != nil {
			send("ANNOUNCE", fmt.Sprintf("%s fw=%s serial=%s", ev.Info.DeviceType, ev.Info.FirmwareVersion, ev.Info.SerialNumber), false)
		} else {
			send("ANNOUNCE", fmt.Sprintf("%q", ev.Raw), true)
		}
	})
	ctrl.On(mup1coap.EventCoAPResponse, func(ev mup1coap.Event) { send("COAP", fmt.Sprintf("% X", ev.Raw), false) })
	ctrl.On(mup1coap.EventSystem, func(ev mup1coap.Event) { send("SYSTEM", fmt.Sprintf("% X", ev.Raw), false) })
	ctrl.On(mup1coap.EventTrace, func(ev mup1coap.Event) {
		p.Send(traceMsg(fmt.Sprintf("%s % X", time.Now().Format("15:04:05.000"), ev.Raw)))
	})

	_, err = p.Run()
	return err
}
