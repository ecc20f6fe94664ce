// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/confighub/sourcesense/pkg/results"
	"github.com/confighub/sourcesense/pkg/selection"
	"github.com/confighub/sourcesense/pkg/wizard"
)

// View renders the model
func (m WizardModel) View() string {
	if m.quit {
		return ""
	}

	// Help overlay takes over the screen
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.loadingMessage)
		return b.String()
	}

	b.WriteString(m.renderPanes())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(wizardWarnStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp())

	return b.String()
}

// renderHeader renders the title and progress bar
func (m WizardModel) renderHeader() string {
	step := m.guard.Current()
	totalSteps := int(wizard.LastStep)
	title := fmt.Sprintf("SOURCESENSE - %s", step)

	progress := float64(step) / float64(totalSteps)
	barWidth := 20
	filled := int(progress * float64(barWidth))
	empty := barWidth - filled

	progressBar := wizardProgressBarFull.Render(strings.Repeat("█", filled)) +
		wizardProgressBarEmpty.Render(strings.Repeat("░", empty))

	stepInfo := fmt.Sprintf("Step %d of %d", step, totalSteps)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		wizardTitleStyle.Render(title),
		"  ",
		progressBar,
		"  ",
		wizardProgressStyle.Render(stepInfo),
		"  ",
		dimStyle.Render(m.getCountInfo()),
	)
}

// getCountInfo returns context-sensitive count info for the header
func (m WizardModel) getCountInfo() string {
	switch m.guard.Current() {
	case wizard.StepConnect:
		if m.guard.Authenticated() {
			return "(connected)"
		}
		return "(not connected)"

	case wizard.StepSelectMetadata:
		if m.catalog != nil {
			return fmt.Sprintf("(%d databases, %d schemas)", m.catalog.Len(), m.catalog.SchemaCount())
		}

	case wizard.StepResults:
		if id := m.poller.WorkflowID(); id != "" {
			return fmt.Sprintf("(%s, %s)", id, m.poller.Phase())
		}
		return fmt.Sprintf("(%s)", m.poller.Phase())
	}
	return ""
}

// renderSteps renders the step indicators
func (m WizardModel) renderSteps() string {
	var parts []string
	for _, ind := range m.guard.Indicators() {
		label := fmt.Sprintf("F%d %s", ind.Step, ind.Step)
		switch ind.State {
		case wizard.Active:
			parts = append(parts, wizardSelectedStyle.Render("● "+label))
		case wizard.Completed:
			parts = append(parts, wizardSuccessStyle.Render("✓ "+label))
		default:
			parts = append(parts, dimStyle.Render("○ "+label))
		}
	}
	return strings.Join(parts, "   ")
}

func (m WizardModel) paneSize() (int, int) {
	paneWidth := m.width/2 - 2
	if paneWidth < 30 {
		paneWidth = 30
	}
	paneHeight := m.height - 10
	if paneHeight < 10 {
		paneHeight = 10
	}
	return paneWidth, paneHeight
}

// renderPanes renders the split pane view
func (m WizardModel) renderPanes() string {
	paneWidth, paneHeight := m.paneSize()

	leftStyle := wizardPaneStyle.Width(paneWidth).Height(paneHeight)
	rightStyle := wizardPaneStyle.Width(paneWidth).Height(paneHeight)

	if !m.focusRight || m.guard.Current() != wizard.StepSelectMetadata {
		leftStyle = wizardPaneActiveStyle.Width(paneWidth).Height(paneHeight)
	} else {
		rightStyle = wizardPaneActiveStyle.Width(paneWidth).Height(paneHeight)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Render(m.renderLeftPane()),
		rightStyle.Render(m.renderRightPane()),
	)
}

// renderLeftPane renders content based on current step
func (m WizardModel) renderLeftPane() string {
	switch m.guard.Current() {
	case wizard.StepConnect:
		return m.renderConnectForm()
	case wizard.StepName:
		return m.renderNameForm()
	case wizard.StepSelectMetadata:
		return m.renderSelectionPane(selection.Include)
	case wizard.StepResults:
		return m.renderResultBody()
	}
	return ""
}

// renderRightPane renders details/preview based on current step
func (m WizardModel) renderRightPane() string {
	switch m.guard.Current() {
	case wizard.StepConnect:
		return m.renderConnectPreview()
	case wizard.StepName:
		return m.renderNamePreview()
	case wizard.StepSelectMetadata:
		return m.renderSelectionPane(selection.Exclude)
	case wizard.StepResults:
		return m.renderResultDetails()
	}
	return ""
}

// renderHelp renders context-sensitive help
func (m WizardModel) renderHelp() string {
	var help string
	switch m.guard.Current() {
	case wizard.StepConnect:
		help = "tab next field  enter parse URL / test / continue  ctrl+t test  ctrl+o show password  F1-F4 steps  esc quit"
	case wizard.StepName:
		help = "enter continue  ctrl+p back  F1-F4 steps  esc quit"
	case wizard.StepSelectMetadata:
		help = "↑↓ navigate  space toggle  tab switch pane  p preflight  r reload  enter run  ctrl+p back  ? help  q quit"
	case wizard.StepResults:
		help = "t json/text  r reload  s summary  l lineage  e ER  ↑↓ scroll  ctrl+p back  ? help  q quit"
	}
	return wizardHelpStyle.Render(help)
}

// Step 1

func (m WizardModel) renderConnectForm() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render("Enter a connection URL and press enter,"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("or fill in the fields below."))
	b.WriteString("\n\n")

	for i, label := range fieldLabels {
		cursor := "  "
		name := fmt.Sprintf("%-9s", label)
		if i == m.focus {
			cursor = "> "
			name = wizardSelectedStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, name, m.inputs[i].View()))
		if i == fieldURL {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.testing:
		b.WriteString(m.spinner.View() + " Testing connection...")
	case m.authErr != "":
		b.WriteString(wizardErrorStyle.Render("✗ " + m.authErr))
	case m.guard.Authenticated():
		b.WriteString(wizardSuccessStyle.Render("✓ Connected") + dimStyle.Render("  enter to continue"))
	}
	return b.String()
}

func (m WizardModel) renderConnectPreview() string {
	var b strings.Builder

	b.WriteString(wizardHeadingStyle.Render("Connection"))
	b.WriteString("\n\n")

	if p, err := m.params(); err == nil {
		b.WriteString(p.Redacted())
		b.WriteString("\n")
		if p.SSLMode != "" {
			b.WriteString(dimStyle.Render("sslmode=" + p.SSLMode))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(dimStyle.Render("Not complete: " + err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Server: " + m.app.cfg.ServerURL))
	b.WriteString("\n")
	if docs := m.app.cfg.CredentialsDocsURL; docs != "" {
		b.WriteString(dimStyle.Render("Credentials help: " + docs))
		b.WriteString("\n")
	}
	return b.String()
}

// Step 2

func (m WizardModel) renderNameForm() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render("Name this connection."))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("The name identifies its runs on the dashboard."))
	b.WriteString("\n\n")
	b.WriteString("> " + wizardSelectedStyle.Render("Name") + " " + m.nameInput.View())
	b.WriteString("\n")

	if m.nameErr != "" {
		b.WriteString("\n")
		b.WriteString(wizardErrorStyle.Render(m.nameErr))
	}
	return b.String()
}

func (m WizardModel) renderNamePreview() string {
	var b strings.Builder
	req := m.request()

	b.WriteString(wizardHeadingStyle.Render("Workflow"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Tenant:  %s\n", m.app.cfg.TenantID))
	b.WriteString(fmt.Sprintf("App:     %s\n", m.app.cfg.AppName))
	b.WriteString(fmt.Sprintf("Source:  %s\n", req.Params.Redacted()))
	return b.String()
}

// Step 3

// visibleRange picks at most limit rows around cursor.
func visibleRange(cursor, total, limit int) (int, int) {
	if limit <= 0 || total <= limit {
		return 0, total
	}
	start := cursor - limit/2
	if start < 0 {
		start = 0
	}
	if start+limit > total {
		start = total - limit
	}
	return start, start + limit
}

func (m WizardModel) renderSelectionPane(t selection.Type) string {
	var b strings.Builder
	focused := t == m.paneType()

	title := strings.ToUpper(t.String())
	if focused {
		title = wizardSelectedStyle.Render(title)
	} else {
		title = wizardHeadingStyle.Render(title)
	}
	summary := m.sel.Summary(t)
	b.WriteString(title + "  " + dimStyle.Render(summary.Text))
	b.WriteString("\n")
	for _, d := range summary.Detail {
		b.WriteString(dimStyle.Render("  " + d))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("No databases found. Press r to reload."))
		b.WriteString("\n")
		return b.String()
	}

	cursor := m.cursors[int(t)]
	_, paneHeight := m.paneSize()
	start, end := visibleRange(cursor, len(m.rows), paneHeight-4-len(summary.Detail)-m.footerLines())
	for i := start; i < end; i++ {
		row := m.rows[i]
		atCursor := focused && i == cursor
		prefix := "  "
		if atCursor {
			prefix = "> "
		}

		if row.schema == "" {
			total := len(m.catalog.Schemas(row.db))
			n := m.sel.Count(t, row.db)
			checkbox := wizardCheckboxOff.Render("☐")
			if n > 0 {
				checkbox = wizardCheckboxOn.Render("☑")
			}
			name := row.db
			if atCursor {
				name = wizardSelectedStyle.Render(name)
			}
			b.WriteString(fmt.Sprintf("%s%s %s %s\n", prefix, checkbox, name, dimStyle.Render(fmt.Sprintf("%d/%d", n, total))))
			continue
		}

		if reason := m.sel.ConflictReason(t, row.db, row.schema); reason != "" {
			b.WriteString(fmt.Sprintf("%s  %s\n", prefix, dimStyle.Render(fmt.Sprintf("- %s  (%s)", row.schema, reason))))
			continue
		}
		checkbox := wizardCheckboxOff.Render("☐")
		if m.sel.Selected(t, row.db, row.schema) {
			checkbox = wizardCheckboxOn.Render("☑")
		}
		name := row.schema
		if atCursor {
			name = wizardSelectedStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s  %s %s\n", prefix, checkbox, name))
	}

	if focused {
		b.WriteString(m.renderSelectionFooter())
	}
	return b.String()
}

func (m WizardModel) footerLines() int {
	n := len(m.checks)
	if m.selErr != "" || m.launchErr != "" || m.checking {
		n++
	}
	if n > 0 {
		n++
	}
	return n
}

func (m WizardModel) renderSelectionFooter() string {
	var b strings.Builder
	if m.footerLines() > 0 {
		b.WriteString("\n")
	}
	switch {
	case m.selErr != "":
		b.WriteString(wizardErrorStyle.Render(m.selErr) + "\n")
	case m.launchErr != "":
		b.WriteString(wizardErrorStyle.Render("✗ "+m.launchErr) + "\n")
	case m.checking:
		b.WriteString(m.spinner.View() + " Running preflight checks...\n")
	}
	for _, l := range m.checks {
		if l.OK {
			b.WriteString(wizardSuccessStyle.Render("✔ "+l.Name) + dimStyle.Render(": "+l.Message) + "\n")
		} else {
			b.WriteString(wizardErrorStyle.Render("✘ "+l.Name) + dimStyle.Render(": "+l.Message) + "\n")
		}
	}
	return b.String()
}

// Step 4

func (m WizardModel) renderResultBody() string {
	switch m.poller.Phase() {
	case results.Countdown:
		return fmt.Sprintf("%s Fetching results in %ds...", m.spinner.View(), m.poller.Remaining())
	case results.Fetching:
		return m.spinner.View() + " Fetching results..."
	case results.NotReady:
		msg := wizardWarnStyle.Render(results.MsgNotReady)
		if m.poller.Polling() {
			msg += "\n\n" + dimStyle.Render(fmt.Sprintf("Retrying every %s. r to retry now.", m.poller.Interval()))
		}
		return msg
	case results.Ready:
		return m.viewport.View()
	}
	return dimStyle.Render("Press r to load results.")
}

func (m WizardModel) renderResultDetails() string {
	var b strings.Builder

	b.WriteString(wizardHeadingStyle.Render("Run"))
	b.WriteString("\n\n")

	id := m.poller.WorkflowID()
	if id == "" {
		id = "(unknown)"
	}
	b.WriteString(fmt.Sprintf("Workflow:  %s\n", id))
	b.WriteString(fmt.Sprintf("View:      %s  %s\n", strings.ToUpper(string(m.poller.ViewMode())), dimStyle.Render("t to switch")))
	b.WriteString(fmt.Sprintf("Dashboard: %s\n", m.app.cfg.DashboardURL()))

	r := m.poller.Result()
	if r != nil {
		b.WriteString(fmt.Sprintf("%s: %s\n", r.Mode.OpenLabel(), r.RawURL))
		if r.SummaryURL != "" {
			b.WriteString(fmt.Sprintf("Summary:   %s\n", r.SummaryURL))
		}
		b.WriteString("\n")
		b.WriteString(wizardHeadingStyle.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(results.SummaryText(r.Summary))
		b.WriteString("\n")
	}

	if m.insightTitle != "" {
		b.WriteString("\n")
		b.WriteString(wizardHeadingStyle.Render(m.insightTitle))
		b.WriteString("\n")
		switch {
		case m.insightBusy:
			b.WriteString(m.spinner.View() + " Asking the model...")
		case m.insightErr != "":
			b.WriteString(wizardErrorStyle.Render(m.insightErr))
		default:
			b.WriteString(m.insightText)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderHelpOverlay renders a full-screen help overlay
func (m WizardModel) renderHelpOverlay() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		Background(lipgloss.Color("236")).
		Padding(0, 2)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("82")).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	line := func(key, desc string) string {
		return fmt.Sprintf("  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-6s", key)), descStyle.Render(desc))
	}

	b.WriteString(titleStyle.Render("SOURCESENSE - KEYBOARD SHORTCUTS"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("GLOBAL"))
	b.WriteString("\n")
	b.WriteString(line("F1-F4", "Jump to a step (2-3 need a tested connection)"))
	b.WriteString(line("ctrl+p", "Previous step"))
	b.WriteString(line("esc", "Quit wizard"))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("CONNECT (Step 1)"))
	b.WriteString("\n")
	b.WriteString(line("tab", "Next field"))
	b.WriteString(line("enter", "Parse URL, test connection, or continue"))
	b.WriteString(line("ctrl+t", "Test connection"))
	b.WriteString(line("ctrl+o", "Show or hide password"))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("SELECT METADATA (Step 3)"))
	b.WriteString("\n")
	b.WriteString(line("↑/k ↓/j", "Move cursor"))
	b.WriteString(line("space", "Toggle database or schema"))
	b.WriteString(line("tab", "Switch between include and exclude"))
	b.WriteString(line("p", "Run preflight checks"))
	b.WriteString(line("r", "Reload databases (clears selection)"))
	b.WriteString(line("enter", "Start the workflow"))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("RESULTS (Step 4)"))
	b.WriteString("\n")
	b.WriteString(line("t", "Switch between JSON and text"))
	b.WriteString(line("r", "Fetch again now"))
	b.WriteString(line("s", "AI summary"))
	b.WriteString(line("l / e", "Lineage / ER diagram"))

	b.WriteString("\n")
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true)
	b.WriteString(footerStyle.Render("Press any key to close this help"))

	return b.String()
}
