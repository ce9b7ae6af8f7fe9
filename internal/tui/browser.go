package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chemviz/internal/api"
	"chemviz/internal/app"
	"chemviz/internal/summary"
	"chemviz/internal/upload"
)

type focusArea int

const (
	focusList focusArea = iota
	focusDetail
)

// browser is the authenticated view: dataset list on the left, summary
// table and charts on the right, upload picker as an overlay.
type browser struct {
	app   *app.Application
	theme Theme

	width  int
	height int

	focus     focusArea
	items     []api.Dataset
	selected  int
	hasSel    bool
	detailOff int

	picking bool
	picker  filepicker.Model

	busy       bool
	statusText string
	statusErr  bool
	spinnerPos int
}

func newBrowser(application *app.Application, theme Theme) browser {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv"}
	if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}

	b := browser{
		app:    application,
		theme:  theme,
		picker: fp,
	}
	b.reload()
	return b
}

// reload pulls a fresh snapshot out of the dataset store.
func (b *browser) reload() {
	b.items, b.selected, b.hasSel = b.app.Datasets.Snapshot()
}

func (b browser) Update(msg tea.Msg) (browser, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.picker.Height = max(5, b.height-10)
		return b, nil

	case tea.KeyMsg:
		if b.picking {
			return b.updatePicker(msg)
		}
		return b.updateKeys(msg)

	case refreshResultMsg:
		b.busy = false
		if msg.err != nil {
			// Fail open: keep showing the last known good listing.
			b.setStatus(UserMessage(msg.err), true)
			return b, nil
		}
		b.reload()
		b.setStatus("Listing refreshed.", false)
		return b, nil

	case uploadResultMsg:
		if msg.err != nil {
			b.busy = false
			b.setStatus(UserMessage(msg.err), true)
			return b, nil
		}
		// Terminal success: release the pipeline back to idle and pull
		// the listing the new dataset now appears in.
		b.app.Uploads.Reset()
		b.setStatus("Upload successful.", false)
		return b, b.refreshCmd()

	case exportResultMsg:
		b.busy = false
		if msg.err != nil {
			b.setStatus(UserMessage(msg.err), true)
			return b, nil
		}
		b.setStatus("Saved "+strings.Join(msg.paths, ", "), false)
		return b, nil

	case spinMsg:
		b.spinnerPos = (b.spinnerPos + 1) % len(spinnerFrames)
		if b.busy {
			return b, spinTick()
		}
		return b, nil
	}

	if b.picking {
		var cmd tea.Cmd
		b.picker, cmd = b.picker.Update(msg)
		return b, cmd
	}
	return b, nil
}

func (b browser) updateKeys(msg tea.KeyMsg) (browser, tea.Cmd) {
	switch msg.String() {
	case "tab":
		if b.focus == focusList {
			b.focus = focusDetail
		} else {
			b.focus = focusList
		}
		return b, nil

	case "up", "k":
		if b.focus == focusList {
			b.moveSelection(-1)
		} else if b.detailOff > 0 {
			b.detailOff--
		}
		return b, nil

	case "down", "j":
		if b.focus == focusList {
			b.moveSelection(1)
		} else {
			b.detailOff++
		}
		return b, nil

	case "r":
		if b.busy {
			return b, nil
		}
		b.busy = true
		b.setStatus("Refreshing…", false)
		return b, tea.Batch(b.refreshCmd(), spinTick())

	case "u":
		if b.busy {
			return b, nil
		}
		b.picking = true
		return b, b.picker.Init()

	case "p":
		if b.busy {
			return b, nil
		}
		if !b.hasSel {
			b.setStatus("Select a dataset to export.", true)
			return b, nil
		}
		b.busy = true
		b.setStatus("Exporting PDF…", false)
		return b, tea.Batch(b.exportPDFCmd(b.selected), spinTick())

	case "c":
		if b.busy {
			return b, nil
		}
		sel, ok := b.app.Datasets.Selected()
		if !ok {
			b.setStatus("Select a dataset to export.", true)
			return b, nil
		}
		b.busy = true
		b.setStatus("Exporting charts…", false)
		return b, tea.Batch(b.exportChartsCmd(sel), spinTick())
	}
	return b, nil
}

func (b browser) updatePicker(msg tea.KeyMsg) (browser, tea.Cmd) {
	if msg.String() == "esc" {
		b.picking = false
		return b, nil
	}
	var cmd tea.Cmd
	b.picker, cmd = b.picker.Update(msg)

	if ok, path := b.picker.DidSelectFile(msg); ok {
		b.picking = false
		if err := b.app.Uploads.Select(path); err != nil {
			b.setStatus(UserMessage(err), true)
			return b, nil
		}
		b.busy = true
		b.setStatus("Uploading "+shortPath(path)+"…", false)
		return b, tea.Batch(b.submitCmd(), spinTick())
	}
	if ok, _ := b.picker.DidSelectDisabledFile(msg); ok {
		b.setStatus(UserMessage(upload.ErrNotCSV), true)
	}
	return b, cmd
}

func (b *browser) moveSelection(delta int) {
	if len(b.items) == 0 {
		return
	}
	idx := 0
	for i, d := range b.items {
		if b.hasSel && d.ID == b.selected {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.items) {
		idx = len(b.items) - 1
	}
	if err := b.app.Datasets.Select(b.items[idx].ID); err == nil {
		b.selected = b.items[idx].ID
		b.hasSel = true
		b.detailOff = 0
	}
}

func (b *browser) setStatus(text string, isErr bool) {
	b.statusText = text
	b.statusErr = isErr
}

// Commands. Each one threads the credential it was issued under, so a
// result that lands after logout carries a dead epoch/generation and is
// discarded by the stores, not here.

func (b browser) refreshCmd() tea.Cmd {
	datasets := b.app.Datasets
	sess := b.app.Session
	return func() tea.Msg {
		cred, ok := sess.Credential()
		if !ok {
			return refreshResultMsg{err: upload.ErrNoCredential}
		}
		return refreshResultMsg{err: datasets.Refresh(context.Background(), cred)}
	}
}

func (b browser) submitCmd() tea.Cmd {
	uploads := b.app.Uploads
	sess := b.app.Session
	return func() tea.Msg {
		var credPtr *api.Credential
		if cred, ok := sess.Credential(); ok {
			credPtr = &cred
		}
		return uploadResultMsg{err: uploads.Submit(context.Background(), credPtr)}
	}
}

func (b browser) exportPDFCmd(id int) tea.Cmd {
	exports := b.app.Exports
	sess := b.app.Session
	return func() tea.Msg {
		cred, ok := sess.Credential()
		if !ok {
			return exportResultMsg{err: upload.ErrNoCredential}
		}
		path, err := exports.ExportPDF(context.Background(), cred, id)
		if err != nil {
			return exportResultMsg{err: err}
		}
		return exportResultMsg{paths: []string{path}}
	}
}

func (b browser) exportChartsCmd(ds api.Dataset) tea.Cmd {
	exports := b.app.Exports
	proj := summary.Project(ds.Summary)
	return func() tea.Msg {
		paths, err := exports.ExportCharts(proj, ds.ID)
		return exportResultMsg{paths: paths, err: err}
	}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func shortPath(p string) string {
	parts := strings.Split(p, string(os.PathSeparator))
	if len(parts) == 0 {
		return p
	}
	return parts[len(parts)-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// --- rendering ---

func (b browser) View() string {
	if b.picking {
		title := b.theme.PaneTitleF.Render("Choose a CSV file (esc to cancel)")
		return lipgloss.JoinVertical(lipgloss.Left, b.renderTopBar(), title, b.picker.View(), b.renderFooter())
	}

	top := b.renderTopBar()
	listW := 34
	if b.width > 0 && b.width < 90 {
		listW = b.width / 3
	}
	detailW := b.width - listW - 3
	if detailW < 30 {
		detailW = 30
	}
	mainH := b.height - 4
	if mainH < 5 {
		mainH = 5
	}

	list := b.renderList(listW, mainH)
	detail := b.renderDetail(detailW, mainH)
	main := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	return lipgloss.JoinVertical(lipgloss.Left, top, main, b.renderFooter())
}

func (b browser) renderTopBar() string {
	left := b.theme.TopBarTitle.Render("chemviz")
	if cred, ok := b.app.Session.Credential(); ok {
		left += " " + b.theme.TopBarMeta.Render("user: "+cred.Username)
		if b.app.Session.IsAdmin() {
			left += " " + b.theme.TopBarBadge.Render("ADMIN")
		}
	}

	status := b.statusText
	if b.busy {
		status = spinnerFrames[b.spinnerPos] + " " + status
		status = b.theme.Spinner.Render(status)
	} else if b.statusErr {
		status = b.theme.StatusErr.Render(status)
	} else if status != "" {
		status = b.theme.StatusOK.Render(status)
	}

	gap := b.width - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 2 {
		gap = 2
	}
	return b.theme.TopBar.Render(left + strings.Repeat(" ", gap) + status)
}

func (b browser) renderFooter() string {
	hints := "↑/↓ select  tab focus  r refresh  u upload  p pdf  c charts  ctrl+l logout  q quit"
	if b.width > 0 && b.width < 100 {
		hints = "↑/↓ select  r refresh  u upload  p pdf  ctrl+l logout  q quit"
	}
	return b.theme.Footer.Width(max(10, b.width)).Render(hints)
}

func (b browser) renderList(w, h int) string {
	heading := "My Uploads"
	if b.app.Session.IsAdmin() {
		heading = "All Datasets"
	}
	title := b.theme.PaneTitle.Render(heading)
	if b.focus == focusList {
		title = b.theme.PaneTitleF.Render(heading)
	}

	var rows []string
	if len(b.items) == 0 {
		rows = append(rows, b.theme.StatusInfo.Render("No datasets yet. Press u to upload."))
	}
	for _, d := range b.items {
		line := d.FileName()
		meta := d.UploadedAt.Local().Format("2006-01-02 15:04")
		if b.app.Session.IsAdmin() && d.UploadedBy != "" {
			meta += "  by " + d.UploadedBy
		}
		style := b.theme.ListItem
		prefix := "  "
		if b.hasSel && d.ID == b.selected {
			style = b.theme.ListItemSel
			prefix = "> "
		}
		rows = append(rows, style.Render(prefix+line)+"\n"+b.theme.ListMeta.Render("   "+meta))
	}

	pane := b.theme.Pane
	if b.focus == focusList {
		pane = b.theme.PaneFocused
	}
	body := title + "\n" + strings.Join(rows, "\n")
	return pane.Width(w).Height(h).Render(body)
}

func (b browser) renderDetail(w, h int) string {
	pane := b.theme.Pane
	if b.focus == focusDetail {
		pane = b.theme.PaneFocused
	}

	sel, ok := b.app.Datasets.Selected()
	if !ok {
		empty := b.theme.PaneTitle.Render("No dataset selected") + "\n\n" +
			b.theme.StatusInfo.Render("Upload a dataset to get started.")
		return pane.Width(w).Height(h).Render(empty)
	}

	proj := summary.Project(sel.Summary)
	innerW := w - 4

	var body strings.Builder
	body.WriteString(b.theme.PaneTitleF.Render("Dataset Summary"))
	body.WriteString("  ")
	body.WriteString(b.theme.TopBarMeta.Render(sel.FileName()))
	body.WriteString("\n\n")
	body.WriteString(b.renderSummaryTable(sel.Summary, innerW))
	body.WriteString("\n\n")
	body.WriteString(b.theme.PaneTitle.Render("Average Parameter Values"))
	body.WriteString("\n")
	body.WriteString(renderBarChart(b.theme, proj, innerW))
	body.WriteString("\n\n")
	body.WriteString(b.theme.PaneTitle.Render("Type Distribution"))
	body.WriteString("\n")
	body.WriteString(renderTypeChart(b.theme, proj, innerW))

	content := clipLines(body.String(), b.detailOff, h-2)
	return pane.Width(w).Height(h).Render(content)
}

func (b browser) renderSummaryTable(s api.Summary, w int) string {
	var out strings.Builder
	out.WriteString(b.theme.BarLabel.Render("Total rows: "))
	out.WriteString(b.theme.TopBarBadge.Render(fmt.Sprintf("%d", s.TotalCount)))
	out.WriteString("\n")
	for _, a := range s.Averages {
		val := "N/A"
		if a.Value != nil {
			val = fmt.Sprintf("%.3f", *a.Value)
		}
		out.WriteString(b.theme.ListMeta.Render(fmt.Sprintf("  %-14s %s", a.Name, val)))
		out.WriteString("\n")
	}
	for _, t := range s.Types {
		out.WriteString(b.theme.ListMeta.Render(fmt.Sprintf("  %-14s %d", t.Name, t.Count)))
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n")
}

// clipLines windows body to height rows starting at off, for detail
// scrolling without a full viewport component.
func clipLines(body string, off, height int) string {
	lines := strings.Split(body, "\n")
	if off >= len(lines) {
		off = max(0, len(lines)-1)
	}
	end := off + max(1, height)
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[off:end], "\n")
}
