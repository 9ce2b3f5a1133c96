package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdesk/internal/output"
	"taskdesk/internal/service"
	"taskdesk/internal/taskform"
	"taskdesk/internal/tasklist"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// editor holds one text input per form field while the form is open.
type editor struct {
	inputs []textinput.Model
	focus  int
}

func newEditor(d taskform.Draft) *editor {
	values := map[taskform.Field]string{
		taskform.FieldTitle:       d.Title,
		taskform.FieldDescription: d.Description,
		taskform.FieldStatus:      d.Status,
		taskform.FieldDueDate:     d.DueDate,
	}
	e := &editor{}
	for _, field := range taskform.Fields() {
		ti := newInput(fieldPlaceholder(field))
		ti.SetValue(values[field])
		e.inputs = append(e.inputs, ti)
	}
	e.inputs[0].Focus()
	return e
}

func fieldLabel(field taskform.Field) string {
	switch field {
	case taskform.FieldDescription:
		return "Description"
	case taskform.FieldStatus:
		return "Status"
	case taskform.FieldDueDate:
		return "Due date"
	default:
		return "Title"
	}
}

func fieldPlaceholder(field taskform.Field) string {
	switch field {
	case taskform.FieldStatus:
		return "pending, in-progress or completed"
	case taskform.FieldDueDate:
		return taskform.EditLayout
	default:
		return fieldLabel(field)
	}
}

func (e *editor) move(delta int) {
	e.inputs[e.focus].Blur()
	e.focus = (e.focus + delta + len(e.inputs)) % len(e.inputs)
	e.inputs[e.focus].Focus()
}

func (m *Model) updateTasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor != nil {
		return m.updateEditor(msg)
	}
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.ctrl.View().Items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter", " ":
		if task, ok := m.selected(); ok {
			m.ctrl.ToggleMenu(task.ID)
		}
	case "esc":
		m.ctrl.CloseMenu()
	case "a":
		m.ctrl.RequestCreate()
		m.editor = newEditor(m.ctrl.Form().Draft())
	case "e":
		if task, ok := m.selected(); ok {
			m.ctrl.RequestEdit(task)
			m.editor = newEditor(m.ctrl.Form().Draft())
		}
	case "d":
		if task, ok := m.selected(); ok {
			c := m.ctrl.RequestDelete(task)
			m.confirm = &c
		}
	case "l", "right", "n":
		m.cursor = 0
		return m, m.load(m.ctrl.NextPage)
	case "h", "left", "p":
		m.cursor = 0
		return m, m.load(m.ctrl.PrevPage)
	case "r":
		return m, m.load(m.ctrl.Refresh)
	case "L":
		return m, m.logout()
	}
	return m, nil
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.editor
	switch msg.String() {
	case "esc":
		m.ctrl.CloseForm()
		m.editor = nil
		return m, nil
	case "tab", "down":
		e.move(1)
		return m, nil
	case "shift+tab", "up":
		e.move(-1)
		return m, nil
	case "enter", "ctrl+s":
		return m, m.submitForm()
	}

	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return m, cmd
}

func (m *Model) submitForm() tea.Cmd {
	form := m.ctrl.Form()
	if form.Submitting() {
		return nil
	}
	for i, field := range taskform.Fields() {
		if err := form.UpdateField(field, m.editor.inputs[i].Value()); err != nil {
			m.setStatus(err.Error(), true)
			return nil
		}
	}
	return func() tea.Msg {
		return savedMsg{err: m.ctrl.SubmitForm(m.ctx)}
	}
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirm = nil
		return m, func() tea.Msg {
			return deletedMsg{err: m.ctrl.ConfirmDelete(m.ctx)}
		}
	case "n", "N", "esc":
		m.ctrl.CancelDelete()
		m.confirm = nil
	}
	return m, nil
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg{err: m.app.Session.Logout(context.WithoutCancel(m.ctx))}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskdesk"))
	if id, ok := m.app.Session.Identity(); ok && m.screen == screenTasks {
		b.WriteString("  " + dimStyle.Render(id.Email))
	}
	b.WriteString("\n\n")

	switch m.screen {
	case screenLoading:
		b.WriteString(dimStyle.Render("Loading..."))
	case screenAuth:
		m.viewAuth(&b)
	case screenTasks:
		m.viewTasks(&b)
	}

	if m.status != "" {
		style := okStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n\n" + style.Render(m.status))
	}
	return b.String() + "\n"
}

func (m *Model) viewTasks(b *strings.Builder) {
	view := m.ctrl.View()
	switch {
	case len(view.Items) > 0:
		m.viewRows(b, view)
	case m.ctrl.Phase() == tasklist.PhaseLoading || m.ctrl.Phase() == tasklist.PhaseIdle:
		b.WriteString(dimStyle.Render("Loading tasks...") + "\n")
	case m.ctrl.Phase() == tasklist.PhaseError:
		b.WriteString(errorStyle.Render(tasklist.MsgLoadFailed+" (r to retry)") + "\n")
	default:
		b.WriteString(dimStyle.Render(output.EmptyMessage) + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("page %d of %d", view.Page, max(view.TotalPages, 1))) + "\n")

	switch {
	case m.editor != nil:
		b.WriteString("\n" + m.viewEditor())
	case m.confirm != nil:
		b.WriteString("\n" + modalStyle.Render(fmt.Sprintf("%s\n%s\n\n[y] yes  [n] no",
			m.confirm.Prompt, headingStyle.Render(m.confirm.Task.Title))))
	default:
		b.WriteString("\n" + helpStyle.Render("j/k move • enter menu • a add • e edit • d delete • h/l page • r refresh • L log out • q quit"))
	}
}

func (m *Model) viewRows(b *strings.Builder, view tasklist.View) {
	menu, _ := m.ctrl.OpenMenu()
	for i, task := range view.Items {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		fmt.Fprintf(b, "%s%2d  %s  %s%s\n", marker, view.RowNumber(i), task.Title,
			output.StatusBadge(task.Status), dueSuffix(task))
		if task.Description != "" {
			b.WriteString("      " + dimStyle.Render(task.Description) + "\n")
		}
		if task.ID == menu {
			b.WriteString("      " + helpStyle.Render("[e] edit  [d] delete  [esc] close") + "\n")
		}
	}
}

func dueSuffix(task service.Task) string {
	if task.DueDate == nil {
		return ""
	}
	return dimStyle.Render("  due " + task.DueDate.Local().Format(output.DueLayout))
}

func (m *Model) viewEditor() string {
	var b strings.Builder
	form := m.ctrl.Form()
	title := "New task"
	if _, ok := form.Editing(); ok {
		title = "Edit task"
	}
	b.WriteString(headingStyle.Render(title) + "\n")

	errs := form.Errors()
	for i, field := range taskform.Fields() {
		b.WriteString(labelStyle.Render(fieldLabel(field)) + "\n")
		b.WriteString(m.editor.inputs[i].View() + "\n")
		if msg, ok := errs[field]; ok {
			b.WriteString(errorStyle.Render(msg) + "\n")
		}
	}
	if form.Submitting() {
		b.WriteString(dimStyle.Render("Saving...") + "\n")
	}
	b.WriteString(helpStyle.Render("enter save • tab next field • esc cancel"))
	return modalStyle.Render(b.String())
}
