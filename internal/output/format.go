// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"taskdesk/internal/service"
	"taskdesk/internal/tasklist"
)

// EmptyMessage is printed when a page has no tasks.
const EmptyMessage = "no tasks found"

// DueLayout is how due dates are shown.
const DueLayout = "2006-01-02 15:04"

const maxDescription = 40

// Format selects how a page is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("invalid output format: %s", s)
}

var badgeStyles = map[service.Status]lipgloss.Style{
	service.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	service.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	service.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
}

// StatusBadge renders a status with its color.
func StatusBadge(s service.Status) string {
	style, ok := badgeStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// FormatTask formats a single task line.
// Format: "{N:>4}  {TITLE} [{STATUS}]\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s [%s]\n", num, normalizeTitle(task.Title), StatusBadge(task.Status))
}

// WritePage writes a page view in the given format.
func WritePage(w io.Writer, format Format, view tasklist.View) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newPageDoc(view))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newPageDoc(view)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return WriteTable(w, view)
	}
}

// WriteTable writes a page as an aligned table followed by a page footer.
func WriteTable(w io.Writer, view tasklist.View) error {
	if len(view.Items) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return writeFooter(w, view)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tTITLE\tDESCRIPTION\tDUE\tSTATUS")
	for i, task := range view.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			view.RowNumber(i),
			normalizeTitle(task.Title),
			shorten(task.Description),
			formatDue(task.DueDate),
			StatusBadge(task.Status),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeFooter(w, view)
}

func writeFooter(w io.Writer, view tasklist.View) error {
	_, err := fmt.Fprintf(w, "page %d of %d\n", view.Page, max(view.TotalPages, 1))
	return err
}

type pageDoc struct {
	Page       int            `json:"page" yaml:"page"`
	PageSize   int            `json:"pageSize" yaml:"page_size"`
	TotalPages int            `json:"totalPages" yaml:"total_pages"`
	Tasks      []service.Task `json:"tasks" yaml:"tasks"`
}

func newPageDoc(view tasklist.View) pageDoc {
	items := view.Items
	if items == nil {
		items = []service.Task{}
	}
	return pageDoc{
		Page:       view.Page,
		PageSize:   view.PageSize,
		TotalPages: view.TotalPages,
		Tasks:      items,
	}
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format(DueLayout)
}

// shorten flattens a description to one line of bounded width.
func shorten(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) > maxDescription {
		return string(r[:maxDescription-1]) + "…"
	}
	return s
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
