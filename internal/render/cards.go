// Package render turns task records into terminal cards: a heading with the
// identity and title, a priority badge, a metadata line and the engine's
// explanation.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/prio/pkg/models"
)

// EmptyMessage is rendered in place of an empty task list.
const EmptyMessage = "No tasks to display."

const metaSeparator = " • "

var (
	headingStyle = lipgloss.NewStyle().Bold(true)

	badgeHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	badgeMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badgeLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	metaStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	explanationStyle = lipgloss.NewStyle().Italic(true)
	emptyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Card is the plain-text content of one task summary.
type Card struct {
	Heading     string
	Badge       string
	BadgeClass  string // high, medium or low
	Meta        string
	Explanation string
}

// Cards builds one card per task, in order. It returns nil for an empty list.
func Cards(tasks []models.Task) []Card {
	if len(tasks) == 0 {
		return nil
	}
	cards := make([]Card, len(tasks))
	for i, t := range tasks {
		cards[i] = cardFor(t)
	}
	return cards
}

func cardFor(t models.Task) Card {
	id := t.ID
	if id == "" {
		id = "-"
	}

	label := t.PriorityLabel
	if label == "" {
		label = "N/A"
	}
	score := "?"
	if t.Score != nil {
		score = formatNumber(*t.Score)
	} else if v, ok := extraText(t, "score"); ok {
		score = v
	}

	due := "No due date"
	if t.DueDate != nil && *t.DueDate != "" {
		due = "Due: " + *t.DueDate
	}

	est := "Est: N/A"
	if t.EstimatedHours != nil {
		est = "Est: " + formatNumber(*t.EstimatedHours) + "h"
	} else if v, ok := extraText(t, "estimated_hours"); ok {
		est = "Est: " + v + "h"
	}

	importance := "N/A"
	if t.Importance != nil {
		importance = strconv.Itoa(*t.Importance)
	} else if v, ok := extraText(t, "importance"); ok {
		importance = v
	}

	deps := "None"
	if len(t.Dependencies) > 0 {
		if joined := strings.Join(t.Dependencies, ", "); joined != "" {
			deps = joined
		}
	}

	return Card{
		Heading:    fmt.Sprintf("%s • %s", id, t.Title),
		Badge:      fmt.Sprintf("%s (%s)", label, score),
		BadgeClass: badgeClass(t.PriorityLabel),
		Meta: strings.Join([]string{
			due,
			est,
			"Importance: " + importance,
			"Depends on: " + deps,
		}, metaSeparator),
		Explanation: t.Explanation,
	}
}

// String renders the card as three plain lines.
func (c Card) String() string {
	return fmt.Sprintf("%s  %s\n%s\n%s", c.Heading, c.Badge, c.Meta, c.Explanation)
}

// View renders the card with terminal styling. width bounds the card
// including its border; zero means unbounded.
func (c Card) View(width int) string {
	header := headingStyle.Render(c.Heading) + "  " + BadgeStyle(c.BadgeClass).Render(c.Badge)
	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		metaStyle.Render(c.Meta),
		explanationStyle.Render(c.Explanation),
	)
	style := cardStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(body)
}

// BadgeStyle returns the badge appearance for a badge class.
func BadgeStyle(class string) lipgloss.Style {
	switch class {
	case models.LabelHigh:
		return badgeHigh
	case models.LabelMedium:
		return badgeMedium
	default:
		return badgeLow
	}
}

// List renders tasks as stacked cards, or the empty message.
func List(tasks []models.Task, width int) string {
	cards := Cards(tasks)
	if len(cards) == 0 {
		return emptyStyle.Render(EmptyMessage)
	}
	views := make([]string, len(cards))
	for i, c := range cards {
		views[i] = c.View(width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}

// Write renders tasks to w. Plain output writes each card as text separated
// by blank lines; otherwise the styled cards are written.
func Write(w io.Writer, tasks []models.Task, plain bool) error {
	var out string
	switch {
	case plain && len(tasks) == 0:
		out = EmptyMessage
	case plain:
		cards := Cards(tasks)
		parts := make([]string, len(cards))
		for i, c := range cards {
			parts[i] = c.String()
		}
		out = strings.Join(parts, "\n\n")
	default:
		out = List(tasks, 0)
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return fmt.Errorf("writing tasks: %w", err)
	}
	return nil
}

func badgeClass(label string) string {
	switch strings.ToLower(label) {
	case models.LabelHigh:
		return models.LabelHigh
	case models.LabelMedium:
		return models.LabelMedium
	default:
		return models.LabelLow
	}
}

// extraText renders a raw attribute kept in the extra bag: strings without
// quotes, other values as their JSON text. Null counts as absent.
func extraText(t models.Task, key string) (string, bool) {
	raw, ok := t.RawExtra(key)
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, true
	}
	return string(raw), true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
