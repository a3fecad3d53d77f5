package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for cards.
type Theme struct {
	Primary lipgloss.Color // Borders and title
	Dim     lipgloss.Color // Labels and status
}

// DefaultTheme is the default warm rose theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#e88ca6"),
	Dim:     lipgloss.Color("#8b7d82"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
	Status lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Foreground(t.Dim),
		Value:  lipgloss.NewStyle(),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Status: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Row is one label/value line of a Card.
type Row struct {
	Label string
	Value string
}

// Section groups rows under a label. The first section may have an empty
// label.
type Section struct {
	Label string
	Rows  []Row
}

// Card renders a boxed summary:
//
//	╭────────────────────────────╮
//	│ womb  [a1b2c3d4]           │
//	├─ bed ──────────────────────┤
//	│ heart rate   110 bpm       │
//	╰────────────────────────────╯
type Card struct {
	Styles   Styles
	Title    string
	Status   string
	Sections []Section
	// Width is the outer width. Zero sizes the card to its content.
	Width int
}

// NewCard creates a card with the default theme.
func NewCard(title, status string) *Card {
	return &Card{Styles: NewStyles(DefaultTheme), Title: title, Status: status}
}

// Add appends rows to the section with the given label, creating it if
// needed.
func (c *Card) Add(section string, rows ...Row) *Card {
	for i := range c.Sections {
		if c.Sections[i].Label == section {
			c.Sections[i].Rows = append(c.Sections[i].Rows, rows...)
			return c
		}
	}
	c.Sections = append(c.Sections, Section{Label: section, Rows: rows})
	return c
}

func (c *Card) labelWidth() int {
	w := 0
	for _, sec := range c.Sections {
		for _, r := range sec.Rows {
			w = max(w, lipgloss.Width(r.Label))
		}
	}
	return w
}

func (c *Card) contentWidth(labelW int) int {
	w := lipgloss.Width(c.Title) + 1
	if c.Status != "" {
		w += lipgloss.Width(c.Status) + 3
	}
	for _, sec := range c.Sections {
		w = max(w, lipgloss.Width(sec.Label)+3)
		for _, r := range sec.Rows {
			w = max(w, labelW+2+lipgloss.Width(r.Value))
		}
	}
	return w
}

// Render renders the card to a string.
func (c *Card) Render() string {
	bc := c.Styles.Border
	labelW := c.labelWidth()
	inner := c.contentWidth(labelW)
	if c.Width > 4 {
		inner = c.Width - 4
	}

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", inner+2)+"╮"))

	head := c.Styles.Title.Render(c.Title)
	if c.Status != "" {
		head += "  " + c.Styles.Status.Render("["+c.Status+"]")
	}
	lines = append(lines, c.line(head, inner))

	for _, sec := range c.Sections {
		if sec.Label != "" {
			label := " " + c.Styles.Title.Render(sec.Label) + " "
			pad := max(0, inner+1-lipgloss.Width(label))
			lines = append(lines, bc.Render("├─")+label+bc.Render(strings.Repeat("─", pad)+"┤"))
		}
		for _, r := range sec.Rows {
			label := c.Styles.Label.Render(r.Label + strings.Repeat(" ", labelW-lipgloss.Width(r.Label)))
			value := r.Value
			if room := inner - labelW - 2; room > 1 && lipgloss.Width(value) > room {
				value = truncateString(value, room-1) + "…"
			}
			lines = append(lines, c.line(label+"  "+c.Styles.Value.Render(value), inner))
		}
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", inner+2)+"╯"))
	return strings.Join(lines, "\n")
}

func (c *Card) line(text string, inner int) string {
	bc := c.Styles.Border
	pad := max(0, inner-lipgloss.Width(text))
	return bc.Render("│") + " " + text + strings.Repeat(" ", pad) + " " + bc.Render("│")
}

// Text implements Texter.
func (c *Card) Text() string {
	return c.Render()
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
