package ui

import "strings"

// helpView renders the full key binding reference.
func (m *Model) helpView() string {
	styles := m.renderer.Styles()

	sections := []struct {
		title string
		keys  [][2]string
	}{
		{"Browse", [][2]string{
			{"j/k, ↑/↓", "move selection"},
			{"n/p, ←/→", "next / previous page"},
			{"enter", "package detail"},
			{"q", "quit (filters are saved)"},
		}},
		{"Filter", [][2]string{
			{"/", "free-text search (debounced)"},
			{"f", "filter expression (tag: license: stars: cite: rating: folder: cat: has:)"},
			{"s", "cycle sort key"},
			{"S", "flip sort direction"},
			{"r", "reset all filters"},
			{"R", "refresh facet metadata"},
		}},
		{"Contribute", [][2]string{
			{"1-5", "rate the selected package"},
			{"u", "suggest a new package"},
			{"m", "moderation queue (admin)"},
		}},
	}

	var b strings.Builder
	for _, s := range sections {
		b.WriteString(styles.Highlight.Render(s.title))
		b.WriteByte('\n')
		for _, k := range s.keys {
			b.WriteString("  " + styles.Filter.Render(padRight(k[0], 12)) + k[1] + "\n")
		}
		b.WriteByte('\n')
	}
	b.WriteString(styles.Help.Render("press any key to close"))
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
