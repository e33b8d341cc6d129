package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/okian/teamdraw/internal/domain/types"
)

const emptyTeam = "(empty)"

var (
	titleColor   = lipgloss.Color("#8BC34A")
	teamColor    = lipgloss.Color("#2196F3")
	warningColor = lipgloss.Color("#FFC107")
)

type renderFunc func(w io.Writer, results []types.SortResponse) error

func rendererFor(format string) (renderFunc, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case OutputText, "":
		return renderText, nil
	case OutputJSON:
		return renderJSON, nil
	case OutputYAML:
		return renderYAML, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, format)
}

// renderText prints each round like the form page: a header line then one
// line per team.
func renderText(w io.Writer, results []types.SortResponse) error {
	re := lipgloss.NewRenderer(w)
	title := re.NewStyle().Bold(true).Foreground(titleColor)
	team := re.NewStyle().Bold(true).Foreground(teamColor)
	warning := re.NewStyle().Italic(true).Foreground(warningColor)

	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		header, _, _ := strings.Cut(res.Summary, "\n")
		b.WriteString(title.Render(header))
		b.WriteString("\n")
		for _, t := range res.Teams {
			members := emptyTeam
			if len(t.Members) > 0 {
				members = strings.Join(t.Members, ", ")
			}
			fmt.Fprintf(&b, "%s %s\n", team.Render(fmt.Sprintf("Team %d:", t.Number)), members)
		}
		if res.Warning != "" {
			b.WriteString(warning.Render(res.Warning))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderJSON(w io.Writer, results []types.SortResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderYAML(w io.Writer, results []types.SortResponse) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return err
	}
	return enc.Close()
}
