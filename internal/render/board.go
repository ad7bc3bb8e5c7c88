package render

import (
	"fmt"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Options controls what Board includes
type Options struct {
	// Details renders each card's description below its title
	Details bool
}

// glamour renderers are expensive to build, so they are cached by width
var rendererCache sync.Map // map[int]*glamour.TermRenderer

func getRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	rendererCache.Store(width, renderer)
	return renderer, nil
}

// Description renders markdown for a card body. Rendering failures fall back to the raw text.
func Description(text string, width int) string {
	renderer, err := getRenderer(width)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// Board renders the board header followed by its columns side by side, in order
func (s Styles) Board(detail *models.BoardDetail, opts Options) string {
	header := s.Header.Render(fmt.Sprintf("%s (#%d)", detail.Name, detail.ID))

	if len(detail.Columns) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, s.Empty.Render("No columns"))
	}

	columns := make([]string, len(detail.Columns))
	for i, col := range detail.Columns {
		columns[i] = s.Column(col, opts)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}

// Column renders one column box with its cards in order
//
// Layout:
//
//	{Title} ({count})
//	#0 {Card}
//	#1 {Card}
//	...
func (s Styles) Column(col *models.BoardColumn, opts Options) string {
	var content strings.Builder
	content.WriteString(s.Title.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Cards))))

	if len(col.Cards) == 0 {
		content.WriteString("\n" + s.Empty.Render("No cards"))
	}
	for _, card := range col.Cards {
		content.WriteString("\n" + s.card(card, opts))
	}

	return s.Box.Render(content.String())
}

func (s Styles) card(card *models.Card, opts Options) string {
	body := fmt.Sprintf("#%d %s", card.Order, card.Title)
	if opts.Details && card.Description != "" {
		body += "\n" + Description(card.Description, ColumnWidth-2)
	}
	return s.Card.Render(body)
}

// Verified renders the outcome of an ordering check
func (s Styles) Verified(err error) string {
	if err != nil {
		return s.Violation.Render("order violation: " + err.Error())
	}
	return s.Success.Render("ordering verified")
}
