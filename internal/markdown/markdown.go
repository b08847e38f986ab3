package markdown

import (
	"strings"
	"sync"

	internalstrings "github.com/amonks/fileconverter/internal/strings"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Style selects the glamour style.
type Style string

const (
	// StyleASCII renders without escape codes. Use it when output is not a terminal.
	StyleASCII Style = "ascii"
	StyleDark  Style = "dark"
	StyleLight Style = "light"
)

type renderer interface {
	Render(string) (string, error)
}

type rendererKey struct {
	width int
	style Style
}

var (
	rendererMu sync.Mutex
	renderers  = map[rendererKey]renderer{}
)

// Render formats markdown text for terminal output.
func Render(width, indent int, style Style, input []byte) []byte {
	if len(input) == 0 {
		return nil
	}
	value := internalstrings.NormalizeNewlines(string(input))
	value = internalstrings.TrimTrailingNewlines(value)
	if strings.TrimSpace(value) == "" {
		return nil
	}
	width = max(width, 1)
	indent = max(indent, 0)
	renderWidth := max(width-indent, 1)

	rendered := value
	if r := markdownRenderer(renderWidth, style); r != nil {
		formatted, err := r.Render(value)
		if err == nil {
			rendered = formatted
		}
	}
	rendered = internalstrings.TrimTrailingNewlines(rendered)
	if strings.TrimSpace(rendered) == "" {
		return nil
	}
	return []byte(internalstrings.IndentBlock(rendered, indent))
}

// SafeRender is Render that falls back to the raw markdown if the renderer panics.
func SafeRender(width, indent int, style Style, input []byte) (out []byte) {
	defer func() {
		if recovered := recover(); recovered != nil {
			value := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(string(input)))
			out = []byte(internalstrings.IndentBlock(value, max(indent, 0)))
		}
	}()
	return Render(width, indent, style, input)
}

func markdownRenderer(width int, style Style) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	key := rendererKey{width: width, style: style}
	if cached, ok := renderers[key]; ok {
		return cached
	}
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig(style)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[key] = created
	return created
}

func styleConfig(style Style) ansi.StyleConfig {
	switch style {
	case StyleDark:
		return styles.DarkStyleConfig
	case StyleLight:
		return styles.LightStyleConfig
	}
	config := styles.ASCIIStyleConfig
	config.Item.BlockPrefix = "- "
	return config
}
