// Package templates renders the explorer's HTML pages as templ components.
package templates

//go:generate templ generate

import (
	"math"
	"strconv"
	"sync"

	"github.com/a-h/templ"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/JonMunkholm/explorer/internal/core"
)

var (
	mdMu    sync.Mutex
	mdCache = map[string]string{}
)

// Markdown renders a markdown blurb. Sources are fixed strings, so each is
// converted once.
func Markdown(src string) templ.Component {
	mdMu.Lock()
	out, ok := mdCache[src]
	if !ok {
		p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
		r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
		out = string(markdown.ToHTML([]byte(src), p, r))
		mdCache[src] = out
	}
	mdMu.Unlock()
	return templ.Raw(out)
}

// FormatNumber renders a statistic rounded to four decimals; NaN prints as "NaN".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

func num(n core.Number) string { return FormatNumber(float64(n)) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
