package md

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// ImportOptions configures the HTML to Markdown conversion.
type ImportOptions struct {
	// Plain drops Marco widget markup and keeps only the widget content
	// instead of rebuilding `:::` and `@slidestart` containers.
	Plain bool
}

// markerPrefix and markerSuffix wrap placeholder IDs. The format contains no
// Markdown punctuation, so it survives conversion untouched.
const (
	markerPrefix = "MARCOMARK"
	markerSuffix = "END"
)

var markerPattern = regexp.MustCompile(markerPrefix + `(\d+)` + markerSuffix)

// FromHTML converts HTML to Markdown.
func FromHTML(html string) (string, error) {
	return FromHTMLWithOptions(html, ImportOptions{})
}

// FromHTMLWithOptions converts HTML to Markdown. Widgets produced by Render
// (admonitions, tab groups, slide decks, footnotes, math) are turned back
// into their Marco syntax.
func FromHTMLWithOptions(html string, opts ImportOptions) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	html, markers, err := preprocessWidgets(html, opts.Plain)
	if err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert html: %w", err)
	}

	markdown = markerPattern.ReplaceAllStringFunc(markdown, func(m string) string {
		id, _ := strconv.Atoi(markerPattern.FindStringSubmatch(m)[1])
		return markers[id]
	})
	return strings.TrimSpace(markdown), nil
}

// widgetRewriter replaces widget elements with placeholder paragraphs and
// remembers the Markdown each placeholder stands for.
type widgetRewriter struct {
	markers map[int]string
	plain   bool
}

func (w *widgetRewriter) mark(markdown string) string {
	id := len(w.markers)
	w.markers[id] = markdown
	return markerPrefix + strconv.Itoa(id) + markerSuffix
}

func (w *widgetRewriter) block(markdown string) string {
	if w.plain {
		return ""
	}
	return "<p>" + w.mark(markdown) + "</p>"
}

func preprocessWidgets(html string, plain bool) (string, map[int]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse html: %w", err)
	}
	w := &widgetRewriter{markers: make(map[int]string), plain: plain}

	// Tab labels are read by tabs before the tab list goes away.
	doc.Find("script, style, input.marco-tabs__radio, input.marco-sliders__radio, " +
		".marco-sliders__dots, a.footnote-backref").Remove()

	doc.Find("span.math").Each(func(_ int, s *goquery.Selection) {
		delim := "$"
		if s.HasClass("math-display") {
			delim = "$$"
		}
		s.ReplaceWithHtml(w.mark(delim + s.Text() + delim))
	})

	doc.Find("sup.footnote-ref").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml(w.mark("[^" + strings.TrimSpace(s.Text()) + "]"))
	})

	doc.Find("section.footnotes").Each(func(_ int, s *goquery.Selection) {
		var sb strings.Builder
		s.Find("ol > li").Each(func(k int, li *goquery.Selection) {
			label := strings.TrimPrefix(li.AttrOr("id", ""), "fn-")
			if label == "" {
				label = strconv.Itoa(k + 1)
			}
			body := strings.TrimSpace(li.Text())
			sb.WriteString("<p>" + w.mark("[^"+label+"]: ") + body + "</p>")
		})
		s.ReplaceWithHtml(sb.String())
	})

	// Innermost widgets first, so the content of outer ones already holds
	// placeholders.
	widgets := doc.Find("div.marco-admonition, div.marco-tabs, div.marco-sliders")
	for k := widgets.Length() - 1; k >= 0; k-- {
		s := widgets.Eq(k)
		switch {
		case s.HasClass("marco-admonition"):
			w.admonition(s)
		case s.HasClass("marco-tabs"):
			w.tabs(s)
		default:
			w.slides(s)
		}
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize html: %w", err)
	}
	return out, w.markers, nil
}

func (w *widgetRewriter) admonition(s *goquery.Selection) {
	kind := "note"
	for _, class := range strings.Fields(s.AttrOr("class", "")) {
		if k, ok := strings.CutPrefix(class, "marco-admonition-"); ok && k != "quote" {
			kind = k
		}
	}
	titleSel := s.ChildrenFiltered(".marco-admonition-title")
	titleSel.Find(".marco-admonition-icon").Remove()
	title := strings.TrimSpace(titleSel.Text())
	body, _ := s.ChildrenFiltered(".marco-admonition-content").Html()

	opener := ":::" + kind
	if !strings.EqualFold(title, kind) && title != "" {
		opener += "[" + title + "]"
	}
	s.ReplaceWithHtml(w.block(opener) + body + w.block(":::"))
}

func (w *widgetRewriter) tabs(s *goquery.Selection) {
	var titles []string
	s.Find("label.marco-tabs__tab").Each(func(_ int, l *goquery.Selection) {
		titles = append(titles, strings.TrimSpace(l.Text()))
	})
	var sb strings.Builder
	sb.WriteString(w.block(":::tab"))
	s.Find(".marco-tabs__panels").First().ChildrenFiltered(".marco-tabs__panel").Each(func(k int, p *goquery.Selection) {
		title := "Tab " + strconv.Itoa(k+1)
		if k < len(titles) && titles[k] != "" {
			title = titles[k]
		}
		body, _ := p.Html()
		sb.WriteString(w.block("@tab " + title))
		sb.WriteString(body)
	})
	sb.WriteString(w.block(":::"))
	s.ReplaceWithHtml(sb.String())
}

func (w *widgetRewriter) slides(s *goquery.Selection) {
	opener := "@slidestart"
	if timer := s.AttrOr("data-timer", ""); timer != "" {
		opener += ":t" + timer
	}
	var sb strings.Builder
	sb.WriteString(w.block(opener))
	s.Find(".marco-sliders__viewport").First().ChildrenFiltered(".marco-sliders__slide").Each(func(k int, p *goquery.Selection) {
		if k > 0 {
			sep := "---"
			if p.HasClass("marco-sliders__slide--vertical") {
				sep = "--"
			}
			sb.WriteString(w.block(sep))
		}
		body, _ := p.Html()
		sb.WriteString(body)
	})
	sb.WriteString(w.block("@slideend"))
	s.ReplaceWithHtml(sb.String())
}
