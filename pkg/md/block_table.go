package md

import (
	"fmt"
	"strings"
)

// rowCell is one pipe-separated cell of a table row.
type rowCell struct {
	text  string
	start int
	end   int
}

// splitRow splits a table row on unescaped pipes. Leading and trailing pipes
// are optional. It also reports whether the row contained any pipe.
func splitRow(l line) ([]rowCell, bool) {
	l = l.trimLeft().trimRight()
	t := l.text
	from, to := 0, len(t)
	hasPipe := false
	if from < to && t[from] == '|' {
		from++
		hasPipe = true
	}
	if to > from && t[to-1] == '|' && (to < 2 || t[to-2] != '\\') {
		to--
		hasPipe = true
	}
	var cells []rowCell
	cellStart := from
	add := func(a, b int) {
		for a < b && (t[a] == ' ' || t[a] == '\t') {
			a++
		}
		for b > a && (t[b-1] == ' ' || t[b-1] == '\t') {
			b--
		}
		cells = append(cells, rowCell{text: t[a:b], start: l.sourceOffset(a), end: l.sourceOffset(b)})
	}
	for i := from; i < to; i++ {
		switch t[i] {
		case '\\':
			i++
		case '|':
			hasPipe = true
			add(cellStart, i)
			cellStart = i + 1
		}
	}
	add(cellStart, to)
	return cells, hasPipe
}

// parseDelimiterRow recognizes a `| :--- | :-: | --: |` row.
func parseDelimiterRow(l line) ([]Alignment, bool) {
	cols, _ := l.indent()
	if cols > 3 {
		return nil, false
	}
	cells, hasPipe := splitRow(l)
	if len(cells) == 0 {
		return nil, false
	}
	align := make([]Alignment, len(cells))
	for k, c := range cells {
		t := c.text
		left := strings.HasPrefix(t, ":")
		right := strings.HasSuffix(t, ":") && len(t) > 1
		t = strings.TrimPrefix(t, ":")
		t = strings.TrimSuffix(t, ":")
		if t == "" || strings.Trim(t, "-") != "" {
			return nil, false
		}
		switch {
		case left && right:
			align[k] = AlignCenter
		case left:
			align[k] = AlignLeft
		case right:
			align[k] = AlignRight
		}
	}
	if !hasPipe && len(cells) == 1 {
		return nil, false
	}
	return align, true
}

// tableStart recognizes a table at s.i, either a header row followed by a
// delimiter row or a headerless table that opens with its delimiter row.
func (s *blockScanner) tableStart() bool {
	l := s.lines[s.i]
	if align, ok := parseDelimiterRow(l); ok {
		if s.i+1 < len(s.lines) && !s.lines[s.i+1].isBlank() && !s.interruptsParagraph(s.lines[s.i+1]) {
			s.buildTable(nil, s.i, align)
			return true
		}
		return false
	}
	if s.i+1 >= len(s.lines) {
		return false
	}
	return s.headerTable(l, s.i+1)
}

// tableAfterParagraph turns the last line of an open paragraph into a table
// header when the current line is a matching delimiter row.
func (s *blockScanner) tableAfterParagraph() bool {
	header := s.para[len(s.para)-1]
	if _, ok := parseDelimiterRow(s.lines[s.i]); !ok {
		return false
	}
	cells, hasPipe := splitRow(header)
	align, _ := parseDelimiterRow(s.lines[s.i])
	if len(cells) != len(align) {
		if hasPipe {
			s.warnMalformedTable(header, len(cells), len(align))
		}
		return false
	}
	s.para = s.para[:len(s.para)-1]
	if len(s.para) == 0 {
		s.para = nil
	}
	s.closeParagraph()
	s.buildTable(&header, s.i, align)
	return true
}

func (s *blockScanner) headerTable(header line, delim int) bool {
	align, ok := parseDelimiterRow(s.lines[delim])
	if !ok {
		return false
	}
	cells, hasPipe := splitRow(header)
	if len(cells) != len(align) {
		if hasPipe {
			s.warnMalformedTable(header, len(cells), len(align))
		}
		return false
	}
	s.buildTable(&header, delim, align)
	return true
}

func (s *blockScanner) warnMalformedTable(header line, cells, delims int) {
	s.p.diags.warn(CategoryStructural, Span{header.start, header.end()},
		fmt.Sprintf("malformed table: header has %d cells but delimiter row has %d; rendered as text", cells, delims))
}

// buildTable emits a table whose delimiter row is at index delim.
func (s *blockScanner) buildTable(header *line, delim int, align []Alignment) {
	table := &RawBlock{
		Kind:  KindTable,
		Table: &TableAttrs{Align: align, HasHeader: header != nil},
	}
	row := func(l line, isHeader bool) *RawBlock {
		cells, _ := splitRow(l)
		r := &RawBlock{Kind: KindTableRow, Header: isHeader, Span: Span{l.start, l.end()}}
		for k, a := range align {
			var c *RawBlock
			if k < len(cells) {
				c = &RawBlock{
					Kind:    KindTableCell,
					Align:   a,
					Span:    Span{cells[k].start, cells[k].end},
					Content: contentOf(cells[k].text, cells[k].start),
				}
			} else {
				end := l.end()
				c = &RawBlock{Kind: KindTableCell, Align: a, Span: Span{end, end}, Content: contentOf("", end)}
			}
			r.Children = append(r.Children, c)
		}
		return r
	}
	start := s.lines[delim].start
	if header != nil {
		start = header.start
		table.Children = append(table.Children, row(*header, true))
	}
	end := s.lines[delim].end()
	j := delim + 1
	for ; j < len(s.lines); j++ {
		l := s.lines[j]
		if l.isBlank() || s.interruptsParagraph(l) {
			break
		}
		table.Children = append(table.Children, row(l, false))
		end = l.end()
	}
	table.Span = Span{start, end}
	s.emit(table)
	s.i = j
}
