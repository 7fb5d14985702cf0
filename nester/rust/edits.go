package nester

import (
	"bytes"
	"sort"
	"strings"

	"aspect.build/usenest/nester/rust/parser"
	"aspect.build/usenest/nester/rust/render"
)

// Edit replaces the bytes [Start, End) of a text with NewText.
type Edit struct {
	Start, End int
	NewText    string
}

// ApplyEdits returns a copy of text with edits applied. Edits must not
// overlap; they may be given in any order.
func ApplyEdits(text []byte, edits []Edit) []byte {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var out bytes.Buffer
	out.Grow(len(text))
	pos := 0
	for _, e := range sorted {
		out.Write(text[pos:e.Start])
		out.WriteString(e.NewText)
		pos = e.End
	}
	out.Write(text[pos:])
	return out.Bytes()
}

// ComputeEdits returns the edits that delete every declaration and insert
// block where the first one was. Declarations separated only by spaces are
// deleted as one span, and a span that is alone on its line is deleted
// together with the line. When the block takes whole lines and the code
// after it would follow directly, a blank line is added after it. Without
// declarations there are no edits.
func ComputeEdits(source []byte, decls []*parser.UseDeclaration, block render.Block) []Edit {
	if len(decls) == 0 {
		return nil
	}

	eol := lineEnding(source)

	var edits []Edit
	for i := 0; i < len(decls); {
		spanStart, spanEnd := decls[i].StartByte, decls[i].EndByte
		for i++; i < len(decls) && isInlineSpace(source[spanEnd:decls[i].StartByte]); i++ {
			spanEnd = decls[i].EndByte
		}

		start, end, wholeLine := deletionRange(source, spanStart, spanEnd)
		e := Edit{Start: start, End: end}
		if len(edits) == 0 && len(block) > 0 {
			e.NewText = strings.Join(block, eol)
			if wholeLine {
				e.NewText += eol
			}
		}
		edits = append(edits, e)
	}

	if first := &edits[0]; strings.HasSuffix(first.NewText, eol) {
		next := first.End
		for _, e := range edits[1:] {
			if e.Start != next {
				break
			}
			next = e.End
		}
		if next < len(source) && source[next] != '\n' && source[next] != '\r' {
			first.NewText += eol
		}
	}

	return edits
}

// deletionRange widens [start, end) to the whole line, terminator included,
// when nothing but whitespace shares the line with it.
func deletionRange(source []byte, start, end int) (int, int, bool) {
	lineStart := bytes.LastIndexByte(source[:start], '\n') + 1

	lineEnd := len(source)
	if i := bytes.IndexByte(source[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}

	if isBlank(source[lineStart:start]) && isBlank(source[end:lineEnd]) {
		if lineEnd < len(source) {
			lineEnd++
		}
		return lineStart, lineEnd, true
	}
	return start, end, false
}

func isInlineSpace(b []byte) bool {
	return len(bytes.Trim(b, " \t")) == 0
}

func isBlank(b []byte) bool {
	return len(bytes.Trim(b, " \t\r")) == 0
}

func lineEnding(source []byte) string {
	if bytes.Contains(source, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}
