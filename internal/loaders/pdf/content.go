package pdf

import (
	"sort"
	"strings"
)

// textRun is one shown string with its device-space position. Widths
// are approximated from the font size because embedded width tables
// are not read.
type textRun struct {
	x, y  float64
	size  float64
	text  string
	width float64
}

// glyphWidthFactor approximates the average advance of a glyph as a
// fraction of the font size. Good enough for highlight rectangles.
const glyphWidthFactor = 0.5

// matrix is a PDF text matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// textState tracks the subset of the PDF text machine needed for
// positioned extraction.
type textState struct {
	tm       matrix // text matrix
	tlm      matrix // text line matrix
	fontSize float64
	leading  float64
	runs     []textRun
}

// extractText interprets the text operators of one decoded content
// stream and returns the positioned runs.
func extractText(content []byte) ([]textRun, error) {
	lex := &lexer{data: content}
	st := &textState{tm: identity, tlm: identity, fontSize: 12}

	var operands []any
	for {
		lex.skipSpace()
		if lex.eof() {
			break
		}
		tok, err := lex.token()
		if err != nil {
			return nil, err
		}
		op, isOp := tok.(keyword)
		if !isOp {
			operands = append(operands, tok)
			continue
		}
		st.apply(string(op), operands)
		operands = operands[:0]
	}
	return st.runs, nil
}

func (st *textState) apply(op string, operands []any) {
	switch op {
	case "BT":
		st.tm, st.tlm = identity, identity
	case "Tf":
		if len(operands) >= 2 {
			st.fontSize = num(operands[len(operands)-1])
		}
	case "TL":
		if len(operands) >= 1 {
			st.leading = num(operands[0])
		}
	case "Td":
		if len(operands) >= 2 {
			st.newline(num(operands[0]), num(operands[1]))
		}
	case "TD":
		if len(operands) >= 2 {
			st.leading = -num(operands[1])
			st.newline(num(operands[0]), num(operands[1]))
		}
	case "T*":
		st.newline(0, -st.leading)
	case "Tm":
		if len(operands) >= 6 {
			var m matrix
			for i := range m {
				m[i] = num(operands[i])
			}
			st.tm, st.tlm = m, m
		}
	case "Tj":
		if len(operands) >= 1 {
			st.show(str(operands[0]))
		}
	case "'":
		st.newline(0, -st.leading)
		if len(operands) >= 1 {
			st.show(str(operands[0]))
		}
	case "\"":
		st.newline(0, -st.leading)
		if len(operands) >= 3 {
			st.show(str(operands[2]))
		}
	case "TJ":
		if len(operands) >= 1 {
			st.showArray(operands[0])
		}
	}
}

// newline translates the line matrix and restarts the text matrix
// from it.
func (st *textState) newline(tx, ty float64) {
	st.tlm = matrix{1, 0, 0, 1, tx, ty}.mul(st.tlm)
	st.tm = st.tlm
}

// show records one string at the current position and advances the
// text matrix past it.
func (st *textState) show(s string) {
	if s == "" {
		return
	}
	scale := st.tm[0]
	if scale == 0 {
		scale = 1
	}
	size := st.fontSize * scale
	advance := float64(len([]rune(s))) * glyphWidthFactor * size

	st.runs = append(st.runs, textRun{
		x:     st.tm[4],
		y:     st.tm[5],
		size:  size,
		text:  s,
		width: advance,
	})
	st.tm = matrix{1, 0, 0, 1, advance / scale, 0}.mul(st.tm)
}

// showArray handles TJ: strings interleaved with kerning adjustments
// in thousandths of the font size.
func (st *textState) showArray(operand any) {
	arr, ok := operand.([]any)
	if !ok {
		return
	}
	for _, item := range arr {
		switch v := item.(type) {
		case string:
			st.show(v)
		case float64:
			st.tm = matrix{1, 0, 0, 1, -v / 1000 * st.fontSize, 0}.mul(st.tm)
		}
	}
}

// line groups runs that share a baseline.
type line struct {
	y    float64
	runs []textRun
}

// assembleLines sorts runs top to bottom, left to right, and merges
// runs whose baselines are within half a glyph of each other.
func assembleLines(runs []textRun) []line {
	if len(runs) == 0 {
		return nil
	}

	sorted := make([]textRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].y != sorted[j].y {
			return sorted[i].y > sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})

	var lines []line
	for _, run := range sorted {
		tolerance := run.size / 2
		if tolerance <= 0 {
			tolerance = 2
		}
		if n := len(lines); n > 0 && abs(lines[n-1].y-run.y) <= tolerance {
			lines[n-1].runs = append(lines[n-1].runs, run)
			continue
		}
		lines = append(lines, line{y: run.y, runs: []textRun{run}})
	}

	for i := range lines {
		sort.SliceStable(lines[i].runs, func(a, b int) bool {
			return lines[i].runs[a].x < lines[i].runs[b].x
		})
	}
	return lines
}

// text joins a line's runs, inserting spaces across visible gaps.
func (l line) text() string {
	var b strings.Builder
	var cursor float64
	for i, run := range l.runs {
		if i > 0 {
			gap := run.x - cursor
			if gap > run.size*glyphWidthFactor/2 && !strings.HasSuffix(b.String(), " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(run.text)
		cursor = run.x + run.width
	}
	return strings.TrimSpace(b.String())
}

// bounds returns the line's extent in PDF bottom-left coordinates:
// x, baseline y, width, height.
func (l line) bounds() (x, y, w, h float64) {
	first := l.runs[0]
	x = first.x
	y = first.y
	maxSize := first.size
	right := first.x + first.width
	for _, run := range l.runs[1:] {
		if run.x+run.width > right {
			right = run.x + run.width
		}
		if run.size > maxSize {
			maxSize = run.size
		}
	}
	return x, y, right - x, maxSize
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
