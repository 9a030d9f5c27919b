// Package output writes analysis results and finished games as text or JSON.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/lgbarn/mystic-bridge/internal/chess"
)

// DefaultLineLength is the movetext wrap column.
const DefaultLineLength = 80

// OutputWriter handles formatted output with line length control.
type OutputWriter struct {
	w             io.Writer
	lineLength    int
	maxLineLength int
	needsSpace    bool
}

// NewOutputWriter creates a new output writer.
func NewOutputWriter(w io.Writer, maxLineLength int) *OutputWriter {
	if maxLineLength <= 0 {
		maxLineLength = DefaultLineLength
	}
	return &OutputWriter{
		w:             w,
		maxLineLength: maxLineLength,
	}
}

// Write writes a string, adding a space separator if needed.
func (o *OutputWriter) Write(s string) {
	if o.needsSpace && len(s) > 0 {
		if o.lineLength+1+len(s) > o.maxLineLength {
			fmt.Fprintln(o.w)
			o.lineLength = 0
		} else {
			fmt.Fprint(o.w, " ")
			o.lineLength++
		}
	}

	fmt.Fprint(o.w, s)
	o.lineLength += len(s)
	o.needsSpace = true
}

// NewLine starts a new line.
func (o *OutputWriter) NewLine() {
	fmt.Fprintln(o.w)
	o.lineLength = 0
	o.needsSpace = false
}

// writeGamePGN writes tag pairs, a blank line and the wrapped movetext.
func writeGamePGN(w io.Writer, g Game, lineLength int) {
	res := g.Result

	tags := [][2]string{
		{"Event", orUnknown(g.Event)},
		{"Site", "?"},
		{"Date", "????.??.??"},
		{"Round", "-"},
		{"White", orUnknown(g.White)},
		{"Black", orUnknown(g.Black)},
		{"Result", res.Outcome},
	}
	if res.StartFEN != "" && res.StartFEN != chess.InitialFEN {
		tags = append(tags, [2]string{"SetUp", "1"}, [2]string{"FEN", res.StartFEN})
	}
	if res.ECO != "" {
		tags = append(tags, [2]string{"ECO", res.ECO}, [2]string{"Opening", res.Opening})
	}
	tags = append(tags, [2]string{"PlyCount", fmt.Sprint(res.Plies)}, [2]string{"Termination", res.Method})
	for _, tag := range tags {
		fmt.Fprintf(w, "[%s \"%s\"]\n", tag[0], escapeTagValue(tag[1]))
	}
	fmt.Fprintln(w)

	ow := NewOutputWriter(w, lineLength)
	moveNum, isWhite := uint(1), true
	if pos, err := chess.ParseFEN(orDefault(res.StartFEN, chess.InitialFEN)); err == nil {
		moveNum, isWhite = pos.FullmoveNumber, pos.ToMove == chess.White
	}
	for i, san := range res.SAN {
		if isWhite {
			ow.Write(fmt.Sprintf("%d.", moveNum))
		} else if i == 0 {
			ow.Write(fmt.Sprintf("%d...", moveNum))
		}
		ow.Write(san)
		if !isWhite {
			moveNum++
		}
		isWhite = !isWhite
	}
	ow.Write(res.Outcome)
	ow.NewLine()
	fmt.Fprintln(w)
}

// escapeTagValue escapes special characters in tag values.
func escapeTagValue(s string) string {
	if !strings.ContainsAny(s, "\\\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}

func orUnknown(s string) string {
	return orDefault(s, "?")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
