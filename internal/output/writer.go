package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lgbarn/mystic-bridge/internal/config"
	"github.com/lgbarn/mystic-bridge/internal/match"
	"github.com/lgbarn/mystic-bridge/internal/worker"
)

// Game pairs a finished match with the names of its players.
type Game struct {
	Event  string
	White  string
	Black  string
	Result *match.Result
}

// ResultWriter is the interface for writing results to output.
// Different implementations handle different output formats (text, JSON).
type ResultWriter interface {
	// WriteAnalysis writes one analysed position.
	WriteAnalysis(res worker.ProcessResult) error

	// WriteGame writes one finished game.
	WriteGame(g Game) error

	// Flush flushes any buffered data to the underlying writer.
	Flush() error

	// Close writes any pending output.
	Close() error
}

// NewWriter returns the writer for the configured format.
func NewWriter(w io.Writer, cfg config.OutputConfig) (ResultWriter, error) {
	switch cfg.Format {
	case config.TextFormat, "":
		return NewTextWriter(w), nil
	case config.JSONFormat:
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
}

// TextWriter writes tab separated analysis lines and PGN games.
type TextWriter struct {
	w          io.Writer
	LineLength int
}

// NewTextWriter creates a new text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w, LineLength: DefaultLineLength}
}

// WriteAnalysis writes "index<TAB>fen<TAB>move". A failed position has "-"
// as its move followed by the error in a fourth column.
func (tw *TextWriter) WriteAnalysis(res worker.ProcessResult) error {
	if res.Error != nil {
		_, err := fmt.Fprintf(tw.w, "%d\t%s\t-\t%v\n", res.Index, res.FEN, res.Error)
		return err
	}
	_, err := fmt.Fprintf(tw.w, "%d\t%s\t%s\n", res.Index, res.FEN, res.Move)
	return err
}

// WriteGame writes a game in PGN format.
func (tw *TextWriter) WriteGame(g Game) error {
	if g.Result == nil {
		return fmt.Errorf("game has no result")
	}
	writeGamePGN(tw.w, g, tw.LineLength)
	return nil
}

// Flush is a no-op; text is written immediately.
func (tw *TextWriter) Flush() error {
	return nil
}

// Close closes the text writer.
func (tw *TextWriter) Close() error {
	return nil
}

// JSONWriter writes results in JSON format.
// It buffers results and writes them as one document on Close or Flush.
type JSONWriter struct {
	w      io.Writer
	out    JSONOutput
	single bool // If true, write each record immediately instead of batching
}

// NewJSONWriter creates a new JSON writer.
// By default, it batches records and writes them as one object on Close().
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// NewJSONWriterSingle creates a JSON writer that writes each record immediately.
func NewJSONWriterSingle(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w, single: true}
}

// WriteAnalysis buffers an analysed position (or writes it in single mode).
func (jw *JSONWriter) WriteAnalysis(res worker.ProcessResult) error {
	ja := AnalysisToJSON(res)
	if jw.single {
		return jw.encode(ja)
	}
	jw.out.Positions = append(jw.out.Positions, ja)
	return nil
}

// WriteGame buffers a game (or writes it in single mode).
func (jw *JSONWriter) WriteGame(g Game) error {
	if g.Result == nil {
		return fmt.Errorf("game has no result")
	}
	jg := GameToJSON(g)
	if jw.single {
		return jw.encode(jg)
	}
	jw.out.Games = append(jw.out.Games, jg)
	return nil
}

// Flush writes all buffered records as one JSON object.
func (jw *JSONWriter) Flush() error {
	if jw.single || (len(jw.out.Positions) == 0 && len(jw.out.Games) == 0) {
		return nil
	}
	err := jw.encode(&jw.out)
	jw.out = JSONOutput{}
	return err
}

// Close flushes the JSON writer.
func (jw *JSONWriter) Close() error {
	return jw.Flush()
}

func (jw *JSONWriter) encode(v interface{}) error {
	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
