package output

import (
	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/worker"
)

// JSONAnalysis represents one analysed position in JSON format.
type JSONAnalysis struct {
	Index     int    `json:"index"`
	FEN       string `json:"fen"`
	Move      string `json:"move,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// JSONGame represents a finished game in JSON format.
type JSONGame struct {
	Event      string   `json:"event,omitempty"`
	White      string   `json:"white"`
	Black      string   `json:"black"`
	Result     string   `json:"result"`
	Method     string   `json:"method"`
	PlyCount   int      `json:"plyCount"`
	InitialFEN string   `json:"initialFEN,omitempty"`
	FinalFEN   string   `json:"finalFEN,omitempty"`
	ECO        string   `json:"eco,omitempty"`
	Opening    string   `json:"opening,omitempty"`
	Moves      []string `json:"moves"`
	SAN        []string `json:"san"`
	Forfeit    string   `json:"forfeit,omitempty"`
	WhiteClock string   `json:"whiteClock"`
	BlackClock string   `json:"blackClock"`
}

// JSONOutput holds everything written by a batching JSONWriter.
type JSONOutput struct {
	Positions []*JSONAnalysis `json:"positions,omitempty"`
	Games     []*JSONGame     `json:"games,omitempty"`
}

// AnalysisToJSON converts a worker result.
func AnalysisToJSON(res worker.ProcessResult) *JSONAnalysis {
	ja := &JSONAnalysis{
		Index:     res.Index,
		FEN:       res.FEN,
		Move:      res.Move,
		Duplicate: res.Duplicate,
	}
	if res.Error != nil {
		ja.Error = res.Error.Error()
	}
	return ja
}

// GameToJSON converts a finished game.
func GameToJSON(g Game) *JSONGame {
	res := g.Result
	jg := &JSONGame{
		Event:      g.Event,
		White:      orUnknown(g.White),
		Black:      orUnknown(g.Black),
		Result:     res.Outcome,
		Method:     res.Method,
		PlyCount:   res.Plies,
		InitialFEN: res.StartFEN,
		FinalFEN:   res.FinalFEN,
		ECO:        res.ECO,
		Opening:    res.Opening,
		Moves:      nonNil(res.Moves),
		SAN:        nonNil(res.SAN),
		WhiteClock: res.Clocks[chess.White].String(),
		BlackClock: res.Clocks[chess.Black].String(),
	}
	if res.Forfeit != nil {
		jg.Forfeit = res.Forfeit.Error()
	}
	return jg
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
