package player

import (
	"context"
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/lgbarn/mystic-bridge/internal/chess"
	"github.com/lgbarn/mystic-bridge/internal/errors"
)

// luaEntry is the global function a script must define:
//
//	function choose(fen, moves) return moves[1] end
//
// moves is an array of coordinate strings sorted ascending.
const luaEntry = "choose"

// Lua delegates move choice to a Lua script.
type Lua struct {
	mu    sync.Mutex
	state *lua.LState
	name  string
}

// NewLua loads a script file.
func NewLua(path string) (*Lua, error) {
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return newLua(L, path)
}

// NewLuaString loads a script from source.
func NewLuaString(name, source string) (*Lua, error) {
	L := lua.NewState()
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return newLua(L, name)
}

func newLua(L *lua.LState, name string) (*Lua, error) {
	if fn, ok := L.GetGlobal(luaEntry).(*lua.LFunction); !ok || fn == nil {
		L.Close()
		return nil, fmt.Errorf("%s does not define %s(fen, moves): %w", name, luaEntry, errors.ErrInvalidConfig)
	}
	return &Lua{state: L, name: name}, nil
}

// RequestMove implements Mover. The script's answer must be one of the
// legal moves it was given.
func (l *Lua) RequestMove(ctx context.Context, pos *chess.Position, _ Clock) (string, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return "", err
	}
	ucis := make([]string, len(moves))
	for i, m := range moves {
		ucis[i] = m.uci
	}
	sort.Strings(ucis)

	l.mu.Lock()
	defer l.mu.Unlock()

	L := l.state
	L.SetContext(ctx)
	defer L.RemoveContext()

	tbl := L.NewTable()
	for _, uci := range ucis {
		tbl.Append(lua.LString(uci))
	}
	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(luaEntry),
		NRet:    1,
		Protect: true,
	}, lua.LString(pos.FEN()), tbl); err != nil {
		return "", fmt.Errorf("%s: %w", l.name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	choice, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("%s returned %s, not a move: %w", l.name, ret.Type(), errors.ErrIllegalMove)
	}
	i := sort.SearchStrings(ucis, string(choice))
	if i == len(ucis) || ucis[i] != string(choice) {
		return "", fmt.Errorf("%s chose %q: %w", l.name, string(choice), errors.ErrIllegalMove)
	}
	return string(choice), nil
}

// Close releases the Lua state.
func (l *Lua) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Close()
}
