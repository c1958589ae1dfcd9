package vm

import "github.com/glyphlang/rdb/pkg/vmvalue"

// globalEnv is an insertion-ordered string-keyed store. A plain Go map
// would make LIST_GLOBALS output nondeterministic across runs; ordering
// by declaration is what a source-level debugger's user expects anyway.
type globalEnv struct {
	order []string
	vals  map[string]vmvalue.Value
}

func newGlobalEnv() *globalEnv {
	return &globalEnv{vals: make(map[string]vmvalue.Value)}
}

func (g *globalEnv) Set(name string, v vmvalue.Value) {
	if _, exists := g.vals[name]; !exists {
		g.order = append(g.order, name)
	}
	g.vals[name] = v
}

func (g *globalEnv) Get(name string) (vmvalue.Value, bool) {
	v, ok := g.vals[name]
	return v, ok
}

func (g *globalEnv) Pairs() []vmvalue.NamedValue {
	out := make([]vmvalue.NamedValue, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, vmvalue.NamedValue{Name: name, Value: g.vals[name]})
	}
	return out
}
