package scope_test

import (
	"testing"

	"github.com/mheilman/lesscpy/scope"
)

type fakeVar struct{ name string }

func (v *fakeVar) Name() string { return v.name }

type fakeDef struct{ raw string }

func (d *fakeDef) Raw() string { return d.raw }

// Ensure the stack starts and ends at the global frame.
func TestScope_PushPop(t *testing.T) {
	sc := scope.New()
	if sc.Depth() != 1 {
		t.Fatalf("depth: exp=1, got=%d", sc.Depth())
	}
	sc.Push()
	sc.Push()
	if sc.Depth() != 3 {
		t.Fatalf("depth: exp=3, got=%d", sc.Depth())
	}
	if err := sc.Pop(); err != nil {
		t.Fatal(err)
	}
	if err := sc.Pop(); err != nil {
		t.Fatal(err)
	}
	if err := sc.Pop(); err != scope.ErrGlobalPop {
		t.Fatalf("exp=ErrGlobalPop, got=%v", err)
	}
	if sc.Depth() != 1 {
		t.Fatalf("global frame must survive, depth=%d", sc.Depth())
	}
}

// Ensure inner frames shadow without destroying outer bindings.
func TestScope_Shadowing(t *testing.T) {
	sc := scope.New()
	outer := &fakeVar{name: "@w"}
	sc.AddVariable(outer)

	sc.Push()
	inner := &fakeVar{name: "@w"}
	sc.AddVariable(inner)
	if got := sc.LookupVariable("@w"); got != inner {
		t.Fatalf("inner lookup: exp=%v, got=%v", inner, got)
	}

	if err := sc.Pop(); err != nil {
		t.Fatal(err)
	}
	if got := sc.LookupVariable("@w"); got != outer {
		t.Fatalf("outer binding destroyed: got=%v", got)
	}
}

// Ensure lookups walk the whole stack and absence returns nil.
func TestScope_Lookup(t *testing.T) {
	sc := scope.New()
	b := &fakeDef{raw: ".b"}
	m := &fakeDef{raw: ".m"}
	sc.AddBlock(b)
	sc.AddMixin(m)
	sc.Push()

	if got := sc.LookupBlock(".b"); got != b {
		t.Fatalf("block lookup failed: %v", got)
	}
	if got := sc.LookupMixin(".m"); got != m {
		t.Fatalf("mixin lookup failed: %v", got)
	}
	if got := sc.LookupVariable("@missing"); got != nil {
		t.Fatalf("missing variable: exp=nil, got=%v", got)
	}
}

// Ensure the selector context resolves to the innermost frame that set one.
func TestScope_Current(t *testing.T) {
	sc := scope.New()
	if sc.Current() != nil {
		t.Fatal("fresh scope must have no selector context")
	}
	parent := &fakeDef{raw: ".parent"}
	sc.SetCurrent(parent)
	sc.Push()
	if got := sc.Current(); got != parent {
		t.Fatalf("current: exp=%v, got=%v", parent, got)
	}
	child := &fakeDef{raw: ".child"}
	sc.SetCurrent(child)
	if got := sc.Current(); got != child {
		t.Fatalf("current: exp=%v, got=%v", child, got)
	}
	sc.Pop()
	if got := sc.Current(); got != parent {
		t.Fatalf("current after pop: exp=%v, got=%v", parent, got)
	}
}

// Ensure the mixin-body flag holds for the frame and everything nested in it.
func TestScope_InMixin(t *testing.T) {
	sc := scope.New()
	if sc.InMixin() {
		t.Fatal("global frame must not be a mixin body")
	}
	sc.Push()
	sc.SetInMixin(true)
	sc.Push() // block nested inside the mixin body
	if !sc.InMixin() {
		t.Fatal("nested frame must inherit the mixin-body flag")
	}
	sc.Pop()
	sc.Pop()
	if sc.InMixin() {
		t.Fatal("flag must die with its frame")
	}
}

// Ensure import merging keeps the importing side's bindings.
func TestScope_Update(t *testing.T) {
	dst := scope.New()
	local := &fakeVar{name: "@w"}
	dst.AddVariable(local)

	src := scope.New()
	src.AddVariable(&fakeVar{name: "@w"})
	imported := &fakeVar{name: "@h"}
	src.AddVariable(imported)
	srcBlock := &fakeDef{raw: ".b"}
	src.AddBlock(srcBlock)

	dst.Update(src)
	if got := dst.LookupVariable("@w"); got != local {
		t.Fatalf("import must not overwrite @w: got=%v", got)
	}
	if got := dst.LookupVariable("@h"); got != imported {
		t.Fatalf("imported @h lost: got=%v", got)
	}
	if got := dst.LookupBlock(".b"); got != srcBlock {
		t.Fatalf("imported block lost: got=%v", got)
	}
}
