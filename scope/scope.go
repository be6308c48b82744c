// Package scope implements the lexical scope stack used during compilation.
//
// A Scope is a stack of frames. Each brace-delimited body pushes one frame
// and pops it on close; the bottom frame is the global frame and outlives
// the whole compile. Name lookup walks frames from innermost to outermost
// and returns the first match. Adding a name always writes into the top
// frame, shadowing (but not deleting) same-named entries further down.
package scope

import "errors"

// ErrGlobalPop is returned when a pop would remove the global frame.
var ErrGlobalPop = errors.New("scope: cannot pop the global frame")

// Variable is the contract a variable definition satisfies.
type Variable interface {
	Name() string
}

// Block is the contract a block definition satisfies.
type Block interface {
	Raw() string
}

// Mixin is the contract a mixin definition satisfies.
type Mixin interface {
	Raw() string
}

// Selector is the selector context of the frame currently being populated.
// It is an opaque value to this package; the parser stores the identifier
// node of the enclosing block here so nested selectors can resolve against
// it.
type Selector interface {
	Raw() string
}

// Frame is one level of the scope stack.
type Frame struct {
	variables map[string]Variable
	blocks    map[string]Block
	mixins    map[string]Mixin

	current Selector // selector context, nil unless a block is open here
	inMixin bool     // set on the body frame of a mixin declaration
}

func newFrame() *Frame {
	return &Frame{
		variables: map[string]Variable{},
		blocks:    map[string]Block{},
		mixins:    map[string]Mixin{},
	}
}

// Variables returns the frame's variable table.
func (f *Frame) Variables() map[string]Variable { return f.variables }

// Blocks returns the frame's block table.
func (f *Frame) Blocks() map[string]Block { return f.blocks }

// Mixins returns the frame's mixin table.
func (f *Frame) Mixins() map[string]Mixin { return f.mixins }

// Scope is a stack of frames. The zero value is not usable; use New.
type Scope struct {
	frames []*Frame
}

// New returns a scope holding only the global frame.
func New() *Scope {
	return &Scope{frames: []*Frame{newFrame()}}
}

// Depth returns the number of frames on the stack. Always >= 1.
func (s *Scope) Depth() int { return len(s.frames) }

// Push appends a new empty frame.
func (s *Scope) Push() {
	s.frames = append(s.frames, newFrame())
}

// Pop removes the top frame. Popping the global frame is a programming
// error and fails.
func (s *Scope) Pop() error {
	if len(s.frames) <= 1 {
		return ErrGlobalPop
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Global returns the bottom frame.
func (s *Scope) Global() *Frame { return s.frames[0] }

func (s *Scope) top() *Frame { return s.frames[len(s.frames)-1] }

// AddVariable writes a variable into the top frame, overwriting any
// same-named entry in that frame only.
func (s *Scope) AddVariable(v Variable) {
	s.top().variables[v.Name()] = v
}

// AddBlock writes a block into the top frame.
func (s *Scope) AddBlock(b Block) {
	s.top().blocks[b.Raw()] = b
}

// AddMixin writes a mixin into the top frame.
func (s *Scope) AddMixin(m Mixin) {
	s.top().mixins[m.Raw()] = m
}

// LookupVariable scans frames top-down for a variable. Absence is not an
// error; the caller decides what an undefined name means.
func (s *Scope) LookupVariable(name string) Variable {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].variables[name]; ok {
			return v
		}
	}
	return nil
}

// LookupBlock scans frames top-down for a block.
func (s *Scope) LookupBlock(name string) Block {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if b, ok := s.frames[i].blocks[name]; ok {
			return b
		}
	}
	return nil
}

// LookupMixin scans frames top-down for a mixin.
func (s *Scope) LookupMixin(name string) Mixin {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if m, ok := s.frames[i].mixins[name]; ok {
			return m
		}
	}
	return nil
}

// Current returns the selector context of the innermost frame that has one.
func (s *Scope) Current() Selector {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].current != nil {
			return s.frames[i].current
		}
	}
	return nil
}

// SetCurrent records the selector context on the top frame.
func (s *Scope) SetCurrent(sel Selector) {
	s.top().current = sel
}

// InMixin reports whether any live frame is a mixin body frame.
func (s *Scope) InMixin() bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].inMixin {
			return true
		}
	}
	return false
}

// SetInMixin marks or unmarks the top frame as a mixin body frame.
func (s *Scope) SetInMixin(v bool) {
	s.top().inMixin = v
}

// Update merges another scope's global frame into this scope's top frame.
// Names already present in the receiving frame are kept; the import site's
// first writer wins for subsequent lookups.
func (s *Scope) Update(other *Scope) {
	top, g := s.top(), other.Global()
	for name, v := range g.variables {
		if _, ok := top.variables[name]; !ok {
			top.variables[name] = v
		}
	}
	for name, b := range g.blocks {
		if _, ok := top.blocks[name]; !ok {
			top.blocks[name] = b
		}
	}
	for name, m := range g.mixins {
		if _, ok := top.mixins[name]; !ok {
			top.mixins[name] = m
		}
	}
}
