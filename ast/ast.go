// Package ast defines the node set produced by the grammar reducer.
//
// Nodes are constructed bottom-up as productions fire and finalize
// themselves against a scope through Parse. Parse may run before the scope
// has concrete values for everything a node references (inside mixin
// bodies); such nodes are re-resolved when the enclosing mixin is called.
package ast

import (
	"bytes"
	"strings"

	"github.com/mheilman/lesscpy/scope"
)

// Node represents a node in the abstract syntax tree. Parse validates and
// finalizes the node against a scope and returns the resolved node, which
// is the receiver for declaration nodes and a fresh value node for
// expression nodes.
type Node interface {
	node()
	String() string
	Parse(sc *scope.Scope) (Node, error)
}

func (List) node()        {}
func (*Statement) node()  {}
func (*Identifier) node() {}
func (*Block) node()      {}
func (*Mixin) node()      {}
func (*Variable) node()   {}
func (*Property) node()   {}
func (*Deferred) node()   {}
func (*Word) node()       {}
func (*String) node()     {}
func (*Number) node()     {}
func (*Color) node()      {}
func (*VarRef) node()     {}
func (*Expression) node() {}
func (*Call) node()       {}
func (*Format) node()     {}
func (*Escape) node()     {}

// List is an ordered sequence of nodes. Mixin calls expand to a List; the
// reducer flattens Lists into the surrounding declaration sequence.
type List []Node

// Parse resolves every element in place.
func (l List) Parse(sc *scope.Scope) (Node, error) {
	for i, n := range l {
		p, err := n.Parse(sc)
		if err != nil {
			return l, err
		}
		l[i] = p
	}
	return l, nil
}

func (l List) String() string {
	var buf bytes.Buffer
	for i, n := range l {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(n.String())
	}
	return buf.String()
}

// Statement is a top-level at-statement (@charset, @namespace, or an
// @import that passes through unresolved).
type Statement struct {
	Name  string // "@charset", "@namespace", "@import"
	Parts []Node // quoted string plus optional medium words
	Line  int
}

// Parse is a no-op; statements are fully formed at construction.
func (s *Statement) Parse(sc *scope.Scope) (Node, error) { return s, nil }

func (s *Statement) String() string {
	var buf bytes.Buffer
	buf.WriteString(s.Name)
	for _, p := range s.Parts {
		buf.WriteString(" ")
		buf.WriteString(p.String())
	}
	buf.WriteString(";")
	return buf.String()
}

// Identifier is an ordered sequence of selector parts. Commas separate
// selector groups; a single space part marks a descendant combinator. The
// raw part sequence is the lookup key for blocks and mixins; Parse derives
// the effective selector groups by composing with the enclosing selector
// context.
type Identifier struct {
	Parts  []string
	Line   int
	groups []string // resolved selector groups, set by Parse
}

// NewIdentifier returns an identifier over the given raw parts.
func NewIdentifier(parts []string, line int) *Identifier {
	return &Identifier{Parts: parts, Line: line}
}

// Raw returns the scope lookup key for the identifier: the raw parts
// joined and whitespace-normalized, independent of any selector context.
func (id *Identifier) Raw() string {
	return strings.Join(splitGroups(id.Parts), ", ")
}

// Parse composes the identifier with the current selector context of sc.
// Each enclosing group is crossed with each of the identifier's own
// groups; a "&" part splices the enclosing selector in place, any other
// group is nested as a descendant. With a nil scope or no context the raw
// groups stand alone.
func (id *Identifier) Parse(sc *scope.Scope) (Node, error) {
	own := splitGroups(id.Parts)
	if sc == nil {
		id.groups = own
		return id, nil
	}
	cur, _ := sc.Current().(*Identifier)
	if cur == nil {
		id.groups = own
		return id, nil
	}
	var groups []string
	for _, parent := range cur.Groups() {
		for _, g := range own {
			if strings.HasPrefix(parent, "@") {
				// At-rule containers do not prefix their children;
				// the child renders nested inside the container.
				groups = append(groups, g)
			} else if strings.Contains(g, "&") {
				groups = append(groups, strings.ReplaceAll(g, "&", parent))
			} else {
				groups = append(groups, parent+" "+g)
			}
		}
	}
	id.groups = groups
	return id, nil
}

// Groups returns the resolved selector groups. An unparsed identifier
// falls back to its raw groups.
func (id *Identifier) Groups() []string {
	if id.groups == nil {
		return splitGroups(id.Parts)
	}
	return id.groups
}

// Clone returns an unparsed copy of the identifier.
func (id *Identifier) Clone() *Identifier {
	parts := make([]string, len(id.Parts))
	copy(parts, id.Parts)
	return &Identifier{Parts: parts, Line: id.Line}
}

func (id *Identifier) String() string {
	return strings.Join(id.Groups(), ", ")
}

// splitGroups splits raw parts on commas and normalizes whitespace inside
// each group.
func splitGroups(parts []string) []string {
	var groups []string
	var buf []string
	flush := func() {
		g := normalizeSelector(buf)
		if g != "" {
			groups = append(groups, g)
		}
		buf = buf[:0]
	}
	for _, p := range parts {
		if p == "," {
			flush()
			continue
		}
		buf = append(buf, p)
	}
	flush()
	if len(groups) == 0 {
		return []string{""}
	}
	return groups
}

// normalizeSelector joins selector parts with single spaces where the
// source had whitespace and nothing where parts abut (".a.b" vs ".a .b").
func normalizeSelector(parts []string) string {
	var buf bytes.Buffer
	space := false
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			if buf.Len() > 0 {
				space = true
			}
			continue
		}
		switch p {
		case ">", "+", "~":
			// Combinators are always surrounded by single spaces.
			buf.WriteString(" " + p)
			space = true
			continue
		}
		if space {
			buf.WriteString(" ")
		}
		buf.WriteString(p)
		space = false
	}
	return strings.TrimSpace(buf.String())
}
