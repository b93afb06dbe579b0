// Package lockexpr implements boolean lock expressions: the small compiled
// language used by @lock and by MUF's lock primitives to gate actions on a
// player's flags, ownership, or properties (spec 4.D).
//
// original_source/ does not carry boolexp.c in this retrieval pack, so the
// grammar and node shapes below are built directly from spec.md's
// description of the lock language rather than ported from a specific
// source file; the compiled-tree style (a small tagged-union AST plus a
// recursive Eval) follows the same shape internal/muf/value uses for MUF
// values, for consistency across the two evaluators in this repository.
package lockexpr

import (
	"fmt"
	"strings"

	"github.com/fuzzball-muck/muckd/internal/dbref"
)

// Kind tags a Boolexp node.
type Kind int

const (
	// True is the always-succeeds sentinel (TRUE_BOOLEXP).
	True Kind = iota
	// Is succeeds when the evaluating object is exactly the named dbref.
	Is
	// Carry succeeds when the evaluating player carries the named object.
	Carry
	// Owner succeeds when the evaluating object is owned by the named dbref.
	Owner
	// Flag succeeds when the evaluating object has the named flag set.
	Flag
	// Prop succeeds when the evaluating object's named property matches a value.
	Prop
	// Eval defers to a MUF boolean-returning lock program, identified by dbref.
	Eval
	// Not inverts its single child.
	Not
	// And succeeds when both children succeed.
	And
	// Or succeeds when either child succeeds.
	Or
)

// Boolexp is a node in a compiled lock expression tree.
type Boolexp struct {
	Kind        Kind
	Ref         dbref.Dbref // Is, Carry, Owner, Eval
	Flag        string      // Flag
	PropName    string      // Prop
	PropValue   string      // Prop
	Left, Right *Boolexp    // Not uses Left only; And/Or use both
}

// TrueLock is the shared always-succeeds lock.
var TrueLock = &Boolexp{Kind: True}

// Evaluator supplies the object-model queries Eval needs without this
// package importing internal/object (which would create an import cycle,
// since object properties can themselves hold compiled locks).
type Evaluator interface {
	IsObject(actor, target dbref.Dbref) bool
	Carries(actor, target dbref.Dbref) bool
	OwnerOf(target dbref.Dbref) dbref.Dbref
	HasFlag(actor dbref.Dbref, flag string) bool
	PropValue(actor dbref.Dbref, name string) (string, bool)
	RunLockProgram(prog dbref.Dbref, actor dbref.Dbref) bool
}

// Eval evaluates the expression for actor against ev.
func (b *Boolexp) Eval(actor dbref.Dbref, ev Evaluator) bool {
	if b == nil {
		return true
	}
	switch b.Kind {
	case True:
		return true
	case Is:
		return ev.IsObject(actor, b.Ref)
	case Carry:
		return ev.Carries(actor, b.Ref)
	case Owner:
		return ev.OwnerOf(actor) == b.Ref
	case Flag:
		return ev.HasFlag(actor, b.Flag)
	case Prop:
		v, ok := ev.PropValue(actor, b.PropName)
		if !ok {
			return false
		}
		return matchPropValue(v, b.PropValue)
	case Eval:
		return ev.RunLockProgram(b.Ref, actor)
	case Not:
		return !b.Left.Eval(actor, ev)
	case And:
		return b.Left.Eval(actor, ev) && b.Right.Eval(actor, ev)
	case Or:
		return b.Left.Eval(actor, ev) || b.Right.Eval(actor, ev)
	default:
		return false
	}
}

// matchPropValue implements the lock language's "wildcard suffix" match:
// a trailing '*' in want matches any value sharing that prefix.
func matchPropValue(have, want string) bool {
	if strings.HasSuffix(want, "*") {
		return strings.HasPrefix(strings.ToLower(have), strings.ToLower(want[:len(want)-1]))
	}
	return strings.EqualFold(have, want)
}

// Size returns the node count of the expression, used by property storage
// accounting the way the original sizes boolexps for @stats.
func (b *Boolexp) Size() int {
	if b == nil {
		return 0
	}
	n := 1
	n += b.Left.Size()
	n += b.Right.Size()
	return n
}

// Copy deep-copies the expression tree.
func (b *Boolexp) Copy() *Boolexp {
	if b == nil {
		return nil
	}
	c := *b
	c.Left = b.Left.Copy()
	c.Right = b.Right.Copy()
	return &c
}

// Unparse renders the expression back into lock-language source text.
func (b *Boolexp) Unparse() string {
	if b == nil || b.Kind == True {
		return "TRUE_BOOLEXP"
	}
	switch b.Kind {
	case Is:
		return b.Ref.String()
	case Carry:
		return "+" + b.Ref.String()
	case Owner:
		return "=" + b.Ref.String()
	case Flag:
		return "!" + strings.ToUpper(b.Flag)
	case Prop:
		return b.PropName + ":" + b.PropValue
	case Eval:
		return "@" + b.Ref.String()
	case Not:
		return "!" + parenIfCompound(b.Left)
	case And:
		return parenIfCompound(b.Left) + "&" + parenIfCompound(b.Right)
	case Or:
		return parenIfCompound(b.Left) + "|" + parenIfCompound(b.Right)
	default:
		return ""
	}
}

func parenIfCompound(b *Boolexp) string {
	if b == nil {
		return "TRUE_BOOLEXP"
	}
	switch b.Kind {
	case And, Or, Not:
		return "(" + b.Unparse() + ")"
	default:
		return b.Unparse()
	}
}

// String satisfies fmt.Stringer for log/error contexts.
func (b *Boolexp) String() string {
	return b.Unparse()
}

// Compile parses lock-language source text into a Boolexp tree. The
// grammar (spec 4.D): a primary is a dbref, "+dbref" (carry), "=dbref"
// (owner), "!flag" (flag test or negation of a parenthesized group),
// "name:value" (property match), or "@dbref" (MUF eval lock); primaries
// combine with '&' (and) and '|' (or), parenthesized for grouping,
// left-to-right with '&' binding tighter than '|'.
func Compile(src string) (*Boolexp, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return TrueLock, nil
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("lockexpr: unexpected trailing input at %d: %q", p.pos, p.src[p.pos:])
	}
	return expr, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseOr() (*Boolexp, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != '|' {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Boolexp{Kind: Or, Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (*Boolexp, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() != '&' {
			return left, nil
		}
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Boolexp{Kind: And, Left: left, Right: right}
	}
}

func (p *parser) parsePrimary() (*Boolexp, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("lockexpr: unexpected end of input")
	}
	switch p.peek() {
	case '(':
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("lockexpr: expected ')' at %d", p.pos)
		}
		p.pos++
		return inner, nil
	case '!':
		p.pos++
		p.skipSpace()
		if p.peek() == '(' {
			inner, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &Boolexp{Kind: Not, Left: inner}, nil
		}
		flag := p.parseToken()
		if d, ok := dbref.Parse(flag); ok {
			return &Boolexp{Kind: Not, Left: &Boolexp{Kind: Is, Ref: d}}, nil
		}
		return &Boolexp{Kind: Flag, Flag: flag}, nil
	case '+':
		p.pos++
		d, err := p.parseDbref()
		if err != nil {
			return nil, err
		}
		return &Boolexp{Kind: Carry, Ref: d}, nil
	case '=':
		p.pos++
		d, err := p.parseDbref()
		if err != nil {
			return nil, err
		}
		return &Boolexp{Kind: Owner, Ref: d}, nil
	case '@':
		p.pos++
		d, err := p.parseDbref()
		if err != nil {
			return nil, err
		}
		return &Boolexp{Kind: Eval, Ref: d}, nil
	default:
		tok := p.parseToken()
		if tok == "" {
			return nil, fmt.Errorf("lockexpr: unexpected character %q at %d", p.peek(), p.pos)
		}
		if idx := strings.IndexByte(tok, ':'); idx >= 0 {
			return &Boolexp{Kind: Prop, PropName: tok[:idx], PropValue: tok[idx+1:]}, nil
		}
		d, ok := dbref.Parse(tok)
		if !ok {
			return nil, fmt.Errorf("lockexpr: invalid token %q", tok)
		}
		return &Boolexp{Kind: Is, Ref: d}, nil
	}
}

func (p *parser) parseDbref() (dbref.Dbref, error) {
	tok := p.parseToken()
	d, ok := dbref.Parse(tok)
	if !ok {
		return dbref.NOTHING, fmt.Errorf("lockexpr: invalid dbref %q", tok)
	}
	return d, nil
}

func (p *parser) parseToken() string {
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '&', '|', '(', ')', ' ':
			return p.src[start:p.pos]
		}
		p.pos++
	}
	return p.src[start:p.pos]
}
