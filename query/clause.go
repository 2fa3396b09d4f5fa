package query

import "strings"

// LogicalOperator joins the terms of a scope.
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
)

func (o LogicalOperator) String() string {
	if o == Or {
		return "or"
	}
	return "and"
}

// group is one logical scope. Items are either terms or nested groups.
// A group renders as "(item op item ...)" and vanishes if it has no
// non-empty item.
type group struct {
	op    LogicalOperator
	items []item
}

type item struct {
	term  string
	group *group
}

func (it item) empty() bool {
	return it.group != nil && it.group.empty()
}

func (g *group) empty() bool {
	for _, it := range g.items {
		if !it.empty() {
			return false
		}
	}
	return true
}

// terms returns the number of non-empty items.
func (g *group) terms() int {
	n := 0
	for _, it := range g.items {
		if !it.empty() {
			n++
		}
	}
	return n
}

func (g *group) write(b *strings.Builder, parens bool) {
	if parens {
		b.WriteByte('(')
	}
	first := true
	for _, it := range g.items {
		if it.empty() {
			continue
		}
		if !first {
			b.WriteByte(' ')
			b.WriteString(g.op.String())
			b.WriteByte(' ')
		}
		first = false
		if it.group != nil {
			it.group.write(b, true)
		} else {
			b.WriteString(it.term)
		}
	}
	if parens {
		b.WriteByte(')')
	}
}

// clause is a predicate region: the where clause, or the join condition of
// one joined type set. Its root group is never parenthesised.
type clause struct {
	root *group
	open []*group
}

func newClause() *clause {
	root := &group{op: And}
	return &clause{root: root, open: []*group{root}}
}

func (c *clause) current() *group {
	return c.open[len(c.open)-1]
}

func (c *clause) push(op LogicalOperator) *group {
	g := &group{op: op}
	parent := c.current()
	parent.items = append(parent.items, item{group: g})
	c.open = append(c.open, g)
	return g
}

func (c *clause) pop(g *group) error {
	if len(c.open) < 2 || c.current() != g {
		return newError(UnbalancedScope)
	}
	c.open = c.open[:len(c.open)-1]
	return nil
}

func (c *clause) add(term string) {
	g := c.current()
	g.items = append(g.items, item{term: term})
}

func (c *clause) empty() bool {
	return c.root.empty()
}

func (c *clause) String() string {
	var b strings.Builder
	c.root.write(&b, false)
	return b.String()
}

// Scope is returned when a logical scope is opened and must be handed back
// to close it.
type Scope struct {
	clause *clause
	group  *group
}

// Operator returns the scope's connective.
func (s *Scope) Operator() LogicalOperator { return s.group.op }

// Terms returns the number of non-empty terms and nested scopes added so far.
func (s *Scope) Terms() int { return s.group.terms() }

// Fragment is a read-only snapshot of a predicate region, for inspection.
// A fragment is either a Term or a group with an Op and Items.
type Fragment struct {
	Term  string
	Op    string
	Items []Fragment
}

func (g *group) snapshot() Fragment {
	f := Fragment{Op: g.op.String()}
	for _, it := range g.items {
		if it.group != nil {
			f.Items = append(f.Items, it.group.snapshot())
		} else {
			f.Items = append(f.Items, Fragment{Term: it.term})
		}
	}
	return f
}
