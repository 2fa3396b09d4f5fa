package query

import (
	"sort"
	"strings"

	"github.com/CaliLuke/go-archql/archetype"
	"github.com/CaliLuke/go-archql/ast"
)

// fromEntry is one element of the from clause: either a root type set
// ("PartyImpl as party0") or a join of a parent alias's property.
type fromEntry struct {
	alias    string
	implType string

	join     bool
	kind     ast.JoinKind
	parent   string
	property string
	with     *clause
}

func (e *fromEntry) write(b *strings.Builder, first bool) {
	if !e.join {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(e.implType)
		b.WriteString(" as ")
		b.WriteString(e.alias)
		return
	}
	b.WriteByte(' ')
	b.WriteString(e.kind.String())
	b.WriteByte(' ')
	b.WriteString(e.parent)
	b.WriteByte('.')
	b.WriteString(e.property)
	b.WriteString(" as ")
	b.WriteString(e.alias)
	if !e.with.empty() {
		b.WriteString(" with ")
		b.WriteString(e.with.String())
	}
}

type frame struct {
	types *TypeSet
	entry *fromEntry
}

// Property is a resolved node: the alias that owns it and its storage
// path. Param overrides the name used to derive parameter names.
type Property struct {
	Alias     string
	Path      string
	Param     string
	Reference bool
}

func (p Property) qualified() string {
	return p.Alias + "." + p.Path
}

func (p Property) paramBase() string {
	if p.Param != "" {
		return p.Param
	}
	return p.Path
}

// Context accumulates the clauses, aliases and parameters of one
// compilation. It is not safe for concurrent use.
type Context struct {
	distinct bool

	typeNames  *AliasAllocator
	paramNames *AliasAllocator

	typeSets map[string]*TypeSet
	entries  map[string]*fromEntry
	details  map[string]string
	from     []*fromEntry
	stack    []frame
	where    *clause

	selects        []string
	selectNames    []string
	refSelectNames []string
	order          []string
	params         map[string]any
}

// NewContext returns an empty context.
func NewContext(distinct bool) *Context {
	return &Context{
		distinct:   distinct,
		typeNames:  NewAliasAllocator(),
		paramNames: NewAliasAllocator(),
		typeSets:   make(map[string]*TypeSet),
		entries:    make(map[string]*fromEntry),
		details:    make(map[string]string),
		where:      newClause(),
		params:     make(map[string]any),
	}
}

// PushTypeSet makes ts the current type set. If alias is empty one is
// generated from the implementation type. Pushing an alias that is already
// in use reuses it, provided its archetypes include those of ts; the from
// clause is then left unchanged.
func (c *Context) PushTypeSet(ts *TypeSet, alias string) error {
	if alias != "" {
		if existing, ok := c.typeSets[alias]; ok {
			if !existing.contains(ts) {
				return newError(DuplicateAlias, alias)
			}
			c.stack = append(c.stack, frame{types: existing, entry: c.entries[alias]})
			return nil
		}
		if _, ok := c.entries[alias]; ok {
			return newError(DuplicateAlias, alias)
		}
		if err := c.claim(alias); err != nil {
			return err
		}
	} else {
		alias = c.typeNames.Name(ts.implType)
	}
	ts.alias = alias
	entry := &fromEntry{alias: alias, implType: ts.implType}
	c.register(ts, entry)
	return nil
}

// PushJoin makes ts the current type set, joined to the current one through
// property. If alias is empty one is generated from the property name.
func (c *Context) PushJoin(ts *TypeSet, alias, property string, kind ast.JoinKind) error {
	parent := c.Top()
	if parent == nil {
		return newError(UnbalancedScope)
	}
	if alias != "" {
		if _, ok := c.entries[alias]; ok {
			return newError(CannotJoinDuplicateAlias, alias)
		}
		if err := c.claim(alias); err != nil {
			return err
		}
	} else {
		alias = c.typeNames.Name(property)
	}
	ts.alias = alias
	entry := &fromEntry{
		alias:    alias,
		implType: ts.implType,
		join:     true,
		kind:     kind,
		parent:   parent.alias,
		property: property,
		with:     newClause(),
	}
	c.register(ts, entry)
	return nil
}

func (c *Context) claim(alias string) error {
	if err := ValidateIdentifier(alias); err != nil {
		return wrapError(InvalidQualifiedName, err, alias)
	}
	c.typeNames.Reserve(alias)
	return nil
}

func (c *Context) register(ts *TypeSet, entry *fromEntry) {
	c.typeSets[ts.alias] = ts
	c.entries[ts.alias] = entry
	c.from = append(c.from, entry)
	c.stack = append(c.stack, frame{types: ts, entry: entry})
}

// PopTypeSet removes the current type set.
func (c *Context) PopTypeSet() (*TypeSet, error) {
	if len(c.stack) == 0 {
		return nil, newError(UnbalancedScope)
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return top.types, nil
}

// Top returns the current type set, or nil if none is pushed.
func (c *Context) Top() *TypeSet {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1].types
}

// Depth returns the number of pushed type sets.
func (c *Context) Depth() int { return len(c.stack) }

// TypeSet returns the type set registered under alias.
func (c *Context) TypeSet(alias string) (*TypeSet, bool) {
	ts, ok := c.typeSets[alias]
	return ts, ok
}

// Primary returns the first type set pushed, or nil.
func (c *Context) Primary() *TypeSet {
	if len(c.from) == 0 {
		return nil
	}
	return c.typeSets[c.from[0].alias]
}

// active returns the predicate region that terms are currently added to:
// the join condition of the current type set if it was joined, otherwise
// the where clause.
func (c *Context) active() *clause {
	if len(c.stack) > 0 {
		if e := c.stack[len(c.stack)-1].entry; e != nil && e.join {
			return e.with
		}
	}
	return c.where
}

// PushLogicalOperator opens a scope in the active region. The returned
// Scope must be passed to PopLogicalOperator.
func (c *Context) PushLogicalOperator(op LogicalOperator) *Scope {
	cl := c.active()
	return &Scope{clause: cl, group: cl.push(op)}
}

// PopLogicalOperator closes a scope. Scopes must be closed in reverse order
// of opening.
func (c *Context) PopLogicalOperator(s *Scope) error {
	if s == nil {
		return newError(UnbalancedScope)
	}
	return s.clause.pop(s.group)
}

// AddConstraint adds "<alias>.<property> <op> :param". If alias is empty
// the current type set's alias is used.
func (c *Context) AddConstraint(alias, property string, op ast.Op, value any) error {
	if alias == "" {
		top := c.Top()
		if top == nil {
			return newError(UnbalancedScope)
		}
		alias = top.alias
	}
	return c.addTerm(c.active(), alias+"."+property, op, property, value)
}

// AddPropertyConstraint compares two qualified properties directly.
func (c *Context) AddPropertyConstraint(lhs string, op ast.Op, rhs string) error {
	if !op.IsComparison() {
		return newError(OperatorNotSupported, op, lhs)
	}
	c.active().add(lhs + " " + operator(op, nil) + " " + rhs)
	return nil
}

// AddNodeConstraint adds a comparison of a resolved node. BTW adds a
// scope with up to two bound terms; either bound may be nil. IN expands to
// one parameter per value. Reference nodes compare by id.
func (c *Context) AddNodeConstraint(p Property, op ast.Op, values []any) error {
	lhs := p.qualified()
	if p.Reference {
		lhs += ".id"
	}
	base := p.paramBase()
	cl := c.active()

	switch op {
	case ast.BTW:
		if len(values) != 2 {
			return newError(OperatorNotSupported, op, lhs)
		}
		lo, hi := values[0], values[1]
		if lo == nil && hi == nil {
			return nil
		}
		scope := c.PushLogicalOperator(And)
		if lo != nil {
			if err := c.addTerm(cl, lhs, ast.GTE, base, lo); err != nil {
				return err
			}
		}
		if hi != nil {
			if err := c.addTerm(cl, lhs, ast.LTE, base, hi); err != nil {
				return err
			}
		}
		return c.PopLogicalOperator(scope)

	case ast.IN:
		if len(values) == 0 {
			cl.add("1 = 0")
			return nil
		}
		names := make([]string, len(values))
		for i, v := range values {
			names[i] = ":" + c.param(base, bindValue(ast.IN, v))
		}
		cl.add(lhs + " in (" + strings.Join(names, ", ") + ")")
		return nil

	case ast.ISNULL, ast.NOTNULL:
		return c.addTerm(cl, lhs, op, base, nil)
	}

	if len(values) != 1 {
		return newError(OperatorNotSupported, op, lhs)
	}
	return c.addTerm(cl, lhs, op, base, values[0])
}

// addTerm appends "<lhs> <op> :param" to cl, binding value under a name
// derived from base. A nil value turns EQ and NE into null checks.
func (c *Context) addTerm(cl *clause, lhs string, op ast.Op, base string, value any) error {
	if ref, ok := value.(*archetype.Reference); ok && ref == nil {
		value = nil
	}
	if value == nil {
		switch op {
		case ast.EQ, ast.ISNULL:
			cl.add(lhs + " is null")
			return nil
		case ast.NE, ast.NOTNULL:
			cl.add(lhs + " is not null")
			return nil
		}
		return newError(OperatorNotSupported, op, lhs)
	}
	if !op.IsComparison() {
		return newError(OperatorNotSupported, op, lhs)
	}
	name := c.param(base, bindValue(op, value))
	cl.add(lhs + " " + operator(op, value) + " :" + name)
	return nil
}

func (c *Context) param(base string, value any) string {
	name := c.paramNames.Name(base)
	c.params[name] = value
	return name
}

// operator returns the query text for a comparison. Equality against a
// string containing a wildcard becomes a pattern match.
func operator(op ast.Op, value any) string {
	switch op {
	case ast.EQ:
		if s, ok := value.(string); ok && strings.ContainsAny(s, "*%") {
			return "like"
		}
		return "="
	case ast.NE:
		return "!="
	case ast.GT:
		return ">"
	case ast.GTE:
		return ">="
	case ast.LT:
		return "<"
	case ast.LTE:
		return "<="
	}
	return op.String()
}

// bindValue converts a value to the form bound as a parameter: '*' in
// equality strings becomes '%', and references reduce to their id.
func bindValue(op ast.Op, value any) any {
	switch v := value.(type) {
	case string:
		if op == ast.EQ {
			return wildcard(v)
		}
	case archetype.Reference:
		return v.ID
	case *archetype.Reference:
		if v != nil {
			return v.ID
		}
	}
	return value
}

// DetailsJoin returns the alias of a join on alias's details map restricted
// to key, creating the join on first use.
func (c *Context) DetailsJoin(alias, key string, kind ast.JoinKind) string {
	cacheKey := alias + "." + key
	if name, ok := c.details[cacheKey]; ok {
		return name
	}
	name := c.typeNames.Name(detailsNode)
	entry := &fromEntry{
		alias:    name,
		join:     true,
		kind:     kind,
		parent:   alias,
		property: detailsNode,
		with:     newClause(),
	}
	entry.with.add("key(" + name + ") = :" + c.param("key", key))
	c.details[cacheKey] = name
	c.entries[name] = entry
	c.from = append(c.from, entry)
	return name
}

// AddSortConstraint appends an order-by term.
func (c *Context) AddSortConstraint(alias, property string, ascending bool) {
	dir := " desc"
	if ascending {
		dir = " asc"
	}
	c.order = append(c.order, alias+"."+property+dir)
}

// AddSelectConstraint projects alias, or alias.property if property is set.
// The projection is named "<alias>.<nodeName>".
func (c *Context) AddSelectConstraint(alias, nodeName, property string) {
	if property == "" {
		c.selects = append(c.selects, alias)
		c.selectNames = append(c.selectNames, alias)
		return
	}
	c.selectAs(alias+"."+property, alias+"."+nodeName)
}

func (c *Context) selectAs(term, name string) {
	c.selects = append(c.selects, term)
	c.selectNames = append(c.selectNames, name)
}

// AddObjectRefSelectConstraint projects the archetype, id and link id of a
// reference node, or of alias itself if property is empty, and records it
// as a reference projection.
func (c *Context) AddObjectRefSelectConstraint(alias, nodeName, property string) {
	prefix, name := alias, alias
	if property != "" {
		prefix += "." + property
		name += "." + nodeName
	}
	for _, col := range [...]string{"archetypeId", "id", "linkId"} {
		c.selects = append(c.selects, prefix+"."+col)
		c.selectNames = append(c.selectNames, name+"."+col)
	}
	c.refSelectNames = append(c.refSelectNames, name)
}

// SelectTypes maps each alias to the short names of its type set.
func (c *Context) SelectTypes() map[string][]string {
	result := make(map[string][]string, len(c.typeSets))
	for alias, ts := range c.typeSets {
		result[alias] = ts.ShortNames()
	}
	return result
}

// Aliases returns the aliases in from-clause order.
func (c *Context) Aliases() []string {
	result := make([]string, len(c.from))
	for i, e := range c.from {
		result[i] = e.alias
	}
	return result
}

// Where returns a snapshot of the where clause.
func (c *Context) Where() Fragment {
	return c.where.root.snapshot()
}

// JoinCondition returns a snapshot of the join condition of alias.
func (c *Context) JoinCondition(alias string) (Fragment, bool) {
	e, ok := c.entries[alias]
	if !ok || !e.join {
		return Fragment{}, false
	}
	return e.with.root.snapshot(), true
}

// Params returns the parameter names in sorted order.
func (c *Context) Params() []string {
	names := make([]string, 0, len(c.params))
	for name := range c.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Query renders the accumulated state.
func (c *Context) Query() *CompiledQuery {
	var b strings.Builder
	b.WriteString("select ")
	if c.distinct {
		b.WriteString("distinct ")
	}
	selects, names := c.selects, c.selectNames
	if len(selects) == 0 && len(c.from) > 0 {
		selects = []string{c.from[0].alias}
		names = selects
	}
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString(" from ")
	for i, e := range c.from {
		e.write(&b, i == 0)
	}
	if !c.where.empty() {
		b.WriteString(" where ")
		b.WriteString(c.where.String())
	}
	if len(c.order) > 0 {
		b.WriteString(" order by ")
		b.WriteString(strings.Join(c.order, ", "))
	}

	params := make(map[string]any, len(c.params))
	for k, v := range c.params {
		params[k] = v
	}
	return &CompiledQuery{
		text:           b.String(),
		params:         params,
		selectNames:    append([]string(nil), names...),
		refSelectNames: append([]string(nil), c.refSelectNames...),
		selectTypes:    c.SelectTypes(),
	}
}
