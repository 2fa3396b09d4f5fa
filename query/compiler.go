// Package query compiles archetype constraint trees into parameterised
// object-query text.
//
// A Compiler resolves each archetype constraint in the tree to a TypeSet
// (the archetypes it matches and the implementation type that stores them),
// assigns it an alias, and walks its children to build the from, where,
// select and order-by clauses of the resulting CompiledQuery.
package query

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/CaliLuke/go-archql/archetype"
	"github.com/CaliLuke/go-archql/ast"
	"github.com/CaliLuke/go-archql/internal/logging"
)

// shortNameProperty is the discriminator column holding an object's short name.
const shortNameProperty = "archetypeId.shortName"

// Compiler compiles constraint trees. It holds no per-query state and is
// safe for concurrent use.
type Compiler struct {
	resolver *TypeResolver
	mapper   archetype.TypeMapper
	distinct bool
	logger   *zerolog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDistinct makes every compiled query select distinct rows.
func WithDistinct() Option {
	return func(c *Compiler) { c.distinct = true }
}

// WithLogger sets the logger for compilation events. By default the
// process-wide logger is used.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Compiler) { c.logger = &logger }
}

// NewCompiler creates a compiler that resolves archetypes with catalog and
// implementation types with mapper.
func NewCompiler(catalog archetype.Catalog, mapper archetype.TypeMapper, opts ...Option) *Compiler {
	c := &Compiler{
		resolver: NewTypeResolver(catalog, mapper),
		mapper:   mapper,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compiler) log() *zerolog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return &logging.Logger
}

// Compile compiles q. On failure the returned error is an *Error.
func (c *Compiler) Compile(q ast.Query) (*CompiledQuery, error) {
	start := time.Now()
	ctx, err := c.Prepare(q)
	if err != nil {
		c.log().Debug().Err(err).Msg("query compilation failed")
		return nil, err
	}
	result := ctx.Query()
	c.log().Debug().
		Str("query", result.Text()).
		Strs("aliases", ctx.Aliases()).
		Int("params", len(result.params)).
		Dur("elapsed", time.Since(start)).
		Msg("compiled query")
	return result, nil
}

// Prepare walks q and returns the populated context without rendering it.
func (c *Compiler) Prepare(q ast.Query) (*Context, error) {
	if q.Root == nil {
		return nil, newError(NullQuery)
	}
	cc := &compilation{Compiler: c, ctx: NewContext(q.Distinct || c.distinct)}
	if err := cc.process(q.Root); err != nil {
		return nil, err
	}
	for _, s := range cc.selects {
		if err := cc.processSelect(s); err != nil {
			return nil, err
		}
	}
	if cc.ctx.Depth() != 0 {
		return nil, newError(UnbalancedScope)
	}
	return cc.ctx, nil
}

// compilation is the state of one Compile call. Select constraints are
// collected while walking and applied once the tree is done, so that they
// may name aliases introduced anywhere in it.
type compilation struct {
	*Compiler
	ctx     *Context
	selects []ast.Select
}

func (cc *compilation) process(con ast.Constraint) error {
	switch n := con.(type) {
	case ast.ArchetypeByShortNames, ast.ArchetypeByID, ast.ArchetypeByLongName, ast.ObjectByReference:
		a := n.(ast.ArchetypeConstraint)
		ts, disc, err := cc.resolveArchetype(a)
		if err != nil {
			return err
		}
		return cc.processArchetype(ts, a.Base(), disc)
	case ast.And:
		return cc.processLogical(And, n.Children)
	case ast.Or:
		return cc.processLogical(Or, n.Children)
	case ast.PropertyComparison:
		return cc.processProperty(n)
	case ast.ObjectReferenceComparison:
		return cc.processObjectReference(n)
	case ast.IDEquality:
		return cc.processIDEquality(n)
	case ast.CollectionJoin:
		return cc.processJoin(n)
	case ast.ParticipationFieldComparison:
		return cc.processParticipation(n)
	case ast.ArchetypeNodeComparison:
		return cc.ctx.AddConstraint("", shortNameProperty, n.Op, n.Value)
	case ast.Sort:
		return cc.processSort(n)
	case ast.Select:
		cc.selects = append(cc.selects, n)
		return nil
	default:
		return newError(ConstraintTypeNotSupported, con)
	}
}

// discriminator adds the predicates that restrict alias to the archetypes
// a constraint names.
type discriminator func(alias string) error

func (cc *compilation) resolveArchetype(a ast.ArchetypeConstraint) (*TypeSet, discriminator, error) {
	switch n := a.(type) {
	case ast.ArchetypeByShortNames:
		ts, err := cc.resolver.ResolveShortNames(n.ShortNames, n.PrimaryOnly)
		if err != nil {
			return nil, nil, err
		}
		return ts, cc.shortNames(n.ShortNames), nil

	case ast.ArchetypeByID:
		ts, err := cc.resolver.ResolveID(n.ID)
		if err != nil {
			return nil, nil, err
		}
		return ts, func(alias string) error {
			return cc.ctx.AddConstraint(alias, shortNameProperty, ast.EQ, n.ID.ShortName())
		}, nil

	case ast.ArchetypeByLongName:
		ts, err := cc.resolver.ResolveLongName(n.Entity, n.Concept, n.PrimaryOnly)
		if err != nil {
			return nil, nil, err
		}
		pattern := longNamePattern(n.Entity, n.Concept)
		return ts, func(alias string) error {
			return cc.ctx.AddConstraint(alias, shortNameProperty, ast.EQ, pattern)
		}, nil

	case ast.ObjectByReference:
		ts, err := cc.resolver.ResolveID(n.Ref.Archetype)
		if err != nil {
			return nil, nil, err
		}
		return ts, func(alias string) error {
			if err := cc.ctx.AddConstraint(alias, shortNameProperty, ast.EQ, n.Ref.Archetype.ShortName()); err != nil {
				return err
			}
			return cc.ctx.AddConstraint(alias, "id", ast.EQ, n.Ref.ID)
		}, nil
	}
	return nil, nil, newError(ConstraintTypeNotSupported, a)
}

// shortNames matches each pattern, or-ing them if there is more than one.
func (cc *compilation) shortNames(patterns []string) discriminator {
	return func(alias string) error {
		if len(patterns) == 1 {
			return cc.ctx.AddConstraint(alias, shortNameProperty, ast.EQ, patterns[0])
		}
		scope := cc.ctx.PushLogicalOperator(Or)
		for _, p := range patterns {
			if err := cc.ctx.AddConstraint(alias, shortNameProperty, ast.EQ, p); err != nil {
				return err
			}
		}
		return cc.ctx.PopLogicalOperator(scope)
	}
}

func (cc *compilation) processArchetype(ts *TypeSet, base ast.ArchetypeBase, disc discriminator) error {
	scope := cc.ctx.PushLogicalOperator(And)
	if err := cc.ctx.PushTypeSet(ts, base.Alias); err != nil {
		return err
	}
	if err := cc.processScope(cc.ctx.Top(), base, disc, nil); err != nil {
		return err
	}
	if _, err := cc.ctx.PopTypeSet(); err != nil {
		return err
	}
	return cc.ctx.PopLogicalOperator(scope)
}

// processScope adds the discriminator, the active flag and the children of
// the type set that has just been pushed.
func (cc *compilation) processScope(ts *TypeSet, base ast.ArchetypeBase, disc discriminator, extra []ast.Constraint) error {
	if disc != nil {
		if err := disc(ts.Alias()); err != nil {
			return err
		}
	}
	if base.ActiveOnly && cc.mapper.HasActiveFlag(ts.ImplementationType()) {
		if err := cc.ctx.AddConstraint(ts.Alias(), "active", ast.EQ, true); err != nil {
			return err
		}
	}
	for _, child := range base.Children {
		if err := cc.process(child); err != nil {
			return err
		}
	}
	for _, child := range extra {
		if err := cc.process(child); err != nil {
			return err
		}
	}
	return nil
}

func (cc *compilation) processLogical(op LogicalOperator, children []ast.Constraint) error {
	scope := cc.ctx.PushLogicalOperator(op)
	for _, child := range children {
		if err := cc.process(child); err != nil {
			return err
		}
	}
	return cc.ctx.PopLogicalOperator(scope)
}

func (cc *compilation) processJoin(n ast.CollectionJoin) error {
	parent := cc.ctx.Top()
	if parent == nil {
		return newError(NullQuery)
	}
	node, err := parent.node(n.Node)
	if err != nil {
		return err
	}
	property, key, err := storagePath(node, n.Node, CanOnlySortOnTopLevelNodes)
	if err != nil {
		return err
	}
	if key != "" {
		return newError(UnsupportedPath, n.Node)
	}

	var (
		ts   *TypeSet
		disc discriminator
		base ast.ArchetypeBase
	)
	if n.Archetype != nil {
		ts, disc, err = cc.resolveArchetype(n.Archetype)
		base = n.Archetype.Base()
	} else {
		ts, err = cc.resolver.ResolveRange(node)
	}
	if err != nil {
		return err
	}

	alias := n.Alias
	if alias == "" {
		alias = base.Alias
	}
	if err := cc.ctx.PushJoin(ts, alias, property, n.Kind); err != nil {
		return err
	}
	scope := cc.ctx.PushLogicalOperator(And)
	if err := cc.processScope(ts, base, disc, n.Children); err != nil {
		return err
	}
	if err := cc.ctx.PopLogicalOperator(scope); err != nil {
		return err
	}
	_, err = cc.ctx.PopTypeSet()
	return err
}

// resolved is a node name resolved against the type sets in scope.
type resolved struct {
	types    *TypeSet
	nodeName string
	node     *archetype.NodeDescriptor
	prop     Property
	// detailsKey is set instead of node for "details.<key>" names.
	detailsKey string
}

// resolve resolves name, which is a node name, "<alias>.<node>" or
// "details.<key>", against the type set named by alias, the one named in
// the path, or the innermost one in scope. A node stored under a nested
// path other than "/details/<key>" fails with nested.
func (cc *compilation) resolve(alias, name string, nested ErrorCode) (resolved, error) {
	parts := strings.Split(name, ".")
	nodeName := name
	var detailsKey string
	switch len(parts) {
	case 1:
	case 2:
		if _, ok := cc.ctx.TypeSet(parts[0]); ok {
			alias, nodeName = parts[0], parts[1]
		} else if parts[0] == detailsNode && parts[1] != "" {
			detailsKey = parts[1]
		} else {
			return resolved{}, newError(UnsupportedPath, name)
		}
	default:
		return resolved{}, newError(UnsupportedPath, name)
	}

	ts, err := cc.typeSet(alias)
	if err != nil {
		return resolved{}, err
	}
	if detailsKey != "" {
		return resolved{types: ts, nodeName: name, detailsKey: detailsKey}, nil
	}
	node, err := ts.node(nodeName)
	if err != nil {
		return resolved{}, err
	}
	property, key, err := storagePath(node, name, nested)
	if err != nil {
		return resolved{}, err
	}
	if key != "" {
		return resolved{types: ts, nodeName: nodeName, node: node, detailsKey: key}, nil
	}
	return resolved{
		types:    ts,
		nodeName: nodeName,
		node:     node,
		prop:     Property{Alias: ts.Alias(), Path: property, Reference: node.ObjectReference},
	}, nil
}

// typeSet returns the type set for alias, or the innermost one in scope if
// alias is empty. Once the tree has been walked the primary one is used.
func (cc *compilation) typeSet(alias string) (*TypeSet, error) {
	if alias != "" {
		ts, ok := cc.ctx.TypeSet(alias)
		if !ok {
			return nil, newError(InvalidQualifiedName, alias)
		}
		return ts, nil
	}
	if ts := cc.ctx.Top(); ts != nil {
		return ts, nil
	}
	if ts := cc.ctx.Primary(); ts != nil {
		return ts, nil
	}
	return nil, newError(NullQuery)
}

// storagePath returns the top-level property that stores node or, for a
// node stored at "/details/<key>", the details key.
func storagePath(node *archetype.NodeDescriptor, name string, nested ErrorCode) (property, key string, err error) {
	property, err = node.Property()
	if !errors.Is(err, archetype.ErrNestedPath) {
		return property, "", err
	}
	parts := strings.Split(strings.TrimPrefix(node.Path, "/"), "/")
	if len(parts) == 2 && parts[0] == detailsNode && parts[1] != "" {
		return "", parts[1], nil
	}
	return "", "", wrapError(nested, err, name)
}

func (cc *compilation) processProperty(n ast.PropertyComparison) error {
	r, err := cc.resolve(n.Alias, n.Node, UnsupportedPath)
	if err != nil {
		return err
	}
	if r.detailsKey != "" {
		d := cc.ctx.DetailsJoin(r.types.Alias(), r.detailsKey, ast.InnerJoin)
		return cc.ctx.AddNodeConstraint(Property{Alias: d, Path: "value", Param: r.detailsKey}, n.Op, n.Values)
	}
	return cc.ctx.AddNodeConstraint(r.prop, n.Op, n.Values)
}

// processObjectReference compares a reference node. Equality with a
// reference matches both id and short name; any other operator compares
// the id alone.
func (cc *compilation) processObjectReference(n ast.ObjectReferenceComparison) error {
	r, err := cc.resolve(n.Alias, n.Node, UnsupportedPath)
	if err != nil {
		return err
	}
	if r.detailsKey != "" {
		return newError(UnsupportedPath, n.Node)
	}
	alias, path := r.prop.Alias, r.prop.Path
	switch {
	case n.Ref != nil && n.Op == ast.EQ:
		scope := cc.ctx.PushLogicalOperator(And)
		if err := cc.ctx.AddConstraint(alias, path+".id", ast.EQ, n.Ref.ID); err != nil {
			return err
		}
		if err := cc.ctx.AddConstraint(alias, path+"."+shortNameProperty, ast.EQ, n.Ref.Archetype.ShortName()); err != nil {
			return err
		}
		return cc.ctx.PopLogicalOperator(scope)
	case n.Ref != nil:
		return cc.ctx.AddConstraint(alias, path+".id", n.Op, n.Ref.ID)
	case !n.Archetype.IsZero():
		return cc.ctx.AddConstraint(alias, path+"."+shortNameProperty, n.Op, n.Archetype.ShortName())
	}
	return newError(InvalidObjectReferenceConstraint, n.Node)
}

func (cc *compilation) processIDEquality(n ast.IDEquality) error {
	lhs, err := cc.aliasOrQualifiedName(n.Source)
	if err != nil {
		return err
	}
	rhs, err := cc.aliasOrQualifiedName(n.Target)
	if err != nil {
		return err
	}
	return cc.ctx.AddPropertyConstraint(lhs+".id", n.Op, rhs+".id")
}

// aliasOrQualifiedName accepts a known alias, or "<alias>.<node>" and
// returns the qualified property.
func (cc *compilation) aliasOrQualifiedName(name string) (string, error) {
	alias, node, qualified := strings.Cut(name, ".")
	if _, ok := cc.ctx.TypeSet(alias); !ok {
		return "", newError(InvalidQualifiedName, name)
	}
	if !qualified {
		return alias, nil
	}
	r, err := cc.resolve(alias, node, UnsupportedPath)
	if err != nil {
		return "", err
	}
	if r.detailsKey != "" {
		return "", newError(InvalidQualifiedName, name)
	}
	return r.prop.qualified(), nil
}

func (cc *compilation) processParticipation(n ast.ParticipationFieldComparison) error {
	ts, err := cc.typeSet(n.Alias)
	if err != nil {
		return err
	}
	field := n.Field.Property()
	if field == "" {
		return newError(ConstraintTypeNotSupported, n)
	}
	return cc.ctx.AddConstraint(ts.Alias(), field, n.Op, n.Value)
}

func (cc *compilation) processSort(n ast.Sort) error {
	if n.Node == "" {
		ts, err := cc.typeSet(n.Alias)
		if err != nil {
			return err
		}
		cc.ctx.AddSortConstraint(ts.Alias(), shortNameProperty, n.Ascending)
		return nil
	}
	r, err := cc.resolve(n.Alias, n.Node, CanOnlySortOnTopLevelNodes)
	if err != nil {
		return err
	}
	if r.detailsKey != "" {
		d := cc.ctx.DetailsJoin(r.types.Alias(), r.detailsKey, ast.LeftOuterJoin)
		cc.ctx.AddSortConstraint(d, "value", n.Ascending)
		return nil
	}
	cc.ctx.AddSortConstraint(r.prop.Alias, r.prop.Path, n.Ascending)
	return nil
}

func (cc *compilation) processSelect(s ast.Select) error {
	if s.Node == "" {
		if s.Alias == "" {
			return newError(InvalidQualifiedName, s.Alias)
		}
		if _, ok := cc.ctx.TypeSet(s.Alias); !ok {
			return newError(InvalidQualifiedName, s.Alias)
		}
		if s.Reference {
			cc.ctx.AddObjectRefSelectConstraint(s.Alias, "", "")
			return nil
		}
		cc.ctx.AddSelectConstraint(s.Alias, "", "")
		return nil
	}
	r, err := cc.resolve(s.Alias, s.Node, UnsupportedPath)
	if err != nil {
		return err
	}
	if r.detailsKey != "" {
		if s.Reference {
			return newError(UnsupportedPath, s.Node)
		}
		d := cc.ctx.DetailsJoin(r.types.Alias(), r.detailsKey, ast.LeftOuterJoin)
		cc.ctx.selectAs(d+".value", r.types.Alias()+"."+r.nodeName)
		return nil
	}
	if s.Reference {
		cc.ctx.AddObjectRefSelectConstraint(r.prop.Alias, r.nodeName, r.prop.Path)
		return nil
	}
	cc.ctx.AddSelectConstraint(r.prop.Alias, r.nodeName, r.prop.Path)
	return nil
}
