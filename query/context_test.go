package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaliLuke/go-archql/archetype"
	"github.com/CaliLuke/go-archql/ast"
)

func resolveForTest(t *testing.T, patterns ...string) *TypeSet {
	t.Helper()
	r := NewTypeResolver(testCatalog(), testHierarchy())
	ts, err := r.ResolveShortNames(patterns, false)
	require.NoError(t, err)
	return ts
}

func TestContextWhereStructure(t *testing.T) {
	c := newTestCompiler(t)
	ctx, err := c.Prepare(ast.NewQuery(ast.ShortNames("party.customerperson").Add(
		ast.OrOf(ast.Eq("lastName", "Smith"), ast.OrOf(), ast.Eq("firstName", "Jo")),
	)))
	require.NoError(t, err)

	want := Fragment{Op: "and", Items: []Fragment{
		{Op: "and", Items: []Fragment{
			{Term: "party0.archetypeId.shortName = :shortName0"},
			{Op: "or", Items: []Fragment{
				{Term: "party0.lastName = :lastName0"},
				{Op: "or"},
				{Term: "party0.firstName = :firstName0"},
			}},
		}},
	}}
	if diff := cmp.Diff(want, ctx.Where()); diff != "" {
		t.Errorf("where mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"firstName0", "lastName0", "shortName0"}, ctx.Params())
	assert.Equal(t, []string{"party0"}, ctx.Aliases())
	assert.Zero(t, ctx.Depth())
}

func TestContextJoinConditionIsSeparateRegion(t *testing.T) {
	c := newTestCompiler(t)
	ctx, err := c.Prepare(ast.NewQuery(ast.ShortNames("party.customerperson").Add(
		ast.OrOf(
			ast.Eq("lastName", "Smith"),
			ast.Join("patients", ast.IsNull("activeEndTime")),
			ast.Eq("firstName", "Jo"),
		),
	)))
	require.NoError(t, err)

	where := Fragment{Op: "and", Items: []Fragment{
		{Op: "and", Items: []Fragment{
			{Term: "party0.archetypeId.shortName = :shortName0"},
			{Op: "or", Items: []Fragment{
				{Term: "party0.lastName = :lastName0"},
				{Term: "party0.firstName = :firstName0"},
			}},
		}},
	}}
	if diff := cmp.Diff(where, ctx.Where()); diff != "" {
		t.Errorf("where mismatch (-want +got):\n%s", diff)
	}

	with, ok := ctx.JoinCondition("patients0")
	require.True(t, ok)
	want := Fragment{Op: "and", Items: []Fragment{
		{Op: "and", Items: []Fragment{{Term: "patients0.activeEndTime is null"}}},
	}}
	if diff := cmp.Diff(want, with); diff != "" {
		t.Errorf("join condition mismatch (-want +got):\n%s", diff)
	}

	_, ok = ctx.JoinCondition("party0")
	assert.False(t, ok)
}

func TestContextScopes(t *testing.T) {
	ctx := NewContext(false)
	require.NoError(t, ctx.PushTypeSet(resolveForTest(t, "party.customerperson"), ""))

	outer := ctx.PushLogicalOperator(And)
	require.NoError(t, ctx.AddConstraint("", "lastName", ast.EQ, "Smith"))
	inner := ctx.PushLogicalOperator(Or)
	assert.Equal(t, 1, outer.Terms())

	// closing the outer scope first is an error
	err := ctx.PopLogicalOperator(outer)
	require.ErrorIs(t, err, ErrUnbalancedScope)

	assert.Equal(t, Or, inner.Operator())
	assert.Zero(t, inner.Terms())
	require.NoError(t, ctx.PopLogicalOperator(inner))
	require.NoError(t, ctx.PopLogicalOperator(outer))
	require.ErrorIs(t, ctx.PopLogicalOperator(nil), ErrUnbalancedScope)

	_, err = ctx.PopTypeSet()
	require.NoError(t, err)
	_, err = ctx.PopTypeSet()
	require.ErrorIs(t, err, ErrUnbalancedScope)

	assert.Equal(t, "select party0 from PartyImpl as party0 where (party0.lastName = :lastName0)", ctx.Query().Text())
}

func TestContextAddPropertyConstraint(t *testing.T) {
	ctx := NewContext(false)
	require.NoError(t, ctx.PushTypeSet(resolveForTest(t, "act.customerEstimation"), "act"))
	require.NoError(t, ctx.PushTypeSet(resolveForTest(t, "participation.customer"), "p"))
	require.NoError(t, ctx.AddPropertyConstraint("act.id", ast.EQ, "p.act.id"))
	require.ErrorIs(t, ctx.AddPropertyConstraint("act.id", ast.IN, "p.act.id"), ErrOperatorNotSupported)

	assert.Equal(t, "select act from ActImpl as act, ParticipationImpl as p where act.id = p.act.id", ctx.Query().Text())
}

func TestContextPushJoinRequiresParent(t *testing.T) {
	ctx := NewContext(false)
	err := ctx.PushJoin(resolveForTest(t, "contact.*"), "", "contacts", ast.InnerJoin)
	require.ErrorIs(t, err, ErrUnbalancedScope)
}

func TestContextReferenceBinding(t *testing.T) {
	ctx := NewContext(false)
	require.NoError(t, ctx.PushTypeSet(resolveForTest(t, "participation.customer"), ""))
	owner := archetype.Reference{Archetype: archetype.MustParseID("party.customerperson"), ID: 7}
	prop := Property{Alias: "participation0", Path: "entity", Reference: true}
	require.NoError(t, ctx.AddNodeConstraint(prop, ast.EQ, []any{owner}))
	require.NoError(t, ctx.AddNodeConstraint(prop, ast.NE, []any{&owner}))

	q := ctx.Query()
	assert.Equal(t,
		"select participation0 from ParticipationImpl as participation0 "+
			"where participation0.entity.id = :entity0 and participation0.entity.id != :entity1",
		q.Text())
	assert.Equal(t, map[string]any{"entity0": int64(7), "entity1": int64(7)}, q.Params())
}

func TestTypeSetContains(t *testing.T) {
	all := resolveForTest(t, "party.customer*")
	person := resolveForTest(t, "party.customerperson")
	assert.True(t, all.contains(person))
	assert.False(t, person.contains(all))
	assert.Equal(t, []string{"party.customerorganisation", "party.customerperson"}, all.ShortNames())
	assert.Equal(t, "PartyImpl", all.ImplementationType())
	assert.Len(t, all.Descriptors(), 2)
}

func TestResolveRange(t *testing.T) {
	r := NewTypeResolver(testCatalog(), testHierarchy())
	person, _ := testCatalog().Descriptor("party.customerperson")

	ts, err := r.ResolveRange(person.Node("patients"))
	require.NoError(t, err)
	assert.Equal(t, []string{"entityRelationship.patientOwner"}, ts.ShortNames())

	ts, err = r.ResolveRange(person.Node("contacts"))
	require.NoError(t, err)
	assert.Equal(t, []string{"contact.location", "contact.phoneNumber"}, ts.ShortNames())

	_, err = r.ResolveRange(person.Node("attachments"))
	require.ErrorIs(t, err, ErrNoArchetypeRangeAssertion)
}

func TestContextNilReference(t *testing.T) {
	ctx := NewContext(false)
	require.NoError(t, ctx.PushTypeSet(resolveForTest(t, "participation.customer"), ""))
	var none *archetype.Reference
	prop := Property{Alias: "participation0", Path: "entity", Reference: true}
	require.NoError(t, ctx.AddNodeConstraint(prop, ast.EQ, []any{none}))
	require.NoError(t, ctx.AddNodeConstraint(prop, ast.NE, []any{none}))

	q := ctx.Query()
	assert.Equal(t,
		"select participation0 from ParticipationImpl as participation0 "+
			"where participation0.entity.id is null and participation0.entity.id is not null",
		q.Text())
	assert.Empty(t, q.Params())
}

func TestContextDetailsAliasIsTaken(t *testing.T) {
	ctx := NewContext(false)
	require.NoError(t, ctx.PushTypeSet(resolveForTest(t, "party.customerperson"), ""))
	assert.Equal(t, "details0", ctx.DetailsJoin("party0", "breed", ast.InnerJoin))

	err := ctx.PushTypeSet(resolveForTest(t, "act.customerEstimation"), "details0")
	require.ErrorIs(t, err, ErrDuplicateAlias)
	err = ctx.PushJoin(resolveForTest(t, "contact.*"), "details0", "contacts", ast.InnerJoin)
	require.ErrorIs(t, err, ErrCannotJoinDuplicateAlias)
}
