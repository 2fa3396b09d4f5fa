package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaliLuke/go-archql/archetype"
)

func TestArchetypeBuildersCopy(t *testing.T) {
	base := ShortNames("party.customer*").Add(Eq("lastName", "Smith"))
	a := base.Add(Eq("firstName", "Jo"))
	b := base.Add(Eq("firstName", "Al")).As("c").Active().Primary()

	// siblings derived from one value must not share backing storage
	require.Len(t, a.Children, 2)
	require.Len(t, b.Children, 2)
	assert.Equal(t, Eq("firstName", "Jo"), a.Children[1])
	assert.Equal(t, Eq("firstName", "Al"), b.Children[1])
	assert.Len(t, base.Children, 1)

	assert.Empty(t, a.Alias)
	assert.False(t, a.ActiveOnly)
	assert.Equal(t, "c", b.Alias)
	assert.True(t, b.ActiveOnly)
	assert.True(t, b.PrimaryOnly)
	assert.Equal(t, b.ArchetypeBase, b.Base())
}

func TestArchetypeVariants(t *testing.T) {
	id := archetype.MustParseID("party.customerperson.1.0")
	byID := ByID(id).As("p").Active().Add(IsNull("notes"))
	assert.Equal(t, ArchetypeByID{
		ArchetypeBase: ArchetypeBase{Alias: "p", ActiveOnly: true, Children: []Constraint{IsNull("notes")}},
		ID:            id,
	}, byID)

	long := LongName("party", "customer*").Primary().As("c").Active()
	assert.Equal(t, "party", long.Entity)
	assert.Equal(t, "customer*", long.Concept)
	assert.True(t, long.PrimaryOnly)
	assert.True(t, long.Base().ActiveOnly)

	ref := archetype.Reference{Archetype: id, ID: 12}
	obj := ByReference(ref).As("o").Add(NotNull("name"))
	assert.Equal(t, ref, obj.Ref)
	assert.Equal(t, "o", obj.Base().Alias)
	assert.Len(t, obj.Base().Children, 1)

	var _ ArchetypeConstraint = byID
	var _ ArchetypeConstraint = long
	var _ ArchetypeConstraint = obj
}

func TestComparisonBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  PropertyComparison
		want PropertyComparison
	}{
		{"eq", Eq("a", 1), PropertyComparison{Node: "a", Op: EQ, Values: []any{1}}},
		{"ne", Ne("a", 1), PropertyComparison{Node: "a", Op: NE, Values: []any{1}}},
		{"gt", Gt("a", 1), PropertyComparison{Node: "a", Op: GT, Values: []any{1}}},
		{"gte", Gte("a", 1), PropertyComparison{Node: "a", Op: GTE, Values: []any{1}}},
		{"lt", Lt("a", 1), PropertyComparison{Node: "a", Op: LT, Values: []any{1}}},
		{"lte", Lte("a", 1), PropertyComparison{Node: "a", Op: LTE, Values: []any{1}}},
		{"between", Between("a", 1, nil), PropertyComparison{Node: "a", Op: BTW, Values: []any{1, nil}}},
		{"in", In("a", 1, 2, 3), PropertyComparison{Node: "a", Op: IN, Values: []any{1, 2, 3}}},
		{"is null", IsNull("a"), PropertyComparison{Node: "a", Op: ISNULL}},
		{"not null", NotNull("a").On("x"), PropertyComparison{Alias: "x", Node: "a", Op: NOTNULL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Alias, tt.got.Alias)
			assert.Equal(t, tt.want.Node, tt.got.Node)
			assert.Equal(t, tt.want.Op, tt.got.Op)
			assert.ElementsMatch(t, tt.want.Values, tt.got.Values)
		})
	}
}

func TestReferenceBuilders(t *testing.T) {
	ref := archetype.Reference{Archetype: archetype.MustParseID("party.patientpet"), ID: 3}

	eq := RefEq("source", ref)
	require.NotNil(t, eq.Ref)
	assert.Equal(t, EQ, eq.Op)
	assert.Equal(t, ref, *eq.Ref)

	ne := RefNe("source", ref)
	assert.Equal(t, NE, ne.Op)

	byType := RefArchetype("source", NE, ref.Archetype)
	assert.Nil(t, byType.Ref)
	assert.Equal(t, "party.patientpet", byType.Archetype.ShortName())

	assert.Equal(t, IDEquality{Source: "act.id", Target: "p.act.id", Op: EQ}, IDEq("act.id", "p.act.id"))
}

func TestJoinBuilders(t *testing.T) {
	j := Join("patients", Eq("name", "Fido")).As("pets").Of(ShortNames("entityRelationship.patientOwner"))
	assert.Equal(t, InnerJoin, j.Kind)
	assert.Equal(t, "pets", j.Alias)
	assert.Equal(t, "patients", j.Node)
	assert.Equal(t, ShortNames("entityRelationship.patientOwner"), j.Archetype)
	assert.Len(t, j.Children, 1)

	l := LeftJoin("contacts")
	assert.Equal(t, LeftOuterJoin, l.Kind)
	assert.Nil(t, l.Archetype)
	assert.Equal(t, "left join", l.Kind.String())
	assert.Equal(t, "inner join", InnerJoin.String())
}

func TestProjectionBuilders(t *testing.T) {
	assert.Equal(t, Select{Alias: "p"}, SelectObject("p"))
	assert.Equal(t, Select{Node: "p.name"}, SelectNode("p.name"))
	assert.Equal(t, Select{Node: "entity", Reference: true}, SelectRef("entity"))
	assert.Equal(t, Sort{Node: "name", Ascending: true}, SortBy("name", true))
	assert.Equal(t, Sort{Alias: "p"}, SortByShortName("p", false))

	q := NewQuery(ShortNames("party.customerperson"))
	assert.False(t, q.Distinct)
	assert.True(t, q.WithDistinct().Distinct)
	assert.False(t, q.Distinct)
}

func TestParticipationField(t *testing.T) {
	for _, f := range []ParticipationField{ActShortName, ActivityStartTime, ActivityEndTime} {
		got, ok := ParseParticipationField(f.Property())
		require.True(t, ok, f.String())
		assert.Equal(t, f, got)
	}
	_, ok := ParseParticipationField("startTime")
	assert.False(t, ok)
	assert.Empty(t, ParticipationField(-1).Property())
	assert.Empty(t, ParticipationField(9).Property())

	c := Participation(ActivityStartTime, GTE, "2024-01-01")
	assert.Equal(t, "activityStartTime", c.Field.Property())
	assert.Equal(t, ArchetypeNodeComparison{Op: NE, Value: "act.*"}, ShortNameIs(NE, "act.*"))
}
