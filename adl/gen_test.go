package adl

import (
	"bytes"
	"go/parser"
	"go/token"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaliLuke/go-archql/archetype"
)

func TestExportName(t *testing.T) {
	tests := map[string]string{
		"party.customerperson":            "PartyCustomerperson",
		"entityRelationship.patientOwner": "EntityRelationshipPatientOwner",
		"id":                              "ID",
		"act.sms-reminder":                "ActSMSReminder",
		"first_name":                      "FirstName",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExportName(in), in)
	}
}

func TestRenderConstants(t *testing.T) {
	source, err := os.ReadFile("testdata/catalog.adl")
	require.NoError(t, err)
	reg, _, err := Load("testdata/catalog.adl")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderConstants(&buf, reg, GenConfig{PackageName: "catalog", Source: string(source)}))
	out := buf.String()

	_, err = parser.ParseFile(token.NewFileSet(), "catalog_gen.go", out, 0)
	require.NoError(t, err, out)

	assert.Contains(t, out, "// Code generated by archq; DO NOT EDIT.")
	assert.Contains(t, out, "package catalog\n")
	assert.Regexp(t, `const CatalogHash = "sha256:[0-9a-f]{16}"`, out)
	assert.Regexp(t, `ArchetypePartyCustomerperson\s+= "party.customerperson"`, out)
	assert.Regexp(t, `ArchetypeEntityRelationshipPatientOwner\s+= "entityRelationship.patientOwner"`, out)
	assert.Regexp(t, `NodeTelephoneNumber\s+= "telephoneNumber"`, out)
	assert.Regexp(t, `"contact.phoneNumber":\s+"ContactImpl",`, out)
	assert.Contains(t, out, `var PrimaryArchetypes = []string{"act.customerEstimation", "party.customerperson", "party.patientpet"}`)
	assert.Regexp(t, `"participation.customer":\s+\{"entity", "act"\},`, out)
}

func TestBuildGenData(t *testing.T) {
	reg := archetype.NewRegistry()
	reg.MustRegister(
		archetype.NewDescriptor("party.b", "PartyImpl", false,
			&archetype.NodeDescriptor{Name: "name"}, &archetype.NodeDescriptor{Name: "id"}),
		archetype.NewDescriptor("party.a", "PartyImpl", true,
			&archetype.NodeDescriptor{Name: "name"}),
	)
	data, err := BuildGenData(reg, GenConfig{})
	require.NoError(t, err)

	assert.Equal(t, "archetypes", data.PackageName)
	assert.Empty(t, data.CatalogHash)
	assert.Equal(t, []ConstCtx{
		{Name: "ArchetypePartyA", Value: "party.a"},
		{Name: "ArchetypePartyB", Value: "party.b"},
	}, data.Archetypes)
	assert.Equal(t, []ConstCtx{
		{Name: "NodeID", Value: "id"},
		{Name: "NodeName", Value: "name"},
	}, data.Nodes)
	assert.Equal(t, []string{"party.a"}, data.Primary)
	assert.Equal(t, []KVSliceCtx{
		{Key: "party.a", Values: []string{"name"}},
		{Key: "party.b", Values: []string{"name", "id"}},
	}, data.ArchetypeNodes)
}

func TestBuildGenDataNameClash(t *testing.T) {
	reg := archetype.NewRegistry()
	reg.MustRegister(
		archetype.NewDescriptor("party.customer-person", "PartyImpl", true),
		archetype.NewDescriptor("party.customer_person", "PartyImpl", true),
	)
	_, err := BuildGenData(reg, GenConfig{})
	assert.ErrorContains(t, err, "ArchetypePartyCustomerPerson")
}
