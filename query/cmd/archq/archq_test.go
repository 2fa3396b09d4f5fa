package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaliLuke/go-archql/query"
)

const customersText = "select party0 from PartyImpl as party0 " +
	"inner join party0.patients as patients0 with (patients0.activeEndTime is null) " +
	"where (party0.archetypeId.shortName = :shortName0 and party0.active = :active0 and party0.lastName like :lastName0) " +
	"order by party0.lastName asc"

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCompileText(t *testing.T) {
	out, _, err := execute(t, "", "compile", "--catalog", "testdata/catalog.adl", "testdata/customers.yaml")
	require.NoError(t, err)

	want := customersText + "\n" +
		"  :active0 = true\n" +
		"  :lastName0 = Sm%\n" +
		"  :shortName0 = party.customerperson\n"
	assert.Equal(t, want, out)
}

func TestCompileJSON(t *testing.T) {
	out, _, err := execute(t, "", "compile", "--format", "json", "--distinct",
		"--catalog", "testdata/catalog.adl", "testdata/customers.yaml")
	require.NoError(t, err)

	var got compileResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, strings.Replace(customersText, "select party0", "select distinct party0", 1), got.Text)
	assert.Equal(t, map[string]any{
		"active0":    true,
		"lastName0":  "Sm%",
		"shortName0": "party.customerperson",
	}, got.Params)
	assert.Equal(t, []string{"party0"}, got.SelectNames)
	assert.Empty(t, got.RefSelectNames)
	assert.Equal(t, map[string][]string{
		"party0":    {"party.customerperson"},
		"patients0": {"entityRelationship.patientOwner"},
	}, got.SelectTypes)
}

func TestCompileMsgpackFromStdin(t *testing.T) {
	out, _, err := execute(t, "root:\n  shortNames: {names: [party.customerperson]}\n",
		"compile", "--format", "msgpack", "--catalog", "testdata/catalog.adl", "-")
	require.NoError(t, err)

	q, err := query.DecodeCompiledQuery([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "select party0 from PartyImpl as party0 where (party0.archetypeId.shortName = :shortName0)", q.Text())
}

func TestCompileVerboseLogs(t *testing.T) {
	_, errOut, err := execute(t, "", "compile", "-v", "--catalog", "testdata/catalog.adl", "testdata/customers.yaml")
	require.NoError(t, err)
	assert.Contains(t, errOut, "loaded catalog")
	assert.Contains(t, errOut, "compiled query")
}

func TestCompileErrors(t *testing.T) {
	_, errOut, err := execute(t, "", "compile", "--catalog", "testdata/catalog.adl", "testdata/unknown.yaml")
	require.ErrorIs(t, err, query.ErrNoMatchingArchetypesForShortName)
	assert.Contains(t, errOut, "compile failed")
	assert.Contains(t, errOut, "NoMatchingArchetypesForShortName")

	_, _, err = execute(t, "", "compile", "--catalog", "testdata/catalog.adl", "testdata/missing.yaml")
	assert.ErrorContains(t, err, "read query")

	_, _, err = execute(t, "", "compile", "--catalog", "testdata/missing.adl", "testdata/customers.yaml")
	assert.ErrorContains(t, err, "read catalog")

	_, _, err = execute(t, "", "compile", "testdata/customers.yaml")
	assert.ErrorContains(t, err, "catalog")

	_, _, err = execute(t, "", "compile", "--format", "xml", "--catalog", "testdata/catalog.adl", "testdata/customers.yaml")
	assert.ErrorContains(t, err, `invalid format "xml"`)
}

func TestCatalogRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")
	out, _, err := execute(t, "", "catalog", "--catalog", "testdata/catalog.adl", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "saved 2 archetypes and 3 types to "+db+"\n", out)

	out, _, err = execute(t, "", "catalog", "--format", "json", "--catalog", db, "--db", filepath.Join(t.TempDir(), "copy.db"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"archetypes": 2, "types": 3}`, out)

	out, _, err = execute(t, "", "compile", "--catalog", db, "testdata/customers.yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, customersText+"\n"), out)
}

func TestGen(t *testing.T) {
	out, _, err := execute(t, "", "gen", "--catalog", "testdata/catalog.adl", "--pkg", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "package catalog\n")
	assert.Contains(t, out, "const CatalogHash")
	assert.Regexp(t, `ArchetypePartyCustomerperson\s+= "party.customerperson"`, out)

	file := filepath.Join(t.TempDir(), "archetypes_gen.go")
	out, _, err = execute(t, "", "gen", "--catalog", "testdata/catalog.adl", "-o", file)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package archetypes\n")
}
