package catalogdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaliLuke/go-archql/archetype"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func sampleCatalog() (*archetype.Registry, *archetype.TypeHierarchy) {
	h := archetype.NewTypeHierarchy()
	h.MustDefine(
		archetype.ImplType{Name: "IMObjectImpl"},
		archetype.ImplType{Name: "PartyImpl", Parent: "IMObjectImpl"},
		archetype.ImplType{Name: "PeriodRelationshipImpl", Parent: "IMObjectImpl", NoActive: true},
	)
	reg := archetype.NewRegistry()
	reg.MustRegister(
		archetype.NewDescriptor("party.customerperson", "PartyImpl", true,
			&archetype.NodeDescriptor{Name: "lastName", Path: "/lastName", Type: "string"},
			&archetype.NodeDescriptor{
				Name: "patients", Path: "/patients", Type: "collection", Collection: true,
				ArchetypeRange: []string{"entityRelationship.patientOwner", "entityRelationship.patientLocation"},
			},
			&archetype.NodeDescriptor{Name: "contacts", Path: "/contacts", Collection: true, Filter: "contact.*"},
		),
		archetype.NewDescriptor("entityRelationship.patientOwner", "PeriodRelationshipImpl", false,
			&archetype.NodeDescriptor{Name: "activeStartTime", Path: "/activeStartTime", Type: "date", Date: true},
			&archetype.NodeDescriptor{
				Name: "source", Path: "/source", Type: "reference", ObjectReference: true,
				ArchetypeRange: []string{"party.patientpet"},
			},
		),
	)
	return reg, h
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	reg, h := sampleCatalog()
	require.NoError(t, s.Save(ctx, reg, h))

	gotReg, gotH, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, h.Types(), gotH.Types())
	assert.Equal(t, reg.ShortNames("*", false), gotReg.ShortNames("*", false))
	for _, want := range reg.Descriptors() {
		got, ok := gotReg.Descriptor(want.ShortName)
		require.True(t, ok, want.ShortName)
		assert.Equal(t, want.ImplementationType, got.ImplementationType)
		assert.Equal(t, want.Primary, got.Primary)
		assert.Equal(t, want.Nodes(), got.Nodes(), want.ShortName)
	}
	assert.False(t, gotH.HasActiveFlag("PeriodRelationshipImpl"))
}

func TestSaveReplacesContents(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	reg, h := sampleCatalog()
	require.NoError(t, s.Save(ctx, reg, h))

	smaller := archetype.NewRegistry()
	smaller.MustRegister(archetype.NewDescriptor("party.customerperson", "PartyImpl", true))
	require.NoError(t, s.Save(ctx, smaller, h))

	gotReg, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"party.customerperson"}, gotReg.ShortNames("*", false))
	d, _ := gotReg.Descriptor("party.customerperson")
	assert.Empty(t, d.Nodes())
}

func TestOpenExisting(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)
	reg, h := sampleCatalog()
	require.NoError(t, s.Save(ctx, reg, h))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	gotReg, _, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, gotReg.Len())
}

func TestLoadEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	reg, h, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, reg.Len())
	assert.Empty(t, h.Types())
}

func TestSaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	reg, h := sampleCatalog()
	require.NoError(t, s.Save(ctx, reg, h))

	bad := archetype.NewRegistry()
	bad.MustRegister(archetype.NewDescriptor("party.bad", "PartyImpl", true))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, s.Save(cancelled, bad, h))

	gotReg, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, gotReg.Len())
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}
