package query

import (
	"testing"

	"github.com/CaliLuke/go-archql/archetype"
)

func stringNode(name string) *archetype.NodeDescriptor {
	return &archetype.NodeDescriptor{Name: name, Path: "/" + name, Type: "string"}
}

func dateNode(name string) *archetype.NodeDescriptor {
	return &archetype.NodeDescriptor{Name: name, Path: "/" + name, Type: "date", Date: true}
}

func refNode(name string, rng ...string) *archetype.NodeDescriptor {
	return &archetype.NodeDescriptor{
		Name: name, Path: "/" + name, Type: "reference",
		ObjectReference: true, ArchetypeRange: rng,
	}
}

func collectionNode(name string, rng ...string) *archetype.NodeDescriptor {
	return &archetype.NodeDescriptor{
		Name: name, Path: "/" + name, Type: "collection",
		Collection: true, ArchetypeRange: rng,
	}
}

func testHierarchy() *archetype.TypeHierarchy {
	h := archetype.NewTypeHierarchy()
	h.MustDefine(
		archetype.ImplType{Name: "IMObjectImpl"},
		archetype.ImplType{Name: "EntityImpl", Parent: "IMObjectImpl"},
		archetype.ImplType{Name: "PartyImpl", Parent: "EntityImpl"},
		archetype.ImplType{Name: "ProductImpl", Parent: "EntityImpl"},
		archetype.ImplType{Name: "ActImpl", Parent: "IMObjectImpl"},
		archetype.ImplType{Name: "ParticipationImpl", Parent: "IMObjectImpl"},
		archetype.ImplType{Name: "PeriodRelationshipImpl", Parent: "IMObjectImpl", NoActive: true},
		archetype.ImplType{Name: "ActRelationshipImpl", Parent: "IMObjectImpl", NoActive: true},
		archetype.ImplType{Name: "ContactImpl", Parent: "IMObjectImpl"},
		archetype.ImplType{Name: "LookupImpl", Parent: "IMObjectImpl"},
	)
	return h
}

func testCatalog() *archetype.Registry {
	r := archetype.NewRegistry()
	r.MustRegister(
		archetype.NewDescriptor("party.customerperson", "PartyImpl", true,
			stringNode("name"),
			stringNode("firstName"),
			stringNode("lastName"),
			stringNode("notes"),
			collectionNode("patients", "entityRelationship.patientOwner"),
			&archetype.NodeDescriptor{Name: "contacts", Path: "/contacts", Type: "collection", Collection: true, Filter: "contact.*"},
			collectionNode("classifications", "lookup.customerType"),
			collectionNode("attachments"),
			&archetype.NodeDescriptor{Name: "street", Path: "/address/street", Type: "string"},
		),
		archetype.NewDescriptor("party.customerorganisation", "PartyImpl", true,
			stringNode("name"),
			&archetype.NodeDescriptor{Name: "notes", Path: "/description", Type: "string"},
		),
		archetype.NewDescriptor("party.patientpet", "PartyImpl", true,
			stringNode("name"),
			stringNode("species"),
			dateNode("dateOfBirth"),
			&archetype.NodeDescriptor{Name: "breed", Path: "/details/breed", Type: "string"},
			&archetype.NodeDescriptor{Name: "deep", Path: "/a/b/c", Type: "string"},
			&archetype.NodeDescriptor{Name: "other", Path: "/foo/bar", Type: "string"},
		),
		archetype.NewDescriptor("entityRelationship.patientOwner", "PeriodRelationshipImpl", false,
			refNode("source", "party.patientpet"),
			refNode("target", "party.customerperson"),
			dateNode("activeStartTime"),
			dateNode("activeEndTime"),
		),
		archetype.NewDescriptor("contact.location", "ContactImpl", false, stringNode("address")),
		archetype.NewDescriptor("contact.phoneNumber", "ContactImpl", false, stringNode("telephoneNumber")),
		archetype.NewDescriptor("lookup.customerType", "LookupImpl", false, stringNode("code"), stringNode("name")),
		archetype.NewDescriptor("act.customerEstimation", "ActImpl", true,
			dateNode("startTime"),
			stringNode("status"),
			stringNode("amount"),
			collectionNode("participations", "participation.customer", "participation.patient"),
			collectionNode("items", "actRelationship.customerEstimationItem"),
		),
		archetype.NewDescriptor("act.customerEstimationItem", "ActImpl", true,
			dateNode("startTime"),
			stringNode("fixedPrice"),
		),
		archetype.NewDescriptor("participation.customer", "ParticipationImpl", false,
			refNode("entity", "party.customer*"),
			refNode("act", "act.customerEstimation"),
		),
		archetype.NewDescriptor("participation.patient", "ParticipationImpl", false,
			refNode("entity", "party.patientpet"),
			refNode("act", "act.customerEstimation"),
		),
		archetype.NewDescriptor("actRelationship.customerEstimationItem", "ActRelationshipImpl", false,
			refNode("source", "act.customerEstimation"),
			refNode("target", "act.customerEstimationItem"),
		),
		archetype.NewDescriptor("product.medication", "ProductImpl", true, stringNode("name")),
	)
	return r
}

func newTestCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	return NewCompiler(testCatalog(), testHierarchy(), opts...)
}

func ref(shortName string, id int64) archetype.Reference {
	r, err := archetype.NewReference(shortName, id)
	if err != nil {
		panic(err)
	}
	return r
}
