package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationship_Validate(t *testing.T) {
	assert.NoError(t, Relationship{DocA: "/a", DocB: "/b", Kind: RelationReferences}.Validate())
	assert.NoError(t, Relationship{DocA: "/a", DocB: "/a", Kind: RelationDuplicates}.Validate())

	assert.ErrorIs(t, Relationship{DocB: "/b", Kind: RelationReferences}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Relationship{DocA: "/a", Kind: RelationReferences}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Relationship{DocA: "/a", DocB: "/b", Kind: "likes"}.Validate(), ErrInvalidInput)
}

func TestRelationKind_Valid(t *testing.T) {
	for _, k := range RelationKinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, RelationKind("").Valid())
}
