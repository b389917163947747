package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceValidate(t *testing.T) {
	valid := Reference{FilePath: "src/a.ts", TargetName: "helper", Type: RefCall, LineNumber: 3}
	assert.NoError(t, valid.Validate())

	noTarget := valid
	noTarget.TargetName = ""
	assert.Error(t, noTarget.Validate())

	noFile := valid
	noFile.FilePath = ""
	assert.Error(t, noFile.Validate())

	badType := valid
	badType.Type = ReferenceType("bogus")
	assert.Error(t, badType.Validate())

	zeroLine := valid
	zeroLine.LineNumber = 0
	assert.Error(t, zeroLine.Validate())
}

func TestReferenceImportSource(t *testing.T) {
	imp := Reference{
		FilePath: "src/a.ts", TargetName: "helper", Type: RefImport, LineNumber: 1,
		Metadata: map[string]string{"source": "./b", "kind": ImportNamed},
	}
	assert.Equal(t, "./b", imp.ImportSource())

	call := imp
	call.Type = RefCall
	assert.Empty(t, call.ImportSource(), "only imports carry a source")
}

func TestReferenceMetadataHash(t *testing.T) {
	a := Reference{
		FilePath: "src/a.ts", TargetName: "helper", Type: RefCall, LineNumber: 3,
		Metadata: map[string]string{"object": "utils", "chain": "utils.format"},
	}
	b := Reference{
		FilePath: "src/a.ts", TargetName: "helper", Type: RefCall, LineNumber: 3,
		Metadata: map[string]string{"chain": "utils.format", "object": "utils"},
	}
	// Hashing is canonical: insertion order does not matter
	assert.Equal(t, a.MetadataHash(), b.MetadataHash())

	c := a
	c.Metadata = map[string]string{"object": "other"}
	assert.NotEqual(t, a.MetadataHash(), c.MetadataHash())

	// Nil and empty metadata hash identically
	none := Reference{FilePath: "src/a.ts", TargetName: "helper", Type: RefCall, LineNumber: 3}
	empty := none
	empty.Metadata = map[string]string{}
	assert.Equal(t, none.MetadataHash(), empty.MetadataHash())
	assert.Len(t, none.MetadataHash(), 64)
}
