package oaf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndex(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"fragments": {"f1": "f1.oaf"},
		"assets": {
			"a.bin": {"offset": 4, "length": 4, "mimetype": "image/png", "fragment": "f1"},
			"b.bin": {"offset": 8, "length": 2, "fragment": "f1"}
		}
	}`)

	idx, err := ParseIndex(data)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"f1": "f1.oaf"}, idx.Fragments)
	assert.Equal(t, AssetDescriptor{Offset: 4, Length: 4, MimeType: "image/png", Fragment: "f1"}, idx.Assets["a.bin"])
	assert.Equal(t, DefaultMimeType, idx.Assets["b.bin"].MimeType)
	assert.Equal(t, []string{"a.bin", "b.bin"}, idx.Paths())
}

func TestParseIndexInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "missing assets", data: `{"fragments": {"f1": "f1.oaf"}}`},
		{name: "missing fragments", data: `{"assets": {}}`},
		{name: "null fragments", data: `{"fragments": null, "assets": {}}`},
		{name: "missing offset", data: `{"fragments": {"f1": "x"}, "assets": {"a": {"length": 1, "fragment": "f1"}}}`},
		{name: "missing length", data: `{"fragments": {"f1": "x"}, "assets": {"a": {"offset": 1, "fragment": "f1"}}}`},
		{name: "missing fragment", data: `{"fragments": {"f1": "x"}, "assets": {"a": {"offset": 1, "length": 1}}}`},
		{name: "null descriptor", data: `{"fragments": {"f1": "x"}, "assets": {"a": null}}`},
		{name: "undeclared fragment", data: `{"fragments": {"f1": "x"}, "assets": {"a": {"offset": 0, "length": 1, "fragment": "f2"}}}`},
		{name: "negative offset", data: `{"fragments": {"f1": "x"}, "assets": {"a": {"offset": -1, "length": 1, "fragment": "f1"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseIndex([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidIndex)
		})
	}
}

func TestLoadIndexResolvesLocations(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"fragments": {"rel": "x.oaf", "abs": "https://cdn.example.com/y.oaf"},
		"assets": {}
	}`)

	idx, err := LoadIndex(data, "http://h/dir/idx.json")
	require.NoError(t, err)

	assert.Equal(t, "http://h/dir/x.oaf", idx.Fragments["rel"])
	assert.Equal(t, "https://cdn.example.com/y.oaf", idx.Fragments["abs"])
}

func TestIndexValidateInMemory(t *testing.T) {
	t.Parallel()

	idx := &Index{
		Fragments: map[string]string{"f": "f.oaf"},
		Assets:    map[string]AssetDescriptor{"a": {Offset: 4, Length: 1, Fragment: "f"}},
	}
	require.NoError(t, idx.Validate())
	assert.Equal(t, DefaultMimeType, idx.Assets["a"].MimeType)

	require.ErrorIs(t, (&Index{Fragments: map[string]string{}}).Validate(), ErrInvalidIndex)
	require.ErrorIs(t, (&Index{Assets: map[string]AssetDescriptor{}}).Validate(), ErrInvalidIndex)

	var nilIndex *Index
	require.ErrorIs(t, nilIndex.Validate(), ErrInvalidIndex)
}

func TestIndexMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	idx := &Index{
		Fragments: map[string]string{"f": "f.oaf"},
		Assets: map[string]AssetDescriptor{
			"a.txt": {Offset: 4, Length: 3, MimeType: "text/plain", Fragment: "f"},
		},
	}
	data, err := idx.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"fragments": {"f": "f.oaf"},
		"assets": {"a.txt": {"offset": 4, "length": 3, "mimetype": "text/plain", "fragment": "f"}}
	}`, string(data))

	parsed, err := ParseIndex(data)
	require.NoError(t, err)
	assert.Equal(t, idx, parsed)
}
