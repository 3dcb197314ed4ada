package oaf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqIDs returns an id generator yielding f1, f2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("f%d", n)
	}
}

func sized(sizes ...int64) []AssetSource {
	assets := make([]AssetSource, len(sizes))
	for i, s := range sizes {
		assets[i] = AssetSource{Path: fmt.Sprintf("a%d", i), Size: s}
	}
	return assets
}

// fragmentPaths returns the asset paths of each planned fragment.
func fragmentPaths(plan *Plan) [][]string {
	out := make([][]string, len(plan.Fragments))
	for i, fp := range plan.Fragments {
		for _, a := range fp.Assets {
			out[i] = append(out[i], a.Path)
		}
	}
	return out
}

func TestPackSplitting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sizes     []int64
		threshold int64
		want      [][]string
	}{
		{
			name:      "fits in one fragment",
			sizes:     []int64{3, 3},
			threshold: 10,
			want:      [][]string{{"a0", "a1"}},
		},
		{
			name:      "reaching the threshold does not seal",
			sizes:     []int64{3, 3, 3},
			threshold: 10,
			want:      [][]string{{"a0", "a1", "a2"}},
		},
		{
			name:      "sealed after crossing the threshold",
			sizes:     []int64{3, 3, 4, 3, 1},
			threshold: 10,
			want:      [][]string{{"a0", "a1", "a2"}, {"a3", "a4"}},
		},
		{
			name:      "oversized asset alone",
			sizes:     []int64{50, 1, 2},
			threshold: 10,
			want:      [][]string{{"a0"}, {"a1", "a2"}},
		},
		{
			name:      "sizes past threshold in a single fragment",
			sizes:     []int64{1_500_000, 1_000_000},
			threshold: 2_000_000,
			want:      [][]string{{"a0", "a1"}},
		},
		{
			name:      "zero size trailing asset",
			sizes:     []int64{20, 0},
			threshold: 10,
			want:      [][]string{{"a0"}, {"a1"}},
		},
		{
			name:      "no assets",
			threshold: 10,
			want:      [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan, err := Pack(sized(tt.sizes...), PackWithFragmentSize(tt.threshold), PackWithIDFunc(seqIDs()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, fragmentPaths(plan))
			assert.Len(t, plan.Index.Fragments, len(tt.want))
			assert.Len(t, plan.Index.Assets, len(tt.sizes))
			require.NoError(t, plan.Index.Validate())
		})
	}
}

func TestPackOffsets(t *testing.T) {
	t.Parallel()

	assets := []AssetSource{
		{Path: "big.bin", Size: 8},
		{Path: "x.txt", Size: 1, MimeType: "text/plain"},
		{Path: "y.txt", Size: 5, MimeType: "text/plain"},
	}
	plan, err := Pack(assets, PackWithFragmentSize(10), PackWithIDFunc(seqIDs()))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"f1": "f1.oaf", "f2": "f2.oaf"}, plan.Index.Fragments)
	assert.Equal(t, map[string]AssetDescriptor{
		"big.bin": {Offset: 4, Length: 8, MimeType: DefaultMimeType, Fragment: "f1"},
		"x.txt":   {Offset: 4, Length: 1, MimeType: "text/plain", Fragment: "f2"},
		"y.txt":   {Offset: 5, Length: 5, MimeType: "text/plain", Fragment: "f2"},
	}, plan.Index.Assets)

	require.Len(t, plan.Fragments, 2)
	assert.Equal(t, int64(12), plan.Fragments[0].Size)
	assert.Equal(t, int64(10), plan.Fragments[1].Size)
	assert.Equal(t, "f2.oaf", plan.Fragments[1].Location)
}

func TestPackHeaderLength(t *testing.T) {
	t.Parallel()

	plan, err := Pack(sized(4, 4), PackWithFragmentSize(10), PackWithHeaderLength(0), PackWithIDFunc(seqIDs()))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a0", "a1"}}, fragmentPaths(plan))
	assert.Equal(t, int64(0), plan.Index.Assets["a0"].Offset)
	assert.Equal(t, int64(4), plan.Index.Assets["a1"].Offset)
}

func TestPackDefaultIDs(t *testing.T) {
	t.Parallel()

	plan, err := Pack(sized(1, 1), PackWithFragmentSize(1))
	require.NoError(t, err)
	require.Len(t, plan.Fragments, 2)
	assert.NotEqual(t, plan.Fragments[0].ID, plan.Fragments[1].ID)
	assert.Len(t, plan.Fragments[0].ID, 36)
}

func TestPackDuplicatePathLastWins(t *testing.T) {
	t.Parallel()

	assets := []AssetSource{
		{Path: "a", Size: 2},
		{Path: "a", Size: 3},
	}
	plan, err := Pack(assets, PackWithIDFunc(seqIDs()))
	require.NoError(t, err)
	assert.Equal(t, AssetDescriptor{Offset: 6, Length: 3, MimeType: DefaultMimeType, Fragment: "f1"}, plan.Index.Assets["a"])
}

func TestPackInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Pack([]AssetSource{{Path: "", Size: 1}})
	require.Error(t, err)

	_, err = Pack([]AssetSource{{Path: "a", Size: -1}})
	require.Error(t, err)
}

func TestWriteFragment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	one := filepath.Join(dir, "one")
	two := filepath.Join(dir, "two")
	require.NoError(t, os.WriteFile(one, []byte("abc"), 0o600))
	require.NoError(t, os.WriteFile(two, []byte("de"), 0o600))

	fp := FragmentPlan{Assets: []AssetSource{
		{Path: "one", File: one, Size: 3},
		{Path: "two", File: two, Size: 2},
	}}
	var buf bytes.Buffer
	n, err := WriteFragment(&buf, fp)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, []byte("OAF\x01abcde"), buf.Bytes())
}

func TestWriteFragmentSizeChanged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0o600))

	tests := []struct {
		name string
		size int64
	}{
		{name: "shrunk", size: 4},
		{name: "grew", size: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := WriteFragment(&bytes.Buffer{}, FragmentPlan{Assets: []AssetSource{
				{Path: "f", File: file, Size: tt.size},
			}})
			require.ErrorIs(t, err, ErrSizeChanged)
		})
	}
}

func TestWriteFragmentMissingFile(t *testing.T) {
	t.Parallel()

	_, err := WriteFragment(&bytes.Buffer{}, FragmentPlan{Assets: []AssetSource{
		{Path: "f", File: filepath.Join(t.TempDir(), "missing"), Size: 1},
	}})
	require.ErrorIs(t, err, os.ErrNotExist)
}
