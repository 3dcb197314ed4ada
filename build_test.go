package oaf

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/oaf/internal/testutil"
)

func TestBuildRoundTrip(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "dist")
	files := map[string][]byte{
		"index.html":       []byte("<html></html>"),
		"css/site.css":     []byte("body { color: red; }"),
		"img/logo.png":     make([]byte, 300),
		"img/nested/a.bin": []byte{1, 2, 3, 4, 5},
		"data/config.json": []byte(`{"debug":true}`),
		"empty.txt":        {},
		"skip/ignored.txt": []byte("nope"),
	}
	testutil.WriteFiles(t, src, files)

	var (
		mu     sync.Mutex
		events []ProgressEvent
	)
	idx, err := Build(context.Background(),
		[]Pattern{{Pattern: "**/*", Dir: src, Exclude: []string{"skip/**"}}},
		BuildWithOutputDir(out),
		BuildWithFragmentSize(64),
		BuildWithWorkers(2),
		BuildWithProgress(func(ev ProgressEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)
	assert.Len(t, idx.Assets, len(files)-1)
	assert.NotContains(t, idx.Assets, "skip/ignored.txt")
	assert.Greater(t, len(idx.Fragments), 1)
	assert.Equal(t, "text/css", idx.Assets["css/site.css"].MimeType)
	assert.Equal(t, DefaultMimeType, idx.Assets["img/nested/a.bin"].MimeType)

	for id, loc := range idx.Fragments {
		data, err := os.ReadFile(filepath.Join(out, loc))
		require.NoError(t, err, "fragment %s", id)
		assert.Equal(t, FragmentHeader[:], data[:FragmentHeaderLen])
	}

	r := NewResolver(WithBaseURI(DirURI(out)), WithHandleRegistry(NewHandleRegistry()))
	require.NoError(t, r.AddIndexFromURI(context.Background(), DefaultIndexName, ""))
	for name, want := range files {
		if name == "skip/ignored.txt" {
			assert.False(t, r.Exists(name))
			continue
		}
		c, err := r.Bytes(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, want, append([]byte{}, c.Bytes()...), name)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, StageListing, events[0].Stage)
	assert.Equal(t, StageWritingIndex, events[len(events)-1].Stage)
	var written int
	for _, ev := range events {
		if ev.Stage == StageWritingFragment {
			written++
			assert.NotEmpty(t, ev.Assets)
			assert.Equal(t, len(idx.Fragments), ev.FilesTotal)
		}
	}
	assert.Equal(t, len(idx.Fragments), written)
}

func TestBuildAbortsOnUnreadableFile(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	out := t.TempDir()
	testutil.WriteFiles(t, src, map[string][]byte{
		"a.txt": []byte("aaaa"),
		"b.txt": []byte("bbbb"),
	})
	lister := func(context.Context, []Pattern) ([]AssetSource, error) {
		return []AssetSource{
			{Path: "a.txt", File: filepath.Join(src, "a.txt"), Size: 4},
			{Path: "gone.txt", File: filepath.Join(src, "gone.txt"), Size: 4},
			{Path: "b.txt", File: filepath.Join(src, "b.txt"), Size: 4},
		}, nil
	}

	_, err := Build(context.Background(), nil,
		BuildWithOutputDir(out),
		BuildWithLister(lister),
		BuildWithFragmentSize(1),
		BuildWithWorkers(1),
	)
	require.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed build must not leave files behind")
}

func TestBuildSizeChanged(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	out := t.TempDir()
	testutil.WriteFiles(t, src, map[string][]byte{"a.txt": []byte("short")})
	lister := func(context.Context, []Pattern) ([]AssetSource, error) {
		return []AssetSource{{Path: "a.txt", File: filepath.Join(src, "a.txt"), Size: 100}}, nil
	}

	_, err := Build(context.Background(), nil, BuildWithOutputDir(out), BuildWithLister(lister))
	require.ErrorIs(t, err, ErrSizeChanged)
	_, statErr := os.Stat(filepath.Join(out, DefaultIndexName))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestBuildIndexName(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	out := t.TempDir()
	testutil.WriteFiles(t, src, map[string][]byte{"a.txt": []byte("a")})

	idx, err := Build(context.Background(),
		[]Pattern{{Pattern: "*.txt", Dir: src}},
		BuildWithOutputDir(out),
		BuildWithIndexName("assets.json"),
		BuildWithPackOptions(PackWithIDFunc(func() string { return "only" })),
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"only": "only.oaf"}, idx.Fragments)

	data, err := os.ReadFile(filepath.Join(out, "assets.json"))
	require.NoError(t, err)
	parsed, err := ParseIndex(data)
	require.NoError(t, err)
	assert.Equal(t, idx, parsed)
	assert.FileExists(t, filepath.Join(out, "only.oaf"))
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, []Pattern{{Pattern: "*", Dir: t.TempDir()}}, BuildWithOutputDir(t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
}
