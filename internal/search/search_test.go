package search

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func TestRunCountsNestedFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"top.txt":         "needle here\nnothing\n",
		"a/one.txt":       "x\nneedle\nneedle again\n",
		"a/b/c/deep.txt":  "no match\n",
		"a/b/ignored.log": "needle\n",
		"empty/e.txt":     "",
	})

	var got []Match
	res, err := Run(context.Background(), Options{
		Root:    root,
		Text:    "needle",
		Workers: 2,
		OnMatch: func(m Match) { got = append(got, m) },
	})
	require.NoError(t, err)
	require.Equal(t, Result{Files: 4, Lines: 6, Matches: 3}, res)

	sort.Slice(got, func(i, j int) bool {
		if got[i].Path != got[j].Path {
			return got[i].Path < got[j].Path
		}
		return got[i].Line < got[j].Line
	})
	require.Len(t, got, 3)
	require.Equal(t, filepath.Join(root, "a/one.txt"), got[0].Path)
	require.Equal(t, 2, got[0].Line)
	require.Equal(t, "needle again", got[1].Text)
	require.Equal(t, 1, got[2].Line)
}

func TestRunCustomGlob(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.log": "needle\n",
		"b.txt": "needle\n",
	})
	res, err := Run(context.Background(), Options{Root: root, Text: "needle", Glob: "*.log"})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Files)
	require.Equal(t, int64(1), res.Matches)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), Options{Root: t.TempDir()})
	require.Error(t, err)

	_, err = Run(context.Background(), Options{Root: t.TempDir(), Text: "x", Glob: "["})
	require.Error(t, err)

	_, err = Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "missing"), Text: "x"})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, Options{Root: writeTree(t, map[string]string{"a.txt": "x\n"}), Text: "x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunDoesNotCountUnopenableFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling.txt")))

	res, err := Run(context.Background(), Options{Root: root, Text: "x"})
	require.Error(t, err)
	require.Zero(t, res.Files)
	require.Zero(t, res.Lines)
}
