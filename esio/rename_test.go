package esio

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIndex(t *testing.T) {
	quiet(t)
	cases := []struct {
		tmpl, name string
		want       int
	}{
		{"chk###", "chk000", 1},
		{"chk###", "chk001", 2},
		{"chk###", "chk123", 124},
		{"chk#", "chk7", 8},
		{"chk#.h5", "chk42.h5", 43},
		{"a#b", "a0b", 1},
		{"chk###", "chk", 0},       // too short
		{"chk###", "other000", 0},  // prefix mismatch
		{"chk#.h5", "chk42.hd", 0}, // suffix mismatch
		{"chk###", "chk-12", 0},    // leading sign never matches
		{"chk###", "chkabc", 0},    // not a number
	}
	for _, tc := range cases {
		got, err := NextIndex(tc.tmpl, tc.name)
		require.NoError(t, err, "%s vs %s", tc.tmpl, tc.name)
		assert.Equal(t, tc.want, got, "%s vs %s", tc.tmpl, tc.name)
	}
}

func TestNextIndexErrors(t *testing.T) {
	quiet(t)

	// Template without a hash is a usage error.
	_, err := NextIndex("chk", "chk")
	assert.Equal(t, EINVAL, StatusOf(err))

	// Split hash runs are usage errors.
	_, err = NextIndex("c#k#", "c1k2")
	assert.Equal(t, EINVAL, StatusOf(err))

	// Overflow of the incremented index is reported, not wrapped around.
	_, err = NextIndex("chk#", "chk99999999999999999999")
	assert.Equal(t, EINVAL, StatusOf(err))
}

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func readFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func TestRestartRenameKeepThree(t *testing.T) {
	quiet(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "chk000", "old-chk000")
	writeFile(t, fs, "chk001", "old-chk001")
	writeFile(t, fs, "new", "new")

	require.NoError(t, restartRename(fs, "new", "chk###", 3))

	assert.Equal(t, "new", readFile(t, fs, "chk000"))
	assert.Equal(t, "old-chk000", readFile(t, fs, "chk001"))
	assert.Equal(t, "old-chk001", readFile(t, fs, "chk002"))

	_, err := fs.Stat("new")
	assert.Error(t, err)
}

func TestRestartRenameDropsBeyondHorizon(t *testing.T) {
	quiet(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "chk000", "a")
	writeFile(t, fs, "chk001", "b")
	writeFile(t, fs, "chk002", "c")
	writeFile(t, fs, "new", "n")

	require.NoError(t, restartRename(fs, "new", "chk###", 2))

	// chk001 and chk002 would shift to indices >= keep, so neither is
	// renamed; chk000 moves into chk001, replacing it, and the source
	// lands at chk000.
	assert.Equal(t, "n", readFile(t, fs, "chk000"))
	assert.Equal(t, "a", readFile(t, fs, "chk001"))
	assert.Equal(t, "c", readFile(t, fs, "chk002"))
}

func TestRestartRenameWidens(t *testing.T) {
	quiet(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "new", "n")

	require.NoError(t, restartRename(fs, "new", "chk#", 1000))

	assert.Equal(t, "n", readFile(t, fs, "chk0000"))
}

func TestRestartRenameRepeated(t *testing.T) {
	quiet(t)
	fs := afero.NewMemMapFs()

	// Rotate five times under keep=3 and confirm the retention window.
	for i := 0; i < 5; i++ {
		writeFile(t, fs, "new", string(rune('a'+i)))
		require.NoError(t, restartRename(fs, "new", "chk###", 3))
	}

	assert.Equal(t, "e", readFile(t, fs, "chk000"))
	assert.Equal(t, "d", readFile(t, fs, "chk001"))
	assert.Equal(t, "c", readFile(t, fs, "chk002"))
	_, err := fs.Stat("chk003")
	assert.Error(t, err)
}

func TestRestartRenameErrors(t *testing.T) {
	quiet(t)
	fs := afero.NewMemMapFs()

	// Missing source.
	err := restartRename(fs, "absent", "chk###", 3)
	assert.Equal(t, EFAILED, StatusOf(err))

	writeFile(t, fs, "new", "n")

	// keep must be positive.
	err = restartRename(fs, "new", "chk###", 0)
	assert.Equal(t, EINVAL, StatusOf(err))

	// Template must carry a hash run, and only one.
	err = restartRename(fs, "new", "chk", 3)
	assert.Equal(t, EINVAL, StatusOf(err))
	err = restartRename(fs, "new", "c#k#", 3)
	assert.Equal(t, EINVAL, StatusOf(err))

	// Empty arguments are pointer-class errors.
	assert.Equal(t, EFAULT, StatusOf(restartRename(fs, "", "chk#", 1)))
	assert.Equal(t, EFAULT, StatusOf(restartRename(fs, "new", "", 1)))
}

func TestRestartRenameSubdirectory(t *testing.T) {
	quiet(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("out", 0o755))
	writeFile(t, fs, "out/chk00.h5", "old")
	writeFile(t, fs, "staging.h5", "new")

	require.NoError(t, restartRename(fs, "staging.h5", "out/chk##.h5", 10))

	assert.Equal(t, "new", readFile(t, fs, "out/chk00.h5"))
	assert.Equal(t, "old", readFile(t, fs, "out/chk01.h5"))
}
