package pathpolicy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vault-planning/internal/apperr"

	"github.com/stretchr/testify/require"
)

func TestValidateRel_RejectsTraversalAndAbsolute(t *testing.T) {
	require.NoError(t, ValidateRel(".planning/tasks/a.md"))
	require.True(t, errors.Is(ValidateRel("../etc/passwd"), apperr.ErrPathOutsideVault))
	require.True(t, errors.Is(ValidateRel(".planning/../../x"), apperr.ErrPathOutsideVault))
	require.True(t, errors.Is(ValidateRel("/etc/passwd"), apperr.ErrPathOutsideVault))
}

func TestEnsureOrCreateDirInVault_CreatesIntermediateDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureOrCreateDirInVault(root, ".planning/tasks"))

	info, err := os.Stat(filepath.Join(root, ".planning", "tasks"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	// Idempotent, and absolute paths under the root are accepted.
	require.NoError(t, EnsureOrCreateDirInVault(root, filepath.Join(root, ".planning", "tasks")))
}

func TestEnsureOrCreateDirInVault_RejectsSymlink(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, ".planning")))

	err := EnsureOrCreateDirInVault(root, ".planning/tasks")
	require.True(t, errors.Is(err, apperr.ErrSymlinkNotAllowed))
}

func TestEnsureOrCreateDirInVault_RejectsOutsideAbsolute(t *testing.T) {
	root := t.TempDir()
	err := EnsureOrCreateDirInVault(root, t.TempDir())
	require.True(t, errors.Is(err, apperr.ErrPathOutsideVault))
}

func TestResolveExistingPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "note.md"), []byte("x"), 0o644))

	path, err := ResolveExistingPath(root, "note.md")
	require.NoError(t, err)
	require.Equal(t, "note.md", filepath.Base(path))

	_, err = ResolveExistingPath(root, "missing.md")
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestResolveWritePath_RejectsSymlinkTarget(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "target.md")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.md")))

	_, err := ResolveWritePath(root, "link.md")
	require.True(t, errors.Is(err, apperr.ErrSymlinkNotAllowed))

	path, err := ResolveWritePath(root, "fresh.md")
	require.NoError(t, err)
	require.Equal(t, "fresh.md", filepath.Base(path))

	_, err = ResolveWritePath(root, "nodir/fresh.md")
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}
