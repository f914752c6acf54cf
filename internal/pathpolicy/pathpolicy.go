// Package pathpolicy keeps every file the planning engine touches inside the
// vault root. Relative paths may not be absolute, may not climb with "..",
// and no component between the root and the target may be a symlink.
package pathpolicy

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vault-planning/internal/apperr"
)

// ValidateRel rejects absolute paths and parent traversal.
func ValidateRel(rel string) error {
	if rel == "" {
		return nil
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || filepath.VolumeName(rel) != "" {
		return apperr.New(apperr.PathOutsideVault, "absolute paths are not allowed: %s", rel)
	}
	for _, part := range strings.FieldsFunc(rel, isSeparator) {
		if part == ".." {
			return apperr.New(apperr.PathOutsideVault, "parent directory (..) is not allowed: %s", rel)
		}
	}
	return nil
}

// ResolveExistingPath resolves rel against root. The target must exist, stay
// inside root and contain no symlinked component.
func ResolveExistingPath(root, rel string) (string, error) {
	if err := ValidateRel(rel); err != nil {
		return "", err
	}
	canonicalRoot, err := canonical(root)
	if err != nil {
		return "", err
	}

	current := canonicalRoot
	for _, part := range splitRel(rel) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.New(apperr.NotFound, "path does not exist: %s", rel)
		}
		if err != nil {
			return "", apperr.Wrap(apperr.FileReadError, err, "stat %s", rel)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return "", apperr.New(apperr.SymlinkNotAllowed, "symlink path is not allowed: %s", rel)
		}
	}
	if !within(canonicalRoot, current) {
		return "", apperr.New(apperr.PathOutsideVault, "path is outside vault: %s", rel)
	}
	return current, nil
}

// ResolveWritePath resolves rel for a file that may not exist yet. Its parent
// directory must already exist under root without symlinks; an existing target
// must not itself be a symlink.
func ResolveWritePath(root, rel string) (string, error) {
	if err := ValidateRel(rel); err != nil {
		return "", err
	}
	parts := splitRel(rel)
	if len(parts) == 0 {
		return "", apperr.New(apperr.PathOutsideVault, "empty path")
	}
	parentRel := filepath.Join(parts[:len(parts)-1]...)
	parent, err := ResolveExistingPath(root, parentRel)
	if err != nil {
		return "", err
	}

	target := filepath.Join(parent, parts[len(parts)-1])
	info, err := os.Lstat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", apperr.Wrap(apperr.FileReadError, err, "stat %s", rel)
	case info.Mode()&fs.ModeSymlink != 0:
		return "", apperr.New(apperr.SymlinkNotAllowed, "symlink path is not allowed: %s", rel)
	}
	return target, nil
}

// EnsureOrCreateDirInVault creates every missing directory of dir (relative to
// root, or absolute under root) while applying the same checks.
func EnsureOrCreateDirInVault(root, dir string) error {
	rel := dir
	if filepath.IsAbs(dir) {
		r, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dir))
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return apperr.New(apperr.PathOutsideVault, "path is outside vault: %s", dir)
		}
		rel = r
	}
	if err := ValidateRel(rel); err != nil {
		return err
	}
	canonicalRoot, err := canonical(root)
	if err != nil {
		return err
	}

	current := canonicalRoot
	for _, part := range splitRel(rel) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.Mkdir(current, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
				return apperr.Wrap(apperr.FileWriteError, err, "create directory %s", rel)
			}
			continue
		}
		if err != nil {
			return apperr.Wrap(apperr.FileReadError, err, "stat %s", rel)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return apperr.New(apperr.SymlinkNotAllowed, "symlink path is not allowed: %s", rel)
		}
		if !info.IsDir() {
			return apperr.New(apperr.FileWriteError, "path component is not a directory: %s", rel)
		}
	}
	return nil
}

func canonical(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", apperr.Wrap(apperr.FileReadError, err, "resolve vault root")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", apperr.Wrap(apperr.FileReadError, err, "resolve vault root")
	}
	return resolved, nil
}

func within(root, path string) bool {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return r == "." || (r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)))
}

func splitRel(rel string) []string {
	var parts []string
	for _, p := range strings.FieldsFunc(rel, isSeparator) {
		if p == "." {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}
