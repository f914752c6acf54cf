package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-planning/internal/apperr"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	return s, root
}

func TestNew_CreatesLayout(t *testing.T) {
	_, root := newStore(t)
	for _, dir := range []string{".planning/tasks", ".planning/daily"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestUpsertTaskMD_WritesFrontmatterAndBody(t *testing.T) {
	s, root := newStore(t)

	rel, err := s.UpsertTaskMD("t1", "Buy_milk", Fields{"title": "Buy milk", "status": "todo"}, TaskTemplate())
	require.NoError(t, err)
	require.Equal(t, ".planning/tasks/Buy_milk.md", rel)

	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	content := string(data)
	require.True(t, strings.HasPrefix(content, "---\nfm_version: 2\nid: t1\ntitle: Buy milk\nstatus: todo\n---\n\n"))
	require.Contains(t, content, "## Notes")
}

func TestUpdateTaskFrontmatter_PreservesBody(t *testing.T) {
	s, root := newStore(t)
	body := "\n# My notes\n\nLine with: colon\n---\nsecond section\n\n\n"
	_, err := s.UpsertTaskMD("t1", "slug", Fields{"title": "a", "status": "todo", "due_date": "null"}, body)
	require.NoError(t, err)

	err = s.UpdateTaskFrontmatter("t1", "slug", Fields{"status": "doing", "due_date": "2024-01-01", "bogus": "x"})
	require.NoError(t, err)

	content, err := s.ReadTaskMD("slug")
	require.NoError(t, err)
	fields, gotBody, ok := ParseFrontmatter(content)
	require.True(t, ok)
	require.Equal(t, Fields{
		"fm_version": "2",
		"id":         "t1",
		"title":      "a",
		"status":     "doing",
		"due_date":   "2024-01-01",
	}, fields)
	require.Equal(t, body, gotBody)

	entries, err := os.ReadDir(filepath.Join(root, ".planning", "tasks"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestUpdateTaskFrontmatter_DropsUnknownKeysOnRewrite(t *testing.T) {
	s, root := newStore(t)
	path := filepath.Join(root, TaskRelPath("slug"))
	require.NoError(t, os.WriteFile(path, []byte("---\nid: t1\ncolor: red\n---\nbody\n"), 0o644))

	require.NoError(t, s.UpdateTaskFrontmatter("t1", "slug", Fields{"status": "done"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "---\nfm_version: 2\nid: t1\nstatus: done\n---\nbody\n", string(data))
}

func TestUpdateTaskFrontmatter_MalformedKeepsWholeFileAsBody(t *testing.T) {
	s, root := newStore(t)
	path := filepath.Join(root, TaskRelPath("slug"))
	original := "---\nthis is not front-matter\nstill user text\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	require.NoError(t, s.UpdateTaskFrontmatter("t1", "slug", Fields{"status": "todo"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "---\nfm_version: 2\nstatus: todo\n---\n\n"+original, string(data))
}

func TestUpdateTaskFrontmatter_MissingFileIsNoop(t *testing.T) {
	s, root := newStore(t)
	require.NoError(t, s.UpdateTaskFrontmatter("t1", "ghost", Fields{"status": "done"}))
	_, err := os.Stat(filepath.Join(root, TaskRelPath("ghost")))
	require.True(t, os.IsNotExist(err))
}

func TestUpdateTaskFrontmatter_ConcurrentPatchesDoNotInterleave(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.UpsertTaskMD("t1", "slug", Fields{}, "\nbody\n")
	require.NoError(t, err)

	keys := []string{"title", "status", "priority", "tags", "estimate_min", "due_date", "created_at", "updated_at"}
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			assert.NoError(t, s.UpdateTaskFrontmatter("t1", "slug", Fields{key: fmt.Sprint(i)}))
		}(i, key)
	}
	wg.Wait()

	content, err := s.ReadTaskMD("slug")
	require.NoError(t, err)
	fields, body, ok := ParseFrontmatter(content)
	require.True(t, ok)
	for i, key := range keys {
		require.Equal(t, fmt.Sprint(i), fields[key], key)
	}
	require.Equal(t, "\nbody\n", body)
}

func TestReadTaskMD_MissingIsEmpty(t *testing.T) {
	s, _ := newStore(t)
	content, err := s.ReadTaskMD("nothing")
	require.NoError(t, err)
	require.Equal(t, "", content)

	taken, err := s.SlugTaken("nothing")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestDeleteTaskMD(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.UpsertTaskMD("t1", "slug", Fields{}, "\n")
	require.NoError(t, err)

	taken, err := s.SlugTaken("slug")
	require.NoError(t, err)
	require.True(t, taken)

	require.NoError(t, s.DeleteTaskMD("t1", "slug"))
	require.NoError(t, s.DeleteTaskMD("t1", "slug"))
	content, err := s.ReadTaskMD("slug")
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestTaskPaths_RejectUnsafeSlugs(t *testing.T) {
	s, _ := newStore(t)
	for _, slug := range []string{"", "..", "../escape", `a\b`} {
		_, err := s.UpsertTaskMD("t1", slug, Fields{}, "")
		require.ErrorIs(t, err, apperr.ErrInvalidInput, slug)
	}
}

func TestTaskPaths_RejectSymlinkedTasksDir(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".planning"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, ".planning", "tasks")))

	_, err := New(root)
	require.ErrorIs(t, err, apperr.ErrSymlinkNotAllowed)
}

func TestDailyMD(t *testing.T) {
	s, _ := newStore(t)

	content, err := s.ReadDailyMD("2024-01-01")
	require.NoError(t, err)
	require.Empty(t, content)

	rel, err := s.UpsertDailyMD("2024-01-01", DailyTemplate("2024-01-01"))
	require.NoError(t, err)
	require.Equal(t, ".planning/daily/2024-01-01.md", rel)

	content, err = s.ReadDailyMD("2024-01-01")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(content, "---\nday: 2024-01-01\n---\n\n# 2024-01-01\n"))

	_, err = s.UpsertDailyMD("../../etc", "x")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
