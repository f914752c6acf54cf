// Package mirror keeps the Markdown projection of tasks and days inside the
// vault. Front-matter is owned by the planner; note bodies are owned by the
// user and are never rewritten.
package mirror

import (
	"errors"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"vault-planning/internal/apperr"
	"vault-planning/internal/atomicfile"
	"vault-planning/internal/cache"
	"vault-planning/internal/pathpolicy"
)

const (
	PlanningDir = ".planning"
	TasksDir    = "tasks"
	DailyDir    = "daily"
)

// Store reads and writes note files under a vault root.
type Store struct {
	root  string
	locks *cache.Cache[string, *sync.Mutex]
}

// New prepares the planning directories under root.
func New(root string) (*Store, error) {
	for _, dir := range []string{PlanningDir, path.Join(PlanningDir, TasksDir), path.Join(PlanningDir, DailyDir)} {
		if err := pathpolicy.EnsureOrCreateDirInVault(root, dir); err != nil {
			return nil, err
		}
	}
	return &Store{
		root:  root,
		locks: cache.New[string, *sync.Mutex](),
	}, nil
}

// Root returns the vault root the store writes under.
func (s *Store) Root() string {
	return s.root
}

// lock serializes read-merge-write cycles on one task's note. Locks are
// created on first use and kept for the life of the store.
func (s *Store) lock(taskID string) func() {
	mu := s.locks.GetOrSet(taskID, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}

// TaskRelPath is the vault-relative note path for a task slug.
func TaskRelPath(slug string) string {
	return path.Join(PlanningDir, TasksDir, slug+".md")
}

// DailyRelPath is the vault-relative note path for a day.
func DailyRelPath(day string) string {
	return path.Join(PlanningDir, DailyDir, day+".md")
}

func checkSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return apperr.New(apperr.InvalidInput, "invalid task slug %q", slug)
	}
	return nil
}

func checkDay(day string) error {
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return apperr.New(apperr.InvalidInput, "invalid day %q, expected YYYY-MM-DD", day)
	}
	return nil
}

// read returns "" when rel does not exist.
func (s *Store) read(rel string) (string, error) {
	abs, err := pathpolicy.ResolveExistingPath(s.root, rel)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", apperr.Wrap(apperr.FileReadError, err, "read %s", rel)
	}
	return string(data), nil
}

func (s *Store) write(rel, content string) error {
	abs, err := pathpolicy.ResolveWritePath(s.root, rel)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(abs, []byte(content))
}

func (s *Store) exists(rel string) (bool, error) {
	_, err := pathpolicy.ResolveExistingPath(s.root, rel)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpsertTaskMD writes a task note whose front-matter is fields and whose body
// is body. A front-matter block already present at the top of body is merged
// under fields rather than duplicated. It returns the vault-relative path.
func (s *Store) UpsertTaskMD(taskID, slug string, fields Fields, body string) (string, error) {
	if err := checkSlug(slug); err != nil {
		return "", err
	}
	unlock := s.lock(taskID)
	defer unlock()

	merged := Fields{}
	if existing, rest, ok := ParseFrontmatter(body); ok {
		for k, v := range existing {
			merged[k] = v
		}
		body = rest
	}
	for k, v := range fields {
		merged[k] = v
	}
	merged["id"] = taskID

	rel := TaskRelPath(slug)
	if err := s.write(rel, RenderFrontmatter(merged, body)); err != nil {
		return "", err
	}
	return rel, nil
}

// UpdateTaskFrontmatter merges the whitelisted keys of updates into the note's
// front-matter and leaves the body untouched. A missing note is not an error.
func (s *Store) UpdateTaskFrontmatter(taskID, slug string, updates Fields) error {
	if err := checkSlug(slug); err != nil {
		return err
	}
	unlock := s.lock(taskID)
	defer unlock()

	rel := TaskRelPath(slug)
	ok, err := s.exists(rel)
	if err != nil || !ok {
		return err
	}
	content, err := s.read(rel)
	if err != nil {
		return err
	}

	fields, body, parsed := ParseFrontmatter(content)
	if !parsed {
		fields = Fields{}
	}
	for k, v := range updates {
		if isWhitelisted(k) {
			fields[k] = v
		}
	}
	if !parsed {
		// the old content becomes the body; keep it apart from the new block
		body = "\n" + body
	}
	return s.write(rel, RenderFrontmatter(fields, body))
}

// ReadTaskMD returns the note for slug, or "" if it does not exist yet.
func (s *Store) ReadTaskMD(slug string) (string, error) {
	if err := checkSlug(slug); err != nil {
		return "", err
	}
	return s.read(TaskRelPath(slug))
}

// SlugTaken reports whether a note already exists for slug.
func (s *Store) SlugTaken(slug string) (bool, error) {
	if err := checkSlug(slug); err != nil {
		return false, err
	}
	return s.exists(TaskRelPath(slug))
}

// DeleteTaskMD removes the note for slug. A missing note is not an error.
func (s *Store) DeleteTaskMD(taskID, slug string) error {
	if err := checkSlug(slug); err != nil {
		return err
	}
	unlock := s.lock(taskID)
	defer unlock()

	rel := TaskRelPath(slug)
	abs, err := pathpolicy.ResolveExistingPath(s.root, rel)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Wrap(apperr.FileWriteError, err, "delete %s", rel)
	}
	return nil
}

// UpsertDailyMD writes the note for day with its day header and content.
func (s *Store) UpsertDailyMD(day, content string) (string, error) {
	if err := checkDay(day); err != nil {
		return "", err
	}
	rel := DailyRelPath(day)
	if err := s.write(rel, dailyHeader(day)+content); err != nil {
		return "", err
	}
	return rel, nil
}

// ReadDailyMD returns the note for day, or "" if it does not exist yet.
func (s *Store) ReadDailyMD(day string) (string, error) {
	if err := checkDay(day); err != nil {
		return "", err
	}
	return s.read(DailyRelPath(day))
}
