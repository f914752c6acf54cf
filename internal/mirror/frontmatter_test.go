package mirror

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"vault-planning/internal/models"
)

func TestParseFrontmatter(t *testing.T) {
	content := "---\nid: 1\ntitle: Call: Bob\n\nstatus: todo\n---\n\nbody line\n---\nnot front-matter\n"
	fields, body, ok := ParseFrontmatter(content)
	require.True(t, ok)
	if diff := cmp.Diff(Fields{"id": "1", "title": "Call: Bob", "status": "todo"}, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "\nbody line\n---\nnot front-matter\n", body)
}

func TestParseFrontmatter_Malformed(t *testing.T) {
	cases := []string{
		"no front-matter at all\n",
		"---\nid: 1\nnever closed\n",
		"---\nid: 1\njust words\n---\nbody\n",
		"--- \nid: 1\n---\n",
		"",
	}
	for _, content := range cases {
		fields, body, ok := ParseFrontmatter(content)
		require.False(t, ok, content)
		require.Nil(t, fields)
		require.Equal(t, content, body)
	}
}

func TestParseFrontmatter_CRLF(t *testing.T) {
	fields, body, ok := ParseFrontmatter("---\r\nid: 7\r\n---\r\nbody\r\n")
	require.True(t, ok)
	require.Equal(t, "7", fields["id"])
	require.Equal(t, "body\r\n", body)
}

func TestRenderFrontmatter_OrderAndWhitelist(t *testing.T) {
	out := RenderFrontmatter(Fields{
		"updated_at": "u",
		"id":         "1",
		"status":     "todo",
		"color":      "red",
		"title":      "multi\nline",
	}, "\nbody")
	require.Equal(t, "---\nfm_version: 2\nid: 1\ntitle: multi line\nstatus: todo\nupdated_at: u\n---\n\nbody", out)
}

func TestProject(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	due := "2024-01-02"
	estimate := int64(25)
	prio := models.PriorityUrgent
	task := &models.Task{
		ID:          "t1",
		Title:       "Buy milk",
		Status:      models.StatusTodo,
		Priority:    &prio,
		Tags:        []string{"home", "errand"},
		EstimateMin: &estimate,
		DueDate:     &due,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	want := Fields{
		"fm_version":   "2",
		"id":           "t1",
		"title":        "Buy milk",
		"status":       "todo",
		"priority":     "p0",
		"tags":         "[home, errand]",
		"estimate_min": "25",
		"due_date":     "2024-01-02",
		"created_at":   "2024-01-01T09:30:00Z",
		"updated_at":   "2024-01-01T09:30:00Z",
	}
	if diff := cmp.Diff(want, Project(task)); diff != "" {
		t.Fatalf("projection mismatch (-want +got):\n%s", diff)
	}

	bare := Project(&models.Task{ID: "t2", Status: models.StatusVerify})
	require.Equal(t, "p3", bare["priority"])
	require.Equal(t, "[]", bare["tags"])
	require.Equal(t, "null", bare["due_date"])
	require.Equal(t, "null", bare["estimate_min"])
}

func TestDiff(t *testing.T) {
	before := Fields{"status": "todo", "title": "a", "updated_at": "1"}
	after := Fields{"status": "doing", "title": "a", "updated_at": "2"}
	require.Equal(t, Fields{"status": "doing", "updated_at": "2"}, Diff(before, after))
	require.Empty(t, Diff(after, after))
}
