package mirror

import "fmt"

const taskNoteBody = `<!--
Front-matter above is maintained by the planner. Write your notes below.
-->

## Notes

- 
`

// TaskTemplate is the initial body of a new task note, including the blank
// line that separates it from the front-matter block.
func TaskTemplate() string {
	return "\n" + taskNoteBody
}

// DailyTemplate is the initial content of a daily note, without its header.
func DailyTemplate(day string) string {
	return fmt.Sprintf("# %s\n\n## Done today\n\n- \n\n## Plan for tomorrow\n\n- \n\n## Reflection\n\n", day)
}

func dailyHeader(day string) string {
	return fmt.Sprintf("---\nday: %s\n---\n\n", day)
}
