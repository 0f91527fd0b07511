package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

var (
	headingRegex   = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:[\w@:]+:))?\s*$`)
	tagsRegex      = regexp.MustCompile(`\s:[\w@:]+:\s*$`)
	deadlineRegex  = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	scheduledRegex = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	planningRegex  = regexp.MustCompile(`^(DEADLINE|SCHEDULED|CLOSED):`)
	idRegex        = regexp.MustCompile(`^:ID:\s+(\S+)`)
	titleRegex     = regexp.MustCompile(`^:TITLE:\s(.*)$`)
	createdRegex   = regexp.MustCompile(`^:CREATED:\s+\[(\d{4}-\d{2}-\d{2} [A-Za-z]{3} \d{2}:\d{2})\]`)
)

const (
	createdLayout = "2006-01-02 Mon 15:04"
	bodyIndent    = "  "
)

// ParseFiles parses multiple Org-mode files and returns their tasks in order.
func ParseFiles(filePaths []string) ([]model.Task, error) {
	var allTasks []model.Task
	for _, filePath := range filePaths {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, err
		}
		tasks, err := Parse(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
		allTasks = append(allTasks, tasks...)
	}
	return allTasks, nil
}

// Parse reads TODO/DONE headings. [#A]/[#B]/[#C] map to high/medium/low,
// a missing cookie to medium. A :TITLE: property overrides the heading
// text. Body lines keep their indentation relative to the two-space
// prefix and become the description. Headings without a title are skipped.
func Parse(r io.Reader) ([]model.Task, error) {
	scanner := bufio.NewScanner(r)
	var tasks []model.Task
	var current *model.Task
	var body []string
	// Planning lines and the property drawer are only recognized between
	// the heading and the end of the drawer or the first body line.
	inBody, inDrawer := false, false

	flush := func() {
		if current == nil {
			return
		}
		current.Description = joinBody(body)
		if current.Title != "" {
			tasks = append(tasks, *current)
		} else {
			log.Printf("Warning: skipping org heading without a title")
		}
		current, body, inBody, inDrawer = nil, nil, false, false
	}

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(raw, "*") {
			flush()
			if matches := headingRegex.FindStringSubmatch(line); matches != nil {
				current = &model.Task{
					Title:     strings.TrimSpace(matches[3]),
					Priority:  cookiePriority(matches[2]),
					Completed: matches[1] == "DONE",
				}
			}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case inDrawer:
			if line == ":END:" {
				inDrawer, inBody = false, true
			} else if m := idRegex.FindStringSubmatch(line); m != nil {
				current.ID = m[1]
			} else if m := titleRegex.FindStringSubmatch(line); m != nil {
				current.Title = m[1]
			} else if m := createdRegex.FindStringSubmatch(line); m != nil {
				if t, err := time.ParseInLocation(createdLayout, m[1], time.Local); err == nil {
					current.CreatedAt = t
				}
			}
		case !inBody && line == ":PROPERTIES:":
			inDrawer = true
		case !inBody && planningRegex.MatchString(line):
			if m := deadlineRegex.FindStringSubmatch(line); m != nil {
				if d, err := model.ParseDate(m[1]); err == nil {
					current.DueDate = d
				}
			} else if m := scheduledRegex.FindStringSubmatch(line); m != nil && current.DueDate.IsZero() {
				if d, err := model.ParseDate(m[1]); err == nil {
					current.DueDate = d
				}
			}
		case !inBody && line == "":
		default:
			inBody = true
			body = append(body, strings.TrimPrefix(raw, bodyIndent))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// joinBody drops blank lines around the body.
func joinBody(lines []string) string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func cookiePriority(cookie string) model.Priority {
	switch cookie {
	case "A":
		return model.PriorityHigh
	case "C":
		return model.PriorityLow
	}
	return model.PriorityMedium
}

func priorityCookie(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "A"
	case model.PriorityLow:
		return "C"
	}
	return "B"
}

// Write renders tasks as top-level Org headings that Parse reads back.
// A title ending in something Org would read as tags is also stored in a
// :TITLE: property.
func Write(w io.Writer, tasks []model.Task) error {
	bw := bufio.NewWriter(w)
	for _, t := range tasks {
		keyword := "TODO"
		if t.Completed {
			keyword = "DONE"
		}
		fmt.Fprintf(bw, "* %s [#%s] %s\n", keyword, priorityCookie(t.Priority), t.Title)
		if t.HasDueDate() {
			day := t.DueDate.Time(time.Local)
			fmt.Fprintf(bw, "  DEADLINE: <%s %s>\n", t.DueDate, day.Format("Mon"))
		}
		bw.WriteString("  :PROPERTIES:\n")
		fmt.Fprintf(bw, "  :ID: %s\n", t.ID)
		if tagsRegex.MatchString(t.Title) {
			fmt.Fprintf(bw, "  :TITLE: %s\n", t.Title)
		}
		if !t.CreatedAt.IsZero() {
			fmt.Fprintf(bw, "  :CREATED: [%s]\n", t.CreatedAt.Local().Format(createdLayout))
		}
		bw.WriteString("  :END:\n")
		if t.Description != "" {
			for _, line := range strings.Split(t.Description, "\n") {
				bw.WriteString(bodyIndent + line + "\n")
			}
		}
	}
	return bw.Flush()
}
