// Package taskfile reads YAML task spec files for the workforce CLI and
// turns their scripted outcomes into deterministic demo sessions.
package taskfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/codetrek/workforce/internal/session"
	"github.com/codetrek/workforce/internal/task"
)

// File is the parsed form of a tasks file.
type File struct {
	Tasks []Entry `yaml:"tasks"`
}

// Entry is one declared task.
type Entry struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Goal   string `yaml:"goal"`
	Parent string `yaml:"parent"`

	// Outcome scripts what the task's worker agent reports. Entries
	// without an outcome succeed with a generic result.
	Outcome *Outcome `yaml:"outcome"`
}

// Outcome is a scripted worker-agent report for demo runs.
type Outcome struct {
	// Kind is "succeed", "fail" or "breakdown".
	Kind string `yaml:"kind"`

	// Result is the success summary. For breakdown outcomes it is what the
	// resumed parent reports once its children have finished.
	Result string `yaml:"result"`

	Reason   string  `yaml:"reason"`
	Children []Child `yaml:"children"`
}

// Child is one declared child task of a breakdown outcome.
type Child struct {
	Title string `yaml:"title"`
	Goal  string `yaml:"goal"`
}

// Parse decodes a tasks file and validates every entry.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("parsing tasks file: %w", err)
	}

	for i, e := range f.Tasks {
		if e.Title == "" {
			return nil, fmt.Errorf("task %d: missing title", i)
		}
		if e.Outcome != nil {
			if err := e.Outcome.validate(); err != nil {
				return nil, fmt.Errorf("task %d (%s): %w", i, e.Title, err)
			}
		}
	}
	return &f, nil
}

// Load reads and parses the tasks file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

func (o *Outcome) validate() error {
	switch o.Kind {
	case "succeed", "fail":
	case "breakdown":
		if len(o.Children) == 0 {
			return fmt.Errorf("breakdown outcome declares no children")
		}
		for i, c := range o.Children {
			if c.Title == "" {
				return fmt.Errorf("breakdown child %d: missing title", i)
			}
		}
	default:
		return fmt.Errorf("unknown outcome kind %q", o.Kind)
	}
	return nil
}

// Specs converts the file's entries into task specs, in declaration order.
func (f *File) Specs() []task.Spec {
	specs := make([]task.Spec, len(f.Tasks))
	for i, e := range f.Tasks {
		specs[i] = task.Spec{
			ID:       e.ID,
			Title:    e.Title,
			Goal:     e.Goal,
			ParentID: e.Parent,
		}
	}
	return specs
}

// Factory returns a session factory that resolves each session's script
// from the task title found in its first prompt. Tasks without a declared
// outcome, including breakdown children, succeed with a generic result.
//
// A breakdown outcome fires once per entry. The parent's resumed session
// carries the same title, so replaying the script would decompose it again
// and grow the tree without bound; the resumed session succeeds instead,
// reporting the outcome's result.
func (f *File) Factory() session.Factory {
	byTitle := make(map[string]*Outcome, len(f.Tasks))
	for _, e := range f.Tasks {
		if e.Outcome != nil {
			byTitle[e.Title] = e.Outcome
		}
	}

	var mu sync.Mutex
	decomposed := make(map[string]bool)

	return session.FactoryFunc(func() (session.Session, error) {
		return session.NewScriptedFor(func(first session.Message) session.Script {
			title := promptTitle(first.Content)
			o, ok := byTitle[title]
			if !ok {
				return succeedScript("done")
			}
			if o.Kind == "breakdown" {
				mu.Lock()
				fired := decomposed[title]
				decomposed[title] = true
				mu.Unlock()
				if fired {
					result := o.Result
					if result == "" {
						result = "children complete"
					}
					return succeedScript(result)
				}
			}
			return o.script()
		}), nil
	})
}

// script renders the outcome as scripted session steps.
func (o *Outcome) script() session.Script {
	switch o.Kind {
	case "succeed":
		result := o.Result
		if result == "" {
			result = "done"
		}
		return succeedScript(result)
	case "fail":
		reason := o.Reason
		if reason == "" {
			reason = "failed"
		}
		return session.Script{
			session.CallTool{Name: "wf-task-fail", Arguments: mustJSON(map[string]any{"reason": reason})},
		}
	case "breakdown":
		children := make([]map[string]string, len(o.Children))
		for i, c := range o.Children {
			children[i] = map[string]string{"title": c.Title, "goal": c.Goal}
		}
		return session.Script{
			session.CallTool{Name: "wf-task-breakdown", Arguments: mustJSON(map[string]any{"tasks": children})},
		}
	}
	return nil
}

// succeedScript reports success with the given result summary.
func succeedScript(result string) session.Script {
	return session.Script{
		session.CallTool{Name: "wf-task-succeed", Arguments: mustJSON(map[string]any{"result": result})},
	}
}

// mustJSON marshals payloads built from validated outcomes; these maps of
// plain strings cannot fail to encode.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// promptTitle extracts the task title from an admission prompt.
func promptTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if title, ok := strings.CutPrefix(line, "Title: "); ok {
			return title
		}
	}
	return ""
}
