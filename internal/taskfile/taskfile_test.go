package taskfile

import (
	"strings"
	"testing"

	"github.com/codetrek/workforce/internal/session"
	"github.com/codetrek/workforce/internal/task"
)

const sampleFile = `
tasks:
  - id: build
    title: Build the parser
    goal: Parse the grammar into an AST
    outcome:
      kind: succeed
      result: parser built
  - title: Ship release
    goal: Cut and publish a release
    outcome:
      kind: breakdown
      children:
        - title: Write changelog
          goal: Summarize changes
        - title: Tag version
          goal: Tag and push
  - title: Impossible thing
    goal: Cannot be done
    outcome:
      kind: fail
      reason: not feasible
  - title: Default outcome
    goal: No outcome declared
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Tasks) != 4 {
		t.Fatalf("parsed %d tasks, want 4", len(f.Tasks))
	}

	specs := f.Specs()
	if specs[0].ID != "build" || specs[0].Title != "Build the parser" {
		t.Errorf("spec 0 = %+v", specs[0])
	}
	if specs[1].ID != "" {
		t.Errorf("spec 1 id = %q, want empty for store-assigned id", specs[1].ID)
	}
	if specs[3].ParentID != "" {
		t.Errorf("spec 3 parent = %q, want empty", specs[3].ParentID)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing title", "tasks:\n  - goal: g\n"},
		{"unknown outcome kind", "tasks:\n  - title: T\n    outcome:\n      kind: explode\n"},
		{"breakdown without children", "tasks:\n  - title: T\n    outcome:\n      kind: breakdown\n"},
		{"breakdown child without title", "tasks:\n  - title: T\n    outcome:\n      kind: breakdown\n      children:\n        - goal: g\n"},
		{"unknown field", "tasks:\n  - title: T\n    priority: high\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.src)); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Tasks) != 0 {
		t.Errorf("parsed %d tasks from empty input", len(f.Tasks))
	}
}

func TestOutcomeScripts(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		entry    int
		wantTool string
		wantArg  string
	}{
		{0, "wf-task-succeed", `"result":"parser built"`},
		{1, "wf-task-breakdown", `"title":"Write changelog"`},
		{2, "wf-task-fail", `"reason":"not feasible"`},
	}

	for _, tt := range tests {
		script := f.Tasks[tt.entry].Outcome.script()
		if len(script) != 1 {
			t.Fatalf("entry %d: script has %d steps, want 1", tt.entry, len(script))
		}
		call, ok := script[0].(session.CallTool)
		if !ok {
			t.Fatalf("entry %d: step is %T, want CallTool", tt.entry, script[0])
		}
		if call.Name != tt.wantTool {
			t.Errorf("entry %d: tool = %q, want %q", tt.entry, call.Name, tt.wantTool)
		}
		if !strings.Contains(call.Arguments, tt.wantArg) {
			t.Errorf("entry %d: arguments %q missing %q", tt.entry, call.Arguments, tt.wantArg)
		}
	}
}

func TestFactoryResolvesScriptByPromptTitle(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	prompt := "You are working on the following task.\n\nTitle: Impossible thing\nGoal: Cannot be done\n"
	if got := reportedTool(t, f.Factory(), prompt); got != "wf-task-fail" {
		t.Errorf("resolved tool = %q, want wf-task-fail", got)
	}
}

// reportedTool creates one session from the factory, feeds it the prompt
// and returns the name of the first tool call its script requests.
func reportedTool(t *testing.T, factory session.Factory, prompt string) string {
	t.Helper()

	sess, err := factory.New()
	if err != nil {
		t.Fatalf("factory.New: %v", err)
	}
	defer sess.Destroy()

	var reported string
	done := make(chan struct{})
	sess.Subscribe(func(sig session.Signal) {
		if call, ok := sig.(session.ToolCallRequest); ok {
			reported = call.Name
			close(done)
		}
	})

	if err := sess.Dispatch(session.Message{Content: prompt}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	<-done
	return reported
}

func TestFactoryBreakdownFiresOnce(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	factory := f.Factory()
	prompt := "You are working on the following task.\n\nTitle: Ship release\nGoal: Cut and publish a release\n"

	if got := reportedTool(t, factory, prompt); got != "wf-task-breakdown" {
		t.Fatalf("first session tool = %q, want wf-task-breakdown", got)
	}

	// Once the children finish, the parent resumes and its fresh session
	// sees the same title. It must report success, not decompose again.
	if got := reportedTool(t, factory, prompt); got != "wf-task-succeed" {
		t.Errorf("resumed session tool = %q, want wf-task-succeed", got)
	}
}

func TestFactoryDefaultsToSucceed(t *testing.T) {
	f := &File{}
	if got := reportedTool(t, f.Factory(), "Title: Unknown task\n"); got != "wf-task-succeed" {
		t.Errorf("resolved tool = %q, want wf-task-succeed", got)
	}
}

func TestSpecsRoundTripThroughStore(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	store := task.NewStore()
	ids, err := store.CreateTasks(f.Specs())
	if err != nil {
		t.Fatalf("CreateTasks: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("created %d tasks, want 4", len(ids))
	}
	if ids[0] != "build" {
		t.Errorf("ids[0] = %q, want the declared id", ids[0])
	}
}
