package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrTaskNotFound,
		ErrInvalidParent,
		ErrInvalidState,
		ErrPoolExhausted,
		ErrDestroyed,
		ErrSessionClosed,
		ErrToolProtocol,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %v should not match %v", a, b)
			}
		}
	}
}

func TestTaskErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *TaskError
		want string
	}{
		{
			name: "without task id",
			err:  NewTaskError("lookup failed", ErrTaskNotFound),
			want: "task error: lookup failed: task not found",
		},
		{
			name: "with task id",
			err:  NewTaskError("cannot cancel", ErrInvalidState).WithTaskID("t-42"),
			want: "task error [task=t-42]: cannot cancel: invalid task state",
		},
		{
			name: "without cause",
			err:  NewTaskError("bare message", nil),
			want: "task error: bare message",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTaskErrorUnwrapping(t *testing.T) {
	err := NewTaskError("append rejected", ErrInvalidState).WithTaskID("t-1")

	if !Is(err, ErrInvalidState) {
		t.Error("expected Is(err, ErrInvalidState) to be true")
	}
	if Is(err, ErrTaskNotFound) {
		t.Error("expected Is(err, ErrTaskNotFound) to be false")
	}

	var taskErr *TaskError
	if !As(err, &taskErr) {
		t.Fatal("expected As to match *TaskError")
	}
	if taskErr.TaskID != "t-1" {
		t.Errorf("TaskID = %q, want %q", taskErr.TaskID, "t-1")
	}
}

func TestTaskErrorWrappedFurther(t *testing.T) {
	inner := NewTaskError("store rejected", ErrInvalidParent)
	outer := fmt.Errorf("create tasks: %w", inner)

	if !Is(outer, ErrInvalidParent) {
		t.Error("expected wrapped error to match ErrInvalidParent")
	}
	var taskErr *TaskError
	if !As(outer, &taskErr) {
		t.Error("expected wrapped error to match *TaskError")
	}
}

func TestProtocolErrorDefaultsToSentinel(t *testing.T) {
	err := NewProtocolError("missing result field", nil)
	if !Is(err, ErrToolProtocol) {
		t.Error("expected ProtocolError with nil cause to match ErrToolProtocol")
	}
}

func TestProtocolErrorFormatting(t *testing.T) {
	err := NewProtocolError("bad payload", nil).
		WithTaskID("t-9").
		WithTool("wf-task-succeed", "call-3")

	got := err.Error()
	for _, want := range []string{"task=t-9", "tool=wf-task-succeed", "call=call-3", "bad payload"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"IsNotFound matches", IsNotFound, NewTaskError("x", ErrTaskNotFound), true},
		{"IsNotFound rejects", IsNotFound, ErrInvalidState, false},
		{"IsInvalidParent matches", IsInvalidParent, ErrInvalidParent, true},
		{"IsInvalidState matches", IsInvalidState, NewTaskError("x", ErrInvalidState), true},
		{"IsPoolExhausted matches", IsPoolExhausted, ErrPoolExhausted, true},
		{"IsPoolExhausted rejects", IsPoolExhausted, ErrDestroyed, false},
		{"IsDestroyed matches", IsDestroyed, fmt.Errorf("op: %w", ErrDestroyed), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
