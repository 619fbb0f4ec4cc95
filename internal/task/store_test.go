package task

import (
	"testing"

	"github.com/codetrek/workforce/internal/errors"
)

// mustCreate creates the specs and fails the test on error.
func mustCreate(t *testing.T, s *Store, specs ...Spec) []string {
	t.Helper()
	ids, err := s.CreateTasks(specs)
	if err != nil {
		t.Fatalf("CreateTasks: %v", err)
	}
	return ids
}

func TestCreateTasksDefaults(t *testing.T) {
	s := NewStore()

	ids := mustCreate(t, s,
		Spec{Title: "first", Goal: "do the first thing"},
		Spec{ID: "explicit", Title: "second", Goal: "do the second thing"},
	)

	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] == "" {
		t.Error("expected generated id for first spec")
	}
	if ids[1] != "explicit" {
		t.Errorf("second id = %q, want explicit", ids[1])
	}

	first, err := s.Get(ids[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Status != StatusReady {
		t.Errorf("status = %s, want ready", first.Status)
	}
	if first.ParentID != RootID {
		t.Errorf("parent = %q, want root sentinel", first.ParentID)
	}
	if !first.IsTopLevel() {
		t.Error("expected IsTopLevel() = true")
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}

	second, _ := s.Get("explicit")
	if second.Seq <= first.Seq {
		t.Errorf("second Seq %d should be greater than first Seq %d", second.Seq, first.Seq)
	}
}

func TestCreateTasksInvalidParent(t *testing.T) {
	s := NewStore()
	ids := mustCreate(t, s, Spec{Title: "parent", Goal: "g"})
	if err := s.MarkProcessing(ids[0]); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := s.MarkSucceeded(ids[0], "done"); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	tests := []struct {
		name  string
		specs []Spec
	}{
		{"unknown parent", []Spec{{Title: "x", Goal: "g", ParentID: "nope"}}},
		{"terminal parent", []Spec{{Title: "x", Goal: "g", ParentID: ids[0]}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateTasks(tt.specs); !errors.Is(err, errors.ErrInvalidParent) {
				t.Errorf("CreateTasks = %v, want ErrInvalidParent", err)
			}
		})
	}

	// The failed batch must not have inserted anything.
	if s.Len() != 1 {
		t.Errorf("store has %d tasks after failed batches, want 1", s.Len())
	}
}

func TestCreateTasksBatchIsAtomic(t *testing.T) {
	s := NewStore()

	_, err := s.CreateTasks([]Spec{
		{ID: "a", Title: "ok", Goal: "g"},
		{Title: "bad", Goal: "g", ParentID: "missing"},
	})
	if !errors.Is(err, errors.ErrInvalidParent) {
		t.Fatalf("CreateTasks = %v, want ErrInvalidParent", err)
	}
	if s.Len() != 0 {
		t.Errorf("store has %d tasks after atomic failure, want 0", s.Len())
	}
}

func TestCreateTasksIntraBatchParent(t *testing.T) {
	s := NewStore()

	ids := mustCreate(t, s,
		Spec{ID: "p", Title: "parent", Goal: "g"},
		Spec{ID: "c", Title: "child", Goal: "g", ParentID: "p"},
	)

	children, err := s.ChildIDs(ids[0])
	if err != nil {
		t.Fatalf("ChildIDs: %v", err)
	}
	if len(children) != 1 || children[0] != "c" {
		t.Errorf("children = %v, want [c]", children)
	}
}

func TestCreateTasksRejectsDuplicates(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, Spec{ID: "dup", Title: "a", Goal: "g"})

	if _, err := s.CreateTasks([]Spec{{ID: "dup", Title: "b", Goal: "g"}}); err == nil {
		t.Error("expected error for duplicate id")
	}
	if _, err := s.CreateTasks([]Spec{{ID: RootID, Title: "r", Goal: "g"}}); err == nil {
		t.Error("expected error for root sentinel id")
	}
}

func TestLookupsReturnNotFound(t *testing.T) {
	s := NewStore()

	if _, err := s.Get("missing"); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("Get = %v, want ErrTaskNotFound", err)
	}
	if _, err := s.StatusOf("missing"); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("StatusOf = %v, want ErrTaskNotFound", err)
	}
	if _, err := s.ChildIDs("missing"); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("ChildIDs = %v, want ErrTaskNotFound", err)
	}

	// The root sentinel is not a real task but has a child list.
	if _, err := s.Get(RootID); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("Get(RootID) = %v, want ErrTaskNotFound", err)
	}
	if _, err := s.ChildIDs(RootID); err != nil {
		t.Errorf("ChildIDs(RootID) = %v, want nil", err)
	}
}

func TestReadyIDsGlobalCreationOrder(t *testing.T) {
	s := NewStore()
	ids := mustCreate(t, s,
		Spec{ID: "a", Title: "a", Goal: "g"},
		Spec{ID: "b", Title: "b", Goal: "g"},
		Spec{ID: "c", Title: "c", Goal: "g", ParentID: "a"},
	)
	_ = ids

	if err := s.MarkProcessing("a"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	ready := s.ReadyIDs()
	if len(ready) != 2 || ready[0] != "b" || ready[1] != "c" {
		t.Errorf("ReadyIDs = %v, want [b c]", ready)
	}
}

func TestDescendantsDepthFirst(t *testing.T) {
	s := NewStore()
	mustCreate(t, s,
		Spec{ID: "a", Title: "a", Goal: "g"},
		Spec{ID: "b", Title: "b", Goal: "g", ParentID: "a"},
		Spec{ID: "c", Title: "c", Goal: "g", ParentID: "b"},
		Spec{ID: "d", Title: "d", Goal: "g", ParentID: "a"},
		Spec{ID: "e", Title: "e", Goal: "g"},
	)

	got := s.Descendants("a")
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Descendants = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Descendants[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if ds := s.Descendants("e"); len(ds) != 0 {
		t.Errorf("Descendants(e) = %v, want empty", ds)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Store) error
		apply   func(*Store) error
		wantErr error
	}{
		{
			name:    "ready to processing",
			prepare: func(s *Store) error { return nil },
			apply:   func(s *Store) error { return s.MarkProcessing("t") },
		},
		{
			name:    "processing to succeeded",
			prepare: func(s *Store) error { return s.MarkProcessing("t") },
			apply:   func(s *Store) error { return s.MarkSucceeded("t", "done") },
		},
		{
			name:    "processing to failed",
			prepare: func(s *Store) error { return s.MarkProcessing("t") },
			apply:   func(s *Store) error { return s.MarkFailed("t", "boom") },
		},
		{
			name:    "processing to pending",
			prepare: func(s *Store) error { return s.MarkProcessing("t") },
			apply:   func(s *Store) error { return s.MarkPending("t") },
		},
		{
			name:    "ready to pending",
			prepare: func(s *Store) error { return nil },
			apply:   func(s *Store) error { return s.MarkPending("t") },
		},
		{
			name: "pending to ready",
			prepare: func(s *Store) error {
				return s.MarkPending("t")
			},
			apply: func(s *Store) error { return s.MarkReady("t") },
		},
		{
			name:    "ready cannot succeed directly",
			prepare: func(s *Store) error { return nil },
			apply:   func(s *Store) error { return s.MarkSucceeded("t", "x") },
			wantErr: errors.ErrInvalidState,
		},
		{
			name:    "ready cannot fail directly",
			prepare: func(s *Store) error { return nil },
			apply:   func(s *Store) error { return s.MarkFailed("t", "x") },
			wantErr: errors.ErrInvalidState,
		},
		{
			name: "pending cannot be admitted",
			prepare: func(s *Store) error {
				return s.MarkPending("t")
			},
			apply:   func(s *Store) error { return s.MarkProcessing("t") },
			wantErr: errors.ErrInvalidState,
		},
		{
			name:    "unknown task",
			prepare: func(s *Store) error { return nil },
			apply:   func(s *Store) error { return s.MarkProcessing("missing") },
			wantErr: errors.ErrTaskNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			mustCreate(t, s, Spec{ID: "t", Title: "t", Goal: "g"})
			if err := tt.prepare(s); err != nil {
				t.Fatalf("prepare: %v", err)
			}

			err := tt.apply(s)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("apply: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("apply = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTerminalStatusesAreAbsorbing(t *testing.T) {
	terminalSetups := []struct {
		name  string
		setup func(*Store) error
	}{
		{"succeeded", func(s *Store) error {
			if err := s.MarkProcessing("t"); err != nil {
				return err
			}
			return s.MarkSucceeded("t", "done")
		}},
		{"failed", func(s *Store) error {
			if err := s.MarkProcessing("t"); err != nil {
				return err
			}
			return s.MarkFailed("t", "boom")
		}},
		{"cancelled", func(s *Store) error {
			return s.MarkCancelled("t")
		}},
	}

	for _, setup := range terminalSetups {
		t.Run(setup.name, func(t *testing.T) {
			s := NewStore()
			mustCreate(t, s, Spec{ID: "t", Title: "t", Goal: "g"})
			if err := setup.setup(s); err != nil {
				t.Fatalf("setup: %v", err)
			}

			attempts := []func() error{
				func() error { return s.MarkProcessing("t") },
				func() error { return s.MarkPending("t") },
				func() error { return s.MarkReady("t") },
				func() error { return s.MarkSucceeded("t", "x") },
				func() error { return s.MarkFailed("t", "x") },
				func() error { return s.MarkCancelled("t") },
			}
			for i, attempt := range attempts {
				if err := attempt(); !errors.Is(err, errors.ErrInvalidState) {
					t.Errorf("attempt %d on terminal task = %v, want ErrInvalidState", i, err)
				}
			}
		})
	}
}

func TestResultAndFailurePayloads(t *testing.T) {
	s := NewStore()
	mustCreate(t, s,
		Spec{ID: "ok", Title: "ok", Goal: "g"},
		Spec{ID: "bad", Title: "bad", Goal: "g"},
	)

	_ = s.MarkProcessing("ok")
	_ = s.MarkProcessing("bad")
	if err := s.MarkSucceeded("ok", "all good"); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}
	if err := s.MarkFailed("bad", "it broke"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	okTask, _ := s.Get("ok")
	if okTask.Result != "all good" {
		t.Errorf("Result = %q, want all good", okTask.Result)
	}
	badTask, _ := s.Get("bad")
	if badTask.FailureReason != "it broke" {
		t.Errorf("FailureReason = %q, want it broke", badTask.FailureReason)
	}
}

func TestQueueAndDrainMessages(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, Spec{ID: "t", Title: "t", Goal: "g"})

	if err := s.QueueMessage("t", "first"); err != nil {
		t.Fatalf("QueueMessage: %v", err)
	}
	if err := s.QueueMessage("t", "second"); err != nil {
		t.Fatalf("QueueMessage: %v", err)
	}

	got := s.DrainMessages("t")
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("DrainMessages = %v, want [first second]", got)
	}
	if again := s.DrainMessages("t"); len(again) != 0 {
		t.Errorf("second drain = %v, want empty", again)
	}

	if err := s.QueueMessage("missing", "x"); !errors.Is(err, errors.ErrTaskNotFound) {
		t.Errorf("QueueMessage unknown = %v, want ErrTaskNotFound", err)
	}

	_ = s.MarkCancelled("t")
	if err := s.QueueMessage("t", "late"); !errors.Is(err, errors.ErrInvalidState) {
		t.Errorf("QueueMessage terminal = %v, want ErrInvalidState", err)
	}
}

func TestAllChildrenTerminal(t *testing.T) {
	s := NewStore()
	mustCreate(t, s,
		Spec{ID: "p", Title: "p", Goal: "g"},
		Spec{ID: "c1", Title: "c1", Goal: "g", ParentID: "p"},
		Spec{ID: "c2", Title: "c2", Goal: "g", ParentID: "p"},
	)

	if s.AllChildrenTerminal("p") {
		t.Error("expected false with two ready children")
	}

	_ = s.MarkProcessing("c1")
	_ = s.MarkSucceeded("c1", "done")
	if s.AllChildrenTerminal("p") {
		t.Error("expected false with one non-terminal child")
	}

	_ = s.MarkCancelled("c2")
	if !s.AllChildrenTerminal("p") {
		t.Error("expected true once every child is terminal")
	}

	// Vacuously true for leaves.
	if !s.AllChildrenTerminal("c1") {
		t.Error("expected true for a task with no children")
	}
}

func TestCounts(t *testing.T) {
	s := NewStore()
	mustCreate(t, s,
		Spec{ID: "a", Title: "a", Goal: "g"},
		Spec{ID: "b", Title: "b", Goal: "g"},
		Spec{ID: "c", Title: "c", Goal: "g"},
		Spec{ID: "d", Title: "d", Goal: "g"},
	)

	_ = s.MarkProcessing("a")
	_ = s.MarkProcessing("b")
	_ = s.MarkSucceeded("b", "done")
	_ = s.MarkCancelled("c")

	c := s.Counts()
	if c.Total != 4 {
		t.Errorf("Total = %d, want 4", c.Total)
	}
	if c.Ready != 1 || c.Processing != 1 || c.Succeeded != 1 || c.Cancelled != 1 {
		t.Errorf("Counts = %+v, want one each of ready/processing/succeeded/cancelled", c)
	}
	if c.Terminal() != 2 {
		t.Errorf("Terminal() = %d, want 2", c.Terminal())
	}
}
