package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codetrek/workforce/internal/config"
	"github.com/codetrek/workforce/internal/event"
	"github.com/codetrek/workforce/internal/logging"
	"github.com/codetrek/workforce/internal/session"
	"github.com/codetrek/workforce/internal/task"
	"github.com/codetrek/workforce/internal/taskfile"
	"github.com/codetrek/workforce/internal/tui"
	"github.com/codetrek/workforce/internal/workforce"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a tasks file against scripted worker agents",
	Long: `Run loads a YAML tasks file, submits every entry to the scheduler and
executes them with deterministic scripted sessions. Each entry's declared
outcome (succeed, fail, or breakdown into children) drives the run.

Without --tui, events matching --filter are printed to stdout and the
command exits once every task has settled. With --watch, entries appended
to the tasks file while running are submitted as they appear.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("tasks", "f", "", "tasks file to execute")
	runCmd.Flags().Int("max-agents", 0, "maximum concurrently processing tasks")
	runCmd.Flags().Bool("tui", false, "launch the live dashboard")
	runCmd.Flags().Bool("watch", false, "submit tasks appended to the file while running")
	runCmd.Flags().String("filter", "", `event type glob for console output (e.g. "task.*")`)

	_ = viper.BindPFlag("run.tasks_file", runCmd.Flags().Lookup("tasks"))
	_ = viper.BindPFlag("workforce.max_agents", runCmd.Flags().Lookup("max-agents"))
	_ = viper.BindPFlag("run.tui", runCmd.Flags().Lookup("tui"))
	_ = viper.BindPFlag("run.watch", runCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("run.filter", runCmd.Flags().Lookup("filter"))
}

// stubExecutor answers non-reserved tool calls in demo runs. Scripted
// sessions only call tools their outcome declares, so anything reaching
// the executor is acknowledged without side effects.
func stubExecutor(name string, args json.RawMessage) (string, error) {
	return fmt.Sprintf("%s: no-op in scripted run", name), nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("opening log sink: %w", err)
	}
	defer logger.Close()

	file, err := taskfile.Load(cfg.Run.TasksFile)
	if err != nil {
		return fmt.Errorf("loading tasks file: %w", err)
	}
	specs := file.Specs()
	if len(specs) == 0 && !cfg.Run.Watch {
		return fmt.Errorf("tasks file %s declares no tasks", cfg.Run.TasksFile)
	}

	wf := workforce.New(
		cfg.Workforce.MaxAgents,
		file.Factory(),
		session.ToolExecutorFunc(stubExecutor),
		workforce.WithLogger(logger),
	)
	defer wf.Destroy()

	// settled closes once every known task is terminal. Watch mode keeps
	// running past that point, so only console mode waits on it.
	settled := make(chan struct{})
	unsub := wf.SubscribeTaskEvent(func(e event.TaskEvent) {
		counts := wf.Counts()
		if counts.Total > 0 && counts.Terminal() == counts.Total {
			select {
			case <-settled:
			default:
				close(settled)
			}
		}
	})
	defer unsub()

	var printers []func()
	if !cfg.Run.TUI {
		stop, err := printEvents(wf, cfg.Run.Filter)
		if err != nil {
			return err
		}
		printers = append(printers, stop)
	}

	if _, err := wf.CreateTasks(specs); err != nil {
		return fmt.Errorf("submitting tasks: %w", err)
	}

	if cfg.Run.Watch {
		watcher, err := taskfile.Watch(cfg.Run.TasksFile, len(specs), func(fresh []task.Spec) error {
			_, err := wf.CreateTasks(fresh)
			return err
		}, logger)
		if err != nil {
			return fmt.Errorf("watching tasks file: %w", err)
		}
		defer watcher.Stop()
	}

	if cfg.Run.TUI {
		app := tui.New(wf)
		if err := app.Run(); err != nil {
			return err
		}
	} else if cfg.Run.Watch {
		// Run until interrupted; appended tasks keep arriving.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
	} else {
		<-settled
	}

	for _, stop := range printers {
		stop()
	}
	return printSummary(cmd, wf)
}

// printEvents subscribes both event families and prints matching event
// types to stdout. The returned function unsubscribes.
func printEvents(wf *workforce.Workforce, pattern string) (func(), error) {
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling event filter %q: %w", pattern, err)
	}

	unsubCoarse := wf.SubscribeTaskEvent(func(e event.TaskEvent) {
		if g.Match(e.EventType()) {
			fmt.Println(tui.FormatTaskEvent(e))
		}
	})
	unsubDetail := wf.SubscribeTaskDetailEvent(func(e event.TaskDetailEvent) {
		if g.Match(e.EventType()) {
			fmt.Println(tui.FormatDetailEvent(e))
		}
	})
	return func() {
		unsubCoarse()
		unsubDetail()
	}, nil
}

func printSummary(cmd *cobra.Command, wf *workforce.Workforce) error {
	counts := wf.Counts()
	cmd.Printf("\n%d tasks: %d succeeded, %d failed, %d cancelled\n",
		counts.Total, counts.Succeeded, counts.Failed, counts.Cancelled)

	if counts.Failed > 0 {
		for _, id := range wf.GetAllTaskIDs() {
			t, err := wf.GetTask(id)
			if err != nil || t.Status != task.StatusFailed {
				continue
			}
			cmd.Printf("  failed: %s (%s)\n", t.Title, t.FailureReason)
		}
	}
	return nil
}
