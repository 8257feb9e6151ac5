package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskwell/taskwell/internal/config"
	"github.com/taskwell/taskwell/internal/engine"
	"github.com/taskwell/taskwell/internal/logging"
	"github.com/taskwell/taskwell/internal/registry"
	"github.com/taskwell/taskwell/internal/shutdown"
	"github.com/taskwell/taskwell/internal/task"
	"github.com/taskwell/taskwell/internal/util"
)

// summaryLineWidth caps per-task summary lines so long error strings do not
// wrap awkwardly.
const summaryLineWidth = 100

var runCmd = &cobra.Command{
	Use:   "run <workload-file>",
	Short: "Execute a workload of tasks and print a summary",
	Long: `Run all tasks described in a YAML workload file through the engine,
wait for every task to reach a terminal state, and print a per-task
summary.

The workload file lists tasks with an id, a kind, and optionally a
numeric priority, dependencies, a retry budget and a payload:

  tasks:
    - id: fetch
      kind: sleep
      priority: 10
      payload:
        duration_ms: 50
    - id: report
      kind: echo
      depends_on: [fetch]
      payload:
        message: workload done

Built-in kinds: echo (returns payload.message), sleep (sleeps
payload.duration_ms, honoring cancellation), flaky (fails
payload.fail_times times before succeeding).`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// taskSpec is one entry in the workload file.
type taskSpec struct {
	ID         string         `mapstructure:"id"`
	Kind       string         `mapstructure:"kind"`
	Priority   int            `mapstructure:"priority"`
	DependsOn  []string       `mapstructure:"depends_on"`
	MaxRetries *int           `mapstructure:"max_retries"`
	Payload    map[string]any `mapstructure:"payload"`
}

func loadWorkload(path string) ([]taskSpec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}

	var specs []taskSpec
	if err := v.UnmarshalKey("tasks", &specs); err != nil {
		return nil, fmt.Errorf("parse workload: %w", err)
	}
	if len(specs) == 0 {
		return nil, errors.New("workload has no tasks")
	}
	for i, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("task %d: id is required", i)
		}
		if s.Kind == "" {
			return nil, fmt.Errorf("task %q: kind is required", s.ID)
		}
	}
	return specs, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	specs, err := loadWorkload(args[0])
	if err != nil {
		return err
	}
	payloads := make(map[string]map[string]any, len(specs))
	for _, s := range specs {
		payloads[s.ID] = s.Payload
	}

	log, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(
		engine.WithLogger(log),
		engine.WithDefaultMaxRetries(cfg.Engine.DefaultMaxRetries),
	)
	registerBuiltinKinds(eng, payloads)

	reg := registry.New()
	if err := reg.Register("default", eng); err != nil {
		return err
	}
	defer reg.StopAll()

	coord := shutdown.New(
		shutdown.WithLogger(log),
		shutdown.WithGracePeriod(cfg.Shutdown.GracePeriod()),
	)
	if err := startDepthReporter(coord, eng, log); err != nil {
		return err
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}

	for _, s := range specs {
		opts := []engine.SubmitOption{
			engine.WithID(s.ID),
			engine.WithPriority(s.Priority),
			engine.WithDependencies(s.DependsOn...),
		}
		if s.MaxRetries != nil {
			opts = append(opts, engine.WithMaxRetries(*s.MaxRetries))
		}
		if _, err := eng.Submit(s.Kind, opts...); err != nil {
			return fmt.Errorf("submit %q: %w", s.ID, err)
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, cfg.Shutdown.ForceAfter())
	defer cancel()
	if err := eng.Drain(drainCtx); err != nil {
		log.Warn("drain incomplete", "error", err)
	}

	coord.Shutdown(ctx, cfg.Shutdown.DrainTimeout(), cfg.Shutdown.ForceAfter())

	printSummary(cmd, eng, specs)
	return nil
}

// registerBuiltinKinds wires the demo handlers. Payloads are looked up by
// task ID since handlers receive only the task's identity.
func registerBuiltinKinds(eng *engine.Engine, payloads map[string]map[string]any) {
	_ = eng.RegisterHandler("echo", func(ctx context.Context, info task.Info) (any, error) {
		if msg, ok := payloads[info.ID]["message"]; ok {
			return msg, nil
		}
		return info.ID, nil
	})

	_ = eng.RegisterHandler("sleep", func(ctx context.Context, info task.Info) (any, error) {
		d := 100 * time.Millisecond
		if ms, ok := payloads[info.ID]["duration_ms"].(int); ok {
			d = time.Duration(ms) * time.Millisecond
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	_ = eng.RegisterHandler("flaky", func(ctx context.Context, info task.Info) (any, error) {
		failTimes := 1
		if n, ok := payloads[info.ID]["fail_times"].(int); ok {
			failTimes = n
		}
		if info.Attempt < failTimes {
			return nil, fmt.Errorf("simulated failure %d of %d", info.Attempt+1, failTimes)
		}
		return "recovered", nil
	})
}

// startDepthReporter registers a background task that logs queue depth
// until shutdown asks it to stop.
func startDepthReporter(coord *shutdown.Coordinator, eng *engine.Engine, log *logging.Logger) error {
	h, err := coord.CreateTask("depth-reporter", shutdown.ClassLow, "cli", "periodic queue depth log")
	if err != nil {
		return err
	}
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s := eng.Stats()
				log.Debug("queue depth",
					"pending", s.Pending, "running", s.Running, "parked", s.Parked)
			case <-h.Context().Done():
				h.Fail(h.Context().Err())
				return
			}
		}
	}()
	return nil
}

func printSummary(cmd *cobra.Command, eng *engine.Engine, specs []taskSpec) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Workload summary"))

	ids := make([]string, 0, len(specs))
	for _, s := range specs {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)

	for _, id := range ids {
		st, err := eng.Status(id)
		if err != nil {
			fmt.Fprintf(out, "  %s: %v\n", id, err)
			continue
		}
		line := fmt.Sprintf("  %-20s %s", id, stateStyle(st.State.String()).Render(st.State.String()))
		if st.RetryCount > 0 {
			line += labelStyle.Render(fmt.Sprintf("  retries=%d", st.RetryCount))
		}
		if st.Err != "" {
			line += failedStyle.Render("  " + st.Err)
		}
		fmt.Fprintln(out, util.TruncateANSI(line, summaryLineWidth))
	}

	s := eng.Stats()
	fmt.Fprintf(out, "%s %d completed, %d failed, %d cancelled\n",
		labelStyle.Render("totals:"), s.Completed, s.Failed, s.Cancelled)
}
