package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hochfrequenz/claude-sample-harness/internal/batch"
	"github.com/hochfrequenz/claude-sample-harness/internal/config"
	"github.com/hochfrequenz/claude-sample-harness/internal/domain"
	"github.com/hochfrequenz/claude-sample-harness/internal/pipeline"
	"github.com/hochfrequenz/claude-sample-harness/internal/report"
	"github.com/hochfrequenz/claude-sample-harness/internal/runstore"
	"github.com/hochfrequenz/claude-sample-harness/tui"
	"github.com/spf13/cobra"
)

var (
	runVariant       string
	runSkipExecution bool
	runSkipSemantic  bool
	runKeepWorkspace bool
	runTarget        string
	runUseTUI        bool
	runsSDK          string
	runsStatus       string
	runsLimit        int
)

func init() {
	// run command
	runCmd := &cobra.Command{
		Use:   "run SDK",
		Short: "Run the test pipeline for one SDK",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().StringVar(&runVariant, "variant", "", "sample variant (e.g. signal, timer)")
	runCmd.Flags().BoolVar(&runSkipExecution, "skip-execution", false, "skip the execute stage")
	runCmd.Flags().BoolVar(&runSkipSemantic, "skip-semantic", false, "skip the AI semantic review")
	runCmd.Flags().BoolVar(&runKeepWorkspace, "keep-workspace", false, "keep the workspace after a passing run")
	runCmd.Flags().StringVar(&runTarget, "target", "World", "argument passed to the sample's client")
	runCmd.Flags().BoolVar(&runUseTUI, "tui", false, "show a live pipeline view")
	rootCmd.AddCommand(runCmd)

	// sdks command
	sdksCmd := &cobra.Command{
		Use:   "sdks",
		Short: "List supported SDKs",
		RunE:  runSdks,
	}
	rootCmd.AddCommand(sdksCmd)

	// runs command
	runsCmd := &cobra.Command{
		Use:   "runs [RUN_ID]",
		Short: "Show run history",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRuns,
	}
	runsCmd.Flags().StringVar(&runsSDK, "sdk", "", "filter by SDK")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (passed/failed)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to show")
	rootCmd.AddCommand(runsCmd)

	// schedule command
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run configured batches on their cron schedules",
		RunE:  runSchedule,
	}
	rootCmd.AddCommand(scheduleCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func runRun(cmd *cobra.Command, args []string) error {
	sdk, err := domain.ParseSDK(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.New(cfg)
	opts := pipeline.Options{
		SDK:           sdk,
		Variant:       runVariant,
		SkipExecution: runSkipExecution,
		SkipSemantic:  runSkipSemantic,
		KeepWorkspace: runKeepWorkspace,
		ClientTarget:  runTarget,
	}

	var run *domain.TestRun
	if runUseTUI {
		run, err = runWithTUI(p, opts)
		if err != nil {
			return err
		}
	} else {
		run = p.Run(cmd.Context(), opts)
	}

	exitCode = report.New(os.Stdout).Report(run)

	if store, err := runstore.New(cfg.General.DatabasePath); err == nil {
		defer store.Close()
		if err := store.SaveRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "warning: saving run history: %v\n", err)
		}
	}

	return nil
}

// runWithTUI drives the pipeline in the background while a bubbletea
// program shows stage progress.
func runWithTUI(p *pipeline.Pipeline, opts pipeline.Options) (*domain.TestRun, error) {
	events := make(chan tea.Msg, len(domain.Stages)+1)
	p.OnStage = func(res domain.StageResult) {
		events <- tui.StageMsg(res)
	}

	done := make(chan *domain.TestRun, 1)
	go func() {
		run := p.Run(context.Background(), opts)
		events <- tui.DoneMsg{Run: run}
		done <- run
	}()

	program := tea.NewProgram(tui.NewModel(opts.SDK, opts.Variant, events), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return nil, err
	}

	return <-done, nil
}

func runSdks(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SDK\tBINARIES\tBUILD")
	for _, name := range domain.SupportedSDKs() {
		spec := domain.SDK(name).Spec()
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			name, strings.Join(spec.RequiredBinaries, ", "), spec.BuildCommand)
	}
	return w.Flush()
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		exitCode = report.New(os.Stdout).Report(run)
		return nil
	}

	runs, err := store.ListRuns(runstore.ListOptions{
		SDK:    domain.SDK(runsSDK),
		Status: domain.RunStatus(runsStatus),
		Limit:  runsLimit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSDK\tVARIANT\tSTATUS\tSTARTED\tDURATION\tTOKENS")
	for _, run := range runs {
		variant := run.Variant
		if variant == "" {
			variant = "-"
		}
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			shortID(run.ID), run.SDK, variant, run.Status,
			run.StartedAt.Format("2006-01-02 15:04"), duration,
			run.TokensInput, run.TokensOutput)
	}
	return w.Flush()
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Batches) == 0 {
		return fmt.Errorf("no batches configured")
	}

	sched, err := batch.NewScheduler(cfg.Batches)
	if err != nil {
		return err
	}

	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(cfg)

	for _, name := range sched.ListBatches() {
		fmt.Printf("Batch %s: next run %s\n", name, sched.NextRun(name).Format(time.RFC3339))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		sched.Stop()
	}()

	sched.Start(func(b config.BatchConfig) error {
		sdk, err := domain.ParseSDK(b.SDK)
		if err != nil {
			return err
		}

		fmt.Printf("Batch %s: running %s\n", b.Name, b.SDK)
		run := p.Run(context.Background(), pipeline.Options{
			SDK:           sdk,
			Variant:       b.Variant,
			SkipExecution: b.SkipExecution,
		})

		if err := store.SaveRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "warning: saving run history: %v\n", err)
		}

		if !run.Passed() {
			return fmt.Errorf("run %s failed", shortID(run.ID))
		}
		fmt.Printf("Batch %s: run %s passed\n", b.Name, shortID(run.ID))
		return nil
	})

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
