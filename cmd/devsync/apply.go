package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/devsync/internal/config"
	"github.com/alexisbeaulieu97/devsync/internal/logger"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
	"github.com/alexisbeaulieu97/devsync/internal/providers/brew"
	"github.com/alexisbeaulieu97/devsync/internal/reconcile"
	"github.com/alexisbeaulieu97/devsync/internal/report"
	"github.com/alexisbeaulieu97/devsync/internal/secrets"
	"github.com/alexisbeaulieu97/devsync/internal/tui"
	devsyncerrors "github.com/alexisbeaulieu97/devsync/pkg/errors"
)

func newApplyCmd(d deps, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Install everything the configuration asks for that is not already present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), d, *root)
		},
	}
}

func runApply(ctx context.Context, d deps, flags rootFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	settings := doc.Settings()
	strict := flags.strict || settings.Strict
	baseDir := filepath.Dir(doc.Path())

	loaded, err := secrets.Load(resolvePath(baseDir, settings.SecretsFile), d.env)
	if err != nil {
		return err
	}

	interactive := !flags.noTUI && d.isTerminal()
	// The progress view owns the terminal while it runs.
	console := io.Discard
	if !interactive {
		console = zerolog.SyncWriter(d.stderr)
	}
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: true,
		Writer:        console,
		LogFile:       resolvePath(baseDir, settings.LogFile),
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Close()

	if len(loaded) > 0 {
		log.WithFields(map[string]any{"variables": loaded}).Debug("loaded secrets file")
	}

	runID := d.newRunID()
	items := reconcile.Plan(doc)

	res := provider.Resources{
		Runner:          d.runner,
		Logger:          log,
		ProfilePath:     settings.ProfilePath(),
		ProfileEncoding: settings.ProfileEncoding,
		Getenv:          d.getenv,
	}
	if res.Runner == nil {
		res.Runner = newRunner(console, flags.verbose)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if needsHomebrew(items) {
		install := doc.IsEnabled("system.homebrew") && !flags.dryRun
		if err := brew.Bootstrap(ctx, res, install); err != nil {
			if !flags.dryRun {
				log.Error(err, "Homebrew is unavailable")
				return err
			}
			log.Warn(fmt.Sprintf("Homebrew is unavailable; dry run continues: %v", err))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := reconcile.Options{
		Logger:      log,
		RunID:       runID,
		DryRun:      flags.dryRun,
		ItemTimeout: settings.Timeout(),
	}

	var rep *report.Report
	if interactive {
		rep, err = tui.Run(items, tui.Options{
			Title:    doc.Path(),
			DryRun:   flags.dryRun,
			Height:   20,
			Input:    d.stdin,
			Output:   d.stdout,
			OnCancel: cancel,
		}, func(observe reconcile.Observer) *report.Report {
			opts.Observer = observe
			return reconcile.New(d.registry(res), opts).Apply(runCtx, items)
		})
		if err != nil {
			log.Error(devsyncerrors.NewExecutionError("progress view", err), "progress view stopped; the run continued without it")
		}
	} else {
		rep = reconcile.New(d.registry(res), opts).Apply(runCtx, items)
	}

	fmt.Fprint(d.stdout, rep.Render())

	if flags.reportPath != "" {
		if err := rep.WriteFile(flags.reportPath); err != nil {
			return devsyncerrors.NewExecutionError("write report", err)
		}
	}

	if failed := len(rep.Failed()); failed > 0 {
		if strict {
			return &exitError{code: rep.ExitStatus()}
		}
		log.Warn(fmt.Sprintf("%d item(s) failed; re-run to retry them", failed))
	}
	return nil
}

// newRunner returns the process runner. Child output is always collected for
// outcome details; it is echoed to the console only in verbose runs.
func newRunner(console io.Writer, verbose bool) *internalexec.Command {
	if !verbose {
		return &internalexec.Command{}
	}
	return &internalexec.Command{Stdout: console, Stderr: console}
}

// needsHomebrew reports whether any planned item is installed through brew.
func needsHomebrew(items []model.DesiredItem) bool {
	for _, item := range items {
		switch item.Category {
		case model.CategoryFormula, model.CategoryCask, model.CategoryCaskAny, model.CategoryTap:
			return true
		}
	}
	return false
}

// resolvePath anchors relative settings paths at the configuration's directory.
func resolvePath(baseDir, path string) string {
	path = config.ExpandHome(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
