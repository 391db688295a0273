// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/energy-proportionality/epanalyze/internal/config"
	"github.com/energy-proportionality/epanalyze/internal/experiment"
	"github.com/energy-proportionality/epanalyze/internal/logger"
	"github.com/energy-proportionality/epanalyze/internal/report"
	"github.com/energy-proportionality/epanalyze/internal/turbostat"
	"github.com/energy-proportionality/epanalyze/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	app := kingpin.New("epanalyze", "Analyze turbostat logs and checkpoint/restore energy-proportionality experiments.")
	configFile := app.Flag("config.file", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)

	turbostatCmd := app.Command("turbostat", "Parse and analyze a turbostat log file")
	logPath := turbostatCmd.Arg("logfile", "Path to turbostat log file").Required().String()
	cpuList := turbostatCmd.Flag("cpus", "Comma-separated list of CPUs to analyze (e.g. 0,2,4)").Short('c').String()
	sampleExport := turbostatCmd.Flag("export", "Export parsed samples to a CSV file").Short('e').String()

	resultsCmd := app.Command("results", "Analyze an experiment results directory")
	resultsDir := resultsCmd.Arg("dir", "Directory containing results.csv and optional baseline_c6.csv").Required().String()
	summaryExport := resultsCmd.Flag("export", "Export summary metrics to a CSV file").Short('e').String()

	versionCmd := app.Command("version", "Print version information")

	command, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loadedCfg, err := config.FromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return 1
		}
		cfg = loadedCfg
	}
	// command line flags override config file settings
	if err := updateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	switch command {
	case turbostatCmd.FullCommand():
		return runTurbostat(log, *logPath, *cpuList, *sampleExport)

	case resultsCmd.FullCommand():
		assumptions := experiment.Assumptions{
			ServerPowerW:     cfg.Power.ServerWatts,
			C6PowerReduction: cfg.Power.C6Reduction,
		}
		return runResults(log, *resultsDir, *summaryExport, assumptions)

	case versionCmd.FullCommand():
		v := version.Info()
		fmt.Printf("epanalyze %s (built %s, commit %s, %s %s/%s)\n",
			v.Version, v.BuildTime, v.GitCommit, v.GoVersion, v.GoOS, v.GoArch)
		return 0
	}

	return 1
}

func runTurbostat(log *slog.Logger, logPath, cpuList, exportPath string) int {
	cpus, err := parseCPUList(cpuList)
	if err != nil {
		log.Error("Invalid CPU list", "cpus", cpuList, "error", err)
		return 1
	}

	samples, err := turbostat.NewParser(turbostat.WithLogger(log)).ParseFile(logPath)
	if err != nil {
		log.Error("Failed to parse turbostat log", "path", logPath, "error", err)
		return 1
	}
	if len(samples) == 0 {
		log.Error("No valid samples found in log file", "path", logPath)
		return 1
	}
	log.Info("Parsed turbostat log", "path", logPath, "samples", len(samples))

	analysis, err := turbostat.Analyze(samples, cpus)
	if err != nil {
		if errors.Is(err, turbostat.ErrNoSamples) {
			log.Error("No samples match the CPU filter", "cpus", cpuList)
		} else {
			log.Error("Analysis failed", "error", err)
		}
		return 1
	}

	report.Turbostat(os.Stdout, analysis)

	if exportPath != "" {
		filtered := turbostat.Filter(samples, cpus)
		if err := turbostat.ExportCSV(exportPath, filtered); err != nil {
			log.Error("Failed to export samples", "path", exportPath, "error", err)
			return 1
		}
		log.Info("Exported samples", "path", exportPath, "samples", len(filtered))
	}

	return 0
}

func runResults(log *slog.Logger, dir, exportPath string, assumptions experiment.Assumptions) int {
	results, err := experiment.NewLoader(experiment.WithLogger(log)).Load(dir)
	if err != nil {
		log.Error("Failed to load experiment results", "dir", dir, "error", err)
		return 1
	}
	if len(results.Runs) == 0 {
		log.Error("No runs found in results file", "dir", dir)
		return 1
	}

	analysis := experiment.ComputeEnergy(results, assumptions)
	report.Experiment(os.Stdout, results, analysis, assumptions)

	if exportPath != "" {
		if err := experiment.ExportSummaryCSV(exportPath, results, analysis); err != nil {
			log.Error("Failed to export summary", "path", exportPath, "error", err)
			return 1
		}
		log.Info("Exported summary", "path", exportPath)
	}

	return 0
}

// parseCPUList parses a comma-separated CPU allow-list like "0,2,4"
func parseCPUList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cpus := make([]int, 0, len(parts))
	for _, part := range parts {
		cpu, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid cpu index %q: %w", part, err)
		}
		cpus = append(cpus, cpu)
	}
	return cpus, nil
}
