package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/assign"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/config"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/debug"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/discovery"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/extract"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/merge"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/report"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/timing"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/version"
)

// loadResolvedConfig layers shardctl.kdl (if present under root) over
// Default(), without yet applying any per-command CLI flag overrides.
func loadResolvedConfig(root string) (config.Config, error) {
	kdlCfg, kdlSet, err := config.LoadKDL(root)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading shardctl.kdl: %w", err)
	}
	return config.Merge(config.Default(), kdlCfg, kdlSet), nil
}

func main() {
	app := &cli.App{
		Name:                   "shardctl",
		Usage:                  "duration-aware test sharding for CI",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "directory to look for shardctl.kdl in (merge reads it from the --timing-file directory instead)",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging to stderr (also via SHARDCTL_DEBUG)",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.SetEnabled(true)
			}
			return nil
		},
		Commands: []*cli.Command{
			assignCommand(),
			extractCommand(),
			mergeCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "shardctl: %v\n", err)
		os.Exit(1)
	}
}

func assignCommand() *cli.Command {
	return &cli.Command{
		Name:  "assign",
		Usage: "partition discovered tests into N duration-balanced shards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "test-list", Required: true, Usage: "discovery JSON path"},
			&cli.IntFlag{Name: "shards", Required: true, Usage: "number of shards"},
			&cli.StringFlag{Name: "timing-file", Usage: "ledger path (overrides config)"},
			&cli.IntFlag{Name: "timeout-ms", Value: -1, Usage: "CKK deadline in ms (overrides config)"},
			&cli.BoolFlag{Name: "file-affinity", Value: true, Usage: "penalize splitting a file across shards"},
			&cli.Int64Flag{Name: "file-affinity-penalty", Value: assign.AutoFileAffinityPenalty, Usage: "penalty in ms (default: derived from ledger)"},
			&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "directory to write per-shard test-list files"},
			&cli.BoolFlag{Name: "json", Usage: "emit AssignResult JSON instead of a human summary"},
			&cli.StringSliceFlag{Name: "exclude", Usage: "doublestar glob matched against each test's relative file; repeatable"},
		},
		Action: runAssign,
	}
}

func runAssign(c *cli.Context) error {
	result, testListPaths, err := doAssign(c)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printAssignJSON(result)
	}
	printAssignSummary(result, testListPaths)
	return nil
}

// doAssign runs one full assign cycle from the command's flags: it is
// shared by the one-shot "assign" command and each re-run triggered by
// "watch".
func doAssign(c *cli.Context) (assign.Result, map[int]string, error) {
	cfg, err := loadResolvedConfig(c.String("config-dir"))
	if err != nil {
		return assign.Result{}, nil, err
	}

	set := config.FieldSet{}
	override := config.Config{}
	if c.IsSet("timing-file") {
		override.TimingFile = c.String("timing-file")
		set.TimingFile = true
	}
	if c.Int("timeout-ms") >= 0 {
		override.TimeoutMs = c.Int("timeout-ms")
		set.TimeoutMs = true
	}
	if c.IsSet("file-affinity") {
		override.FileAffinityEnabled = c.Bool("file-affinity")
		set.FileAffinityEnabled = true
	}
	if c.IsSet("file-affinity-penalty") {
		override.FileAffinityPenaltyMs = c.Int64("file-affinity-penalty")
		set.FileAffinityPenaltyMs = true
	}
	cfg = config.Merge(cfg, override, set)

	disc, err := discovery.Load(c.String("test-list"))
	if err != nil {
		return assign.Result{}, nil, err
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		filtered, err := excludeMatching(disc.Tests, excludes)
		if err != nil {
			return assign.Result{}, nil, err
		}
		disc.Tests = filtered
	}

	var ledger *timing.Ledger
	if cfg.TimingFile != "" {
		ledger, err = timing.Load(cfg.TimingFile)
		if err != nil {
			return assign.Result{}, nil, err
		}
	} else {
		ledger = timing.New()
	}

	debug.LogScheduler("assigning %d tests across %d shards (timeout=%dms, affinity=%v)",
		len(disc.Tests), c.Int("shards"), cfg.TimeoutMs, cfg.FileAffinityEnabled)

	result, err := assign.Assign(context.Background(), disc.Tests, disc.RootDir, disc.TestDir, ledger, assign.Options{
		Shards:                c.Int("shards"),
		TimeoutMs:             cfg.TimeoutMs,
		FileAffinityEnabled:   cfg.FileAffinityEnabled,
		FileAffinityPenaltyMs: cfg.FileAffinityPenaltyMs,
	})
	if err != nil {
		return assign.Result{}, nil, err
	}

	testListPaths, err := writeTestListFiles(c.String("out-dir"), result)
	if err != nil {
		return assign.Result{}, nil, err
	}
	return result, testListPaths, nil
}

func writeTestListFiles(outDir string, result assign.Result) (map[int]string, error) {
	paths := make(map[int]string, len(result.Shards))
	for i, shard := range result.Shards {
		path := filepath.Join(outDir, fmt.Sprintf("shard-%d.txt", i+1))
		if err := os.WriteFile(path, []byte(shard.TestListContent), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		paths[i] = path
	}
	return paths, nil
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "summarize a runner report into a shard-timing file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "report", Required: true, Usage: "post-run report JSON path"},
			&cli.StringFlag{Name: "project", Required: true, Usage: "project name to extract"},
			&cli.IntFlag{Name: "shard", Required: true, Usage: "shard index to stamp into the output"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "shard-timing output path"},
		},
		Action: runExtract,
	}
}

func runExtract(c *cli.Context) error {
	r, err := report.Load(c.String("report"))
	if err != nil {
		return err
	}
	out := extract.Extract(r, c.String("project"), c.Int("shard"))
	debug.Log("EXTRACT", "project=%s shard=%d tests=%d", out.Project, out.Shard, len(out.Tests))
	return extract.Write(c.String("out"), out)
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "fold shard-timing files into the ledger",
		ArgsUsage: "<shard-timing-file> ...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "timing-file", Required: true, Usage: "ledger path"},
			&cli.Float64Flag{Name: "alpha", Value: -1, Usage: "EMA smoothing factor in [0,1] (overrides config)"},
			&cli.IntFlag{Name: "prune-days", Value: -1, Usage: "retention window in days, 0 disables (overrides config)"},
		},
		Action: runMerge,
	}
}

func runMerge(c *cli.Context) error {
	cfg, err := loadResolvedConfig(filepath.Dir(c.String("timing-file")))
	if err != nil {
		return err
	}
	if c.Float64("alpha") >= 0 {
		cfg.Alpha = c.Float64("alpha")
	}
	if c.Int("prune-days") >= 0 {
		cfg.PruneDays = c.Int("prune-days")
	}

	removed, err := merge.Merge(c.String("timing-file"), c.Args().Slice(), merge.Options{
		Alpha:     cfg.Alpha,
		PruneDays: cfg.PruneDays,
	}, time.Now().UTC())
	if err != nil {
		return err
	}
	debug.Log("MERGE", "folded %d shard-timing files, pruned %d stale entries", c.Args().Len(), removed)
	fmt.Printf("merged %d shard-timing files into %s (pruned %d stale entries)\n", c.Args().Len(), c.String("timing-file"), removed)
	return nil
}
