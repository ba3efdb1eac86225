package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/debug"
)

// watchDebounce coalesces the burst of events a single save usually
// produces (write + chmod, or remove + create for editors that write
// via a temp file and rename).
const watchDebounce = 200 * time.Millisecond

// watchCommand re-runs assign every time the discovery JSON changes,
// for local iteration on scheduler config without re-invoking the
// runner's list mode by hand.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "re-run assign whenever the discovery JSON changes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "test-list", Required: true, Usage: "discovery JSON path"},
			&cli.IntFlag{Name: "shards", Required: true, Usage: "number of shards"},
			&cli.StringFlag{Name: "timing-file", Usage: "ledger path (overrides config)"},
			&cli.IntFlag{Name: "timeout-ms", Value: -1, Usage: "CKK deadline in ms (overrides config)"},
			&cli.BoolFlag{Name: "file-affinity", Value: true, Usage: "penalize splitting a file across shards"},
			&cli.Int64Flag{Name: "file-affinity-penalty", Value: -1, Usage: "penalty in ms (default: derived from ledger)"},
			&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "directory to write per-shard test-list files"},
			&cli.BoolFlag{Name: "json", Usage: "emit AssignResult JSON instead of a human summary"},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	testListPath := c.String("test-list")
	abs, err := filepath.Abs(testListPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	base := filepath.Base(abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the containing directory rather than the file itself: many
	// editors and test runners replace the file (remove+create) rather
	// than writing in place, which drops a direct file watch.
	if err := w.Add(dir); err != nil {
		return err
	}

	runOnce := func() {
		result, testListPaths, err := doAssign(c)
		if err != nil {
			debug.Log("WATCH", "assign failed: %v", err)
			return
		}
		if c.Bool("json") {
			if err := printAssignJSON(result); err != nil {
				debug.Log("WATCH", "printing result failed: %v", err)
			}
			return
		}
		printAssignSummary(result, testListPaths)
	}

	runOnce()

	var timer *time.Timer
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, runOnce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			debug.Log("WATCH", "watcher error: %v", err)
		}
	}
}
