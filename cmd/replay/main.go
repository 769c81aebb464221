package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danielpatrickdp/reg-trainer/internal/corpus"
	"github.com/danielpatrickdp/reg-trainer/internal/eval"
	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to reg_corpus.db (DB mode)")
	runID := flag.String("run", "", "run to re-fit in DB mode (defaults to the most recent)")
	modelAddr := flag.String("model", "localhost:50051", "model service address (DB mode)")
	save := flag.Bool("save", false, "save the re-fitted models (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/reg_corpus.db [--run id] [--model addr] [--save]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *runID, *modelAddr, *save)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode re-fits the model on a stored corpus without re-tokenizing.
func runDBMode(dbPath, runID, modelAddr string, save bool) int {
	store, err := corpus.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	if runID == "" {
		runs, err := store.ListRuns(1)
		if err != nil || len(runs) == 0 {
			fmt.Fprintf(os.Stderr, "no runs found (%v)\n", err)
			return 2
		}
		runID = runs[0].RunID
	}

	x, y, err := store.LoadCorpus(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load corpus: %v\n", err)
		return 2
	}

	result := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(x, y)
	if !result.Passed {
		fmt.Fprintf(os.Stderr, "run %s: %s\n", runID, result.Reason)
		return 1
	}

	client, err := model.NewClient(modelAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect model service: %v\n", err)
		return 2
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := client.Train(ctx, x, y); err != nil {
		fmt.Fprintf(os.Stderr, "train: %v\n", err)
		return 1
	}
	if save {
		if err := client.Save(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "save: %v\n", err)
			return 1
		}
	}
	fmt.Printf("re-fitted run %s on %d decision points (saved=%t)\n", runID, len(x), save)
	return 0
}

// #endregion db-mode

// #region output

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	policy, err := f.ReplayPolicy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture policy: %v\n", err)
		return 2
	}
	cases, err := f.ToCases()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture cases: %v\n", err)
		return 2
	}

	return printComparison(replay.Replay(cases, policy))
}

// printComparison outputs a comparison table and returns exit code.
func printComparison(results []replay.ReplayResult) int {
	fmt.Printf("%-16s| %-24s| %-24s| %s\n", "Case", "Expected", "Replayed", "Match")
	fmt.Printf("%-16s+%-24s+%-24s+%s\n",
		"----------------", "-------------------------", "-------------------------", "------")

	for _, r := range results {
		match := "OK"
		switch r.Action {
		case replay.ActionDiverge:
			match = "DIFF"
		case replay.ActionError:
			match = "ERR"
		}
		fmt.Printf("%-16s| %-24s| %-24s| %s\n",
			r.ID, strings.Join(r.Expected, " "), strings.Join(r.Got, " "), match)
		if r.Reason != "" {
			fmt.Printf("%-16s  %s\n", "", r.Reason)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d error\n",
		s.TotalCases, s.Matches, s.Divergences, s.Errors)

	if !s.OK() {
		return 1
	}
	return 0
}

// #endregion output
