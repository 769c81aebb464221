package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
	"github.com/danielpatrickdp/reg-trainer/internal/corpus"
	"github.com/danielpatrickdp/reg-trainer/internal/replay"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to reg_corpus.db")
	runID := flag.String("run", "", "run to export (defaults to the most recent)")
	round := flag.String("round", "", "export only this round")
	limit := flag.Int("limit", 0, "export at most N responses (0 = all)")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--run id] [--round name] [--limit N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *round, *limit, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, runID, round string, limit int, outPath string) error {
	store, err := corpus.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := pickRun(store, runID)
	if err != nil {
		return err
	}
	policy, err := assemble.ParsePolicy(rec.Policy)
	if err != nil {
		return fmt.Errorf("run %s: %w", rec.RunID, err)
	}

	stored, err := store.LoadResponses(rec.RunID)
	if err != nil {
		return err
	}

	fixture := &replay.Fixture{
		Description: fmt.Sprintf("exported from run %s (%s)", rec.RunID, rec.CreatedAt.Format("2006-01-02")),
		Policy:      policy.String(),
	}
	for _, sr := range stored {
		if round != "" && sr.Round != round {
			continue
		}
		if limit > 0 && len(fixture.Cases) >= limit {
			break
		}
		id := fmt.Sprintf("%s/%s/%d", sr.Round, sr.QuestionID, sr.Row)
		resp := tokenize.Response{Text: sr.Text, Labels: sr.Labels, Tokens: sr.Tokens}
		fc, err := replay.NewFixtureCase(id, resp, policy)
		if err != nil {
			return err
		}
		fixture.Cases = append(fixture.Cases, fc)
	}

	if len(fixture.Cases) == 0 {
		return fmt.Errorf("run %s has no responses to export", rec.RunID)
	}

	if err := replay.WriteFixture(outPath, fixture); err != nil {
		return err
	}
	fmt.Printf("Exported %d cases from run %s to %s\n", len(fixture.Cases), rec.RunID, outPath)
	return nil
}

// pickRun returns runID's record, or the most recent run when runID is empty.
func pickRun(store *corpus.Store, runID string) (corpus.RunRecord, error) {
	if runID != "" {
		return store.GetRun(runID)
	}
	runs, err := store.ListRuns(1)
	if err != nil {
		return corpus.RunRecord{}, err
	}
	if len(runs) == 0 {
		return corpus.RunRecord{}, fmt.Errorf("no runs found")
	}
	return runs[0], nil
}

// #endregion extract
