package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/reg-trainer/internal/config"
	"github.com/danielpatrickdp/reg-trainer/internal/corpus"
	"github.com/danielpatrickdp/reg-trainer/internal/logging"
	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
	"github.com/danielpatrickdp/reg-trainer/internal/training"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to YAML run config (defaults when empty)")
	noSave := flag.Bool("no-save", false, "train without saving the fitted models")
	dryRun := flag.Bool("dry-run", false, "assemble the corpus and report counts without training")
	flag.Parse()

	os.Exit(run(*configPath, *noSave, *dryRun))
}

func run(configPath string, noSave, dryRun bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer log.Sync()

	tok, closeTok, err := newTokenizer(cfg.Tokenizer)
	if err != nil {
		log.Error("tokenizer setup failed", "mode", cfg.Tokenizer.Mode, "error", err)
		return 2
	}
	defer closeTok()

	modelClient, err := model.NewClient(cfg.ModelAddr)
	if err != nil {
		log.Error("failed to connect to model service", "addr", cfg.ModelAddr, "error", err)
		return 2
	}
	defer modelClient.Close()

	driver := training.NewDriver(tok, modelClient, cfg.Policy(), log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	if dryRun {
		return build(ctx, driver, cfg, log)
	}

	store, err := corpus.NewStore(cfg.DBPath)
	if err != nil {
		log.Error("failed to open corpus store", "path", cfg.DBPath, "error", err)
		return 2
	}
	defer store.Close()

	log.Info("training run starting",
		"db", cfg.DBPath, "model", cfg.ModelAddr, "tokenizer", cfg.Tokenizer.Mode,
		"policy", cfg.Policy().String(), "rounds", len(cfg.Rounds))

	res, err := driver.WithStore(store).Run(ctx, cfg.Rounds, cfg.Save && !noSave)
	if err != nil {
		log.Error("training run failed", "run_id", res.RunID, "error", err)
		if errors.Is(err, training.ErrCorpusInvalid) {
			fmt.Fprintf(os.Stderr, "corpus rejected: %s\n", res.Eval.Reason)
		}
		return 1
	}

	total := 0
	for _, r := range res.Rounds {
		total += len(r.X)
		fmt.Printf("[%s] decision_points=%d\n", r.Name, len(r.X))
	}
	fmt.Printf("run %s trained on %d decision points (%s)\n", res.RunID, total, res.Eval.Reason)
	return 0
}

// build assembles every round without touching the model's training state.
func build(ctx context.Context, driver *training.Driver, cfg config.Config, log *logging.Logger) int {
	rounds, err := driver.Build(ctx, cfg.Rounds)
	if err != nil {
		log.Error("assembly failed", "error", err)
		return 1
	}
	for _, r := range rounds {
		counts := map[string]int{}
		for _, l := range r.Y {
			counts[l]++
		}
		fmt.Printf("[%s] workspaces=%d questions=%d decision_points=%d labels=%v\n",
			r.Name, len(r.WorkspaceIDs), len(r.Groups), len(r.X), counts)
	}
	x, _ := corpus.Merge(rounds)
	fmt.Printf("total decision_points=%d\n", len(x))
	return 0
}

// #endregion main

// #region helpers
func newTokenizer(cfg config.Tokenizer) (tokenize.Tokenizer, func(), error) {
	switch cfg.Mode {
	case config.TokenizerLexicon:
		lex, err := tokenize.LoadLexicon(cfg.Lexicon)
		if err != nil {
			return nil, nil, err
		}
		return tokenize.NewLexiconTokenizer(lex), func() {}, nil
	default:
		c, err := tokenize.NewClient(cfg.Addr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect tokenizer at %s: %w", cfg.Addr, err)
		}
		return c, func() { _ = c.Close() }, nil
	}
}

// #endregion helpers
