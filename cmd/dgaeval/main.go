package main

import (
	"context"
	"flag"
	"os"

	"dgastack/internal/cfg"
	"dgastack/internal/dataset"
	"dgastack/internal/evaluate"
	"dgastack/internal/ml"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	outputPath := flag.String("output", "evaluation", "directory for evaluation reports")
	testRatio := flag.Float64("test-ratio", 0.2, "fraction of the corpus held back for scoring")
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if !c.CanTrain() {
		log.Fatal().Msg("evaluation requires both BENIGN_PATH and DGA_PATH corpora")
	}

	ctx := context.Background()

	corpus, err := loadCorpus(c)
	if err != nil {
		log.Fatal().Err(err).Msg("corpus load failed")
	}

	engine, err := evaluate.NewEngine(ml.TrainerConfig{
		HoldoutRatio: c.HoldoutRatio,
		Seed:         c.Seed,
		StripSuffix:  c.StripSuffix,
		Truncate:     c.TruncatePolicy(),
	}, *testRatio)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid evaluation setup")
	}

	results, err := engine.Run(ctx, corpus)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	reporter := evaluate.NewReporter(results, *outputPath)
	reporter.WriteSummary(os.Stdout)
	if err := reporter.GenerateReport(); err != nil {
		log.Fatal().Err(err).Msg("report generation failed")
	}
}

func loadCorpus(c cfg.Settings) (*dataset.Corpus, error) {
	corpus := &dataset.Corpus{}

	benign, err := dataset.LoadDomainList(c.BenignPath)
	if err != nil {
		return nil, err
	}
	corpus.Append(benign, 0)

	dga, err := dataset.LoadDomainList(c.DGAPath)
	if err != nil {
		return nil, err
	}
	corpus.Append(dga, 1)

	if c.TrancoPath != "" {
		ranked, err := dataset.LoadRankedList(c.TrancoPath, c.TrancoTopN)
		if err != nil {
			return nil, err
		}
		corpus.Append(ranked, 0)
	}
	return corpus, nil
}
