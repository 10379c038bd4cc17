package train

import (
	"context"
	"fmt"

	"github.com/joelsearcy/scalargrad/internal/config"
	"github.com/joelsearcy/scalargrad/internal/ctxlog"
	"github.com/joelsearcy/scalargrad/pkg/data"
	"github.com/joelsearcy/scalargrad/pkg/nn"
	"github.com/joelsearcy/scalargrad/pkg/optim"
)

// Result reports the outcome of Run.
type Result struct {
	Epochs int
	Steps  int
	Params int
	Train  Metrics
	Test   Metrics
}

// LoadSamples builds the dataset selected by cfg.
func LoadSamples(cfg config.Dataset, seed uint64) ([]data.Sample, error) {
	if cfg.Kind != "csv" {
		return data.Generate(data.Kind(cfg.Kind), cfg.Samples, cfg.Noise, seed)
	}
	if cfg.URL != "" {
		if err := data.DownloadIfNotExists(cfg.URL, cfg.Path); err != nil {
			return nil, fmt.Errorf("failed to download dataset: %w", err)
		}
	}
	samples, err := data.LoadCSV(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return samples, nil
}

// Split holds out the trailing fraction of samples for testing.
func Split(samples []data.Sample, testFraction float64) (trainSet, testSet []data.Sample) {
	n := int(float64(len(samples)) * testFraction)
	cut := len(samples) - n
	return samples[:cut], samples[cut:]
}

// Run trains a model as described by cfg. It checks ctx between epochs.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	samples, err := LoadSamples(cfg.Dataset, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("dataset %q is empty", cfg.Dataset.Kind)
	}
	data.Shuffle(samples, cfg.Seed)
	trainSet, testSet := Split(samples, cfg.Dataset.TestSplit)
	if len(trainSet) == 0 {
		return nil, fmt.Errorf("no training samples left after holding out %g for testing", cfg.Dataset.TestSplit)
	}
	logger.Info("Dataset ready.", "kind", cfg.Dataset.Kind, "train", len(trainSet), "test", len(testSet))

	hiddenAct, err := nn.ParseActivation(cfg.Model.Activation)
	if err != nil {
		return nil, err
	}
	outputAct, err := nn.ParseActivation(cfg.Model.Output)
	if err != nil {
		return nil, err
	}

	trainer, err := New(Options{
		Features:  len(trainSet[0].X),
		Hidden:    cfg.Model.Hidden,
		HiddenAct: hiddenAct,
		OutputAct: outputAct,
		BatchSize: cfg.BatchSize,
		Optimizer: optim.Settings{
			Name:    cfg.Optimizer.Name,
			LR:      cfg.LearningRate,
			Beta1:   cfg.Optimizer.Beta1,
			Beta2:   cfg.Optimizer.Beta2,
			Epsilon: cfg.Optimizer.Epsilon,
		},
		Seed: cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Model built.", "params", len(trainer.Params()), "nodes", trainer.graph.Len())

	batchesPerEpoch := (len(trainSet) + cfg.BatchSize - 1) / cfg.BatchSize
	totalSteps := cfg.Epochs * batchesPerEpoch
	step := 0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data.Shuffle(trainSet, cfg.Seed+uint64(epoch)+1)

		var epochLoss float64
		for i, batch := range data.Batches(trainSet, cfg.BatchSize) {
			lrScale := 1.0
			if cfg.LRDecay {
				// Linear LR decay
				lrScale = 1.0 - float64(step)/float64(totalSteps)
			}
			loss, err := trainer.Step(batch, lrScale)
			if err != nil {
				return nil, fmt.Errorf("epoch %d batch %d: %w", epoch, i, err)
			}
			epochLoss += float64(loss) * float64(len(batch))
			step++
			logger.Debug("Batch done.", "epoch", epoch, "batch", i, "loss", loss, "lr_scale", lrScale)
		}

		if epoch%10 == 0 || epoch == cfg.Epochs-1 {
			m, err := trainer.Evaluate(trainSet)
			if err != nil {
				return nil, err
			}
			logger.Info("Epoch done.", "epoch", epoch+1, "of", cfg.Epochs, "loss", epochLoss/float64(len(trainSet)), "accuracy", m.Accuracy)
		}
	}

	res := &Result{Epochs: cfg.Epochs, Steps: step, Params: len(trainer.Params())}
	if res.Train, err = trainer.Evaluate(trainSet); err != nil {
		return nil, err
	}
	if res.Test, err = trainer.Evaluate(testSet); err != nil {
		return nil, err
	}
	logger.Info("Training complete.", "train_loss", res.Train.Loss, "train_accuracy", res.Train.Accuracy, "test_loss", res.Test.Loss, "test_accuracy", res.Test.Accuracy)
	return res, nil
}
