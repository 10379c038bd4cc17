package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/joelsearcy/scalargrad/pkg/data"
	"github.com/joelsearcy/scalargrad/pkg/nn"
	"github.com/joelsearcy/scalargrad/pkg/optim"
	"github.com/joelsearcy/scalargrad/pkg/train"
)

const (
	// Model hyperparameters
	Hidden1   = 16
	Hidden2   = 16
	BatchSize = 32

	// Training hyperparameters
	LearningRate = 0.01
	Beta1        = 0.85
	Beta2        = 0.99
	EpsAdam      = 1e-8
	NumSteps     = 500

	// Data
	Seed       = 42
	NumSamples = 1024
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// CPU profile covers data generation through evaluation
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		return fmt.Errorf("creating CPU profile: %w", err)
	}
	defer cpuFile.Close()

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	defer pprof.StopCPUProfile()

	fmt.Println("CPU profiling enabled - writing to cpu.prof")

	samples, err := data.Generate(data.Circle, NumSamples, 0.05, Seed)
	if err != nil {
		return fmt.Errorf("generating data: %w", err)
	}
	fmt.Printf("num samples: %d\n", len(samples))

	trainer, err := train.New(train.Options{
		Features:  2,
		Hidden:    []int{Hidden1, Hidden2},
		HiddenAct: nn.Tanh,
		OutputAct: nn.Tanh,
		BatchSize: BatchSize,
		Optimizer: optim.Settings{Name: "adam", LR: LearningRate, Beta1: Beta1, Beta2: Beta2, Epsilon: EpsAdam},
		Seed:      Seed,
	})
	if err != nil {
		return fmt.Errorf("building trainer: %w", err)
	}
	fmt.Printf("num params: %d\n", len(trainer.Params()))

	batches := data.Batches(samples, BatchSize)
	fmt.Printf("Running %d training steps for profiling...\n", NumSteps)
	for step := 0; step < NumSteps; step++ {
		// Linear LR decay
		lrScale := 1.0 - float64(step)/float64(NumSteps)
		loss, err := trainer.Step(batches[step%len(batches)], lrScale)
		if err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if step%10 == 0 || step == NumSteps-1 {
			fmt.Printf("\rstep %4d / %4d | loss %.4f", step+1, NumSteps, loss)
		}
	}
	fmt.Println()

	m, err := trainer.Evaluate(samples)
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}
	fmt.Printf("accuracy: %.2f%%\n", 100*m.Accuracy)

	memFile, err := os.Create("mem.prof")
	if err != nil {
		return fmt.Errorf("creating memory profile: %w", err)
	}
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		memFile.Close()
		return fmt.Errorf("writing memory profile: %w", err)
	}
	if err := memFile.Close(); err != nil {
		return fmt.Errorf("closing memory profile: %w", err)
	}

	fmt.Println("Memory profiling complete - written to mem.prof")
	fmt.Println("\nTo analyze profiles:")
	fmt.Println("  go tool pprof cpu.prof")
	fmt.Println("  go tool pprof mem.prof")
	return nil
}
