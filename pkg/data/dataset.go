// Package data generates and loads small labelled datasets for training
// demos. Labels are -1 or +1 so they can be compared against a tanh output.
package data

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed is returned for dataset lines that cannot be parsed.
var ErrMalformed = errors.New("data: malformed sample")

// Sample is one labelled point.
type Sample struct {
	X []float32
	Y float32
}

// Kind names a synthetic dataset.
type Kind string

const (
	Linear Kind = "linear" // x1 + x2 > 0
	Circle Kind = "circle" // x1² + x2² < 0.5
	XOR    Kind = "xor"    // x1 * x2 > 0
)

// Generate draws n points uniformly from [-1, 1]² and labels them by kind.
// noise perturbs the point used for labelling, so labels near the decision
// boundary can flip.
func Generate(kind Kind, n int, noise float64, seed uint64) ([]Sample, error) {
	var rule func(x1, x2 float64) bool
	switch kind {
	case Linear:
		rule = func(x1, x2 float64) bool { return x1+x2 > 0 }
	case Circle:
		rule = func(x1, x2 float64) bool { return x1*x1+x2*x2 < 0.5 }
	case XOR:
		rule = func(x1, x2 float64) bool { return x1*x2 > 0 }
	default:
		return nil, fmt.Errorf("data: unknown dataset kind %q", kind)
	}

	rng := rand.New(rand.NewPCG(seed, 0))
	samples := make([]Sample, n)
	for i := range samples {
		x1 := rng.Float64()*2 - 1
		x2 := rng.Float64()*2 - 1
		y := float32(-1)
		if rule(x1+noise*rng.NormFloat64(), x2+noise*rng.NormFloat64()) {
			y = 1
		}
		samples[i] = Sample{X: []float32{float32(x1), float32(x2)}, Y: y}
	}
	return samples, nil
}

// LoadCSV reads samples from a file. Each non-empty line not starting with
// '#' holds comma-separated features followed by the label.
func LoadCSV(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses samples from r in the LoadCSV format. All samples must have
// the same number of features.
func ReadCSV(r io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: need at least one feature and a label", ErrMalformed, lineNo)
		}
		vals := make([]float32, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
			}
			vals[i] = float32(v)
		}
		if len(samples) > 0 && len(samples[0].X) != len(vals)-1 {
			return nil, fmt.Errorf("%w: line %d: expected %d features, got %d", ErrMalformed, lineNo, len(samples[0].X), len(vals)-1)
		}
		samples = append(samples, Sample{X: vals[:len(vals)-1], Y: vals[len(vals)-1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// DownloadIfNotExists downloads a URL to path if path doesn't exist. The body
// is written to path+".tmp" and renamed into place only once it is complete,
// so a failed download leaves nothing behind and the next call retries.
func DownloadIfNotExists(url, path string) (err error) {
	if _, err := os.Stat(path); err == nil {
		return nil // File already exists
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data: downloading %s: %s", url, resp.Status)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("data: downloading %s: %w", url, err)
	}
	if err = file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Shuffle randomly shuffles samples in place with a seed
func Shuffle(samples []Sample, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, 0))
	rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
}

// Batches splits samples into consecutive batches of at most size elements.
// The batches share the backing array of samples.
func Batches(samples []Sample, size int) [][]Sample {
	if size <= 0 {
		panic("data: batch size must be positive")
	}
	batches := make([][]Sample, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		batches = append(batches, samples[start:end:end])
	}
	return batches
}
