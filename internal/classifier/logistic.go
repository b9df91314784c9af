package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a binary L2-regularised logistic model.
type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Fit       FitStatus `json:"fit"`
}

// FitStatus records how the optimiser stopped.
type FitStatus struct {
	Status     string `json:"status"`
	Iterations int    `json:"iterations"`
	Problem    string `json:"problem,omitempty"` // optimiser error, if it stopped early
}

// Converged reports whether the optimiser reached a solution rather than
// running out of iterations or failing a line search.
func (s FitStatus) Converged() bool {
	return s.Problem == "" && s.Status != optimize.IterationLimit.String()
}

// ErrDiverged is returned when fitting produces non-finite weights.
var ErrDiverged = errors.New("logistic regression diverged")

// LogisticOptions controls fitting.
type LogisticOptions struct {
	C             float64 // Inverse regularisation strength
	MaxIter       int
	Tolerance     float64
	BalanceWeight bool // Weight samples by n / (2 * n_class)
}

// DefaultLogisticOptions mirrors the settings the service is trained with.
func DefaultLogisticOptions() LogisticOptions {
	return LogisticOptions{C: 1.0, MaxIter: 2000, Tolerance: 1e-4, BalanceWeight: true}
}

// FitLogistic trains on rows x with labels y in {0,1}. The intercept is not
// penalised.
func FitLogistic(x []SparseVector, y []int, numFeatures int, opts LogisticOptions) (*LogisticRegression, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("x has %d rows but y has %d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if opts.C <= 0 {
		return nil, fmt.Errorf("C must be positive, got %v", opts.C)
	}

	weights, err := sampleWeights(y, opts.BalanceWeight)
	if err != nil {
		return nil, err
	}
	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	reg := 1 / (opts.C * weightSum)

	// params = [coef..., intercept]
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			coef, b := params[:numFeatures], params[numFeatures]
			var loss float64
			for i, row := range x {
				z := row.Dot(coef) + b
				loss += weights[i] * (softplus(z) - float64(y[i])*z)
			}
			var sq float64
			for _, c := range coef {
				sq += c * c
			}
			return loss/weightSum + 0.5*reg*sq
		},
		Grad: func(grad, params []float64) {
			coef, b := params[:numFeatures], params[numFeatures]
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range x {
				residual := weights[i] * (sigmoid(row.Dot(coef)+b) - float64(y[i])) / weightSum
				for k, idx := range row.Indices {
					grad[idx] += residual * row.Values[k]
				}
				grad[numFeatures] += residual
			}
			for j, c := range coef {
				grad[j] += reg * c
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIter,
		GradientThreshold: opts.Tolerance,
	}
	result, err := optimize.Minimize(problem, make([]float64, numFeatures+1), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("failed to fit logistic regression: %w", err)
	}
	for _, p := range result.X {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w (status %s)", ErrDiverged, result.Status)
		}
	}

	// An early stop still leaves usable finite weights; callers decide whether
	// to warn.
	status := FitStatus{Status: result.Status.String(), Iterations: result.MajorIterations}
	if err != nil {
		status.Problem = err.Error()
	}

	coef := make([]float64, numFeatures)
	copy(coef, result.X[:numFeatures])
	return &LogisticRegression{Coef: coef, Intercept: result.X[numFeatures], Fit: status}, nil
}

// ProbabilityOf returns P(y=1 | x).
func (m *LogisticRegression) ProbabilityOf(x SparseVector) float64 {
	return sigmoid(x.Dot(m.Coef) + m.Intercept)
}

func sampleWeights(y []int, balanced bool) ([]float64, error) {
	var counts [2]int
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("label %d is not binary", label)
		}
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, errors.New("training data must contain both classes")
	}

	classWeight := [2]float64{1, 1}
	if balanced {
		n := float64(len(y))
		classWeight[0] = n / (2 * float64(counts[0]))
		classWeight[1] = n / (2 * float64(counts[1]))
	}

	weights := make([]float64, len(y))
	for i, label := range y {
		weights[i] = classWeight[label]
	}
	return weights, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
