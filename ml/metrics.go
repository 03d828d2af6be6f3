package ml

import (
	"errors"
	"math"
)

// EvalReport summarizes regression quality on a held-out set.
type EvalReport struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate computes MAE, RMSE and R² of predictions against targets.
func Evaluate(predictions, targets []float64) (EvalReport, error) {
	if len(predictions) == 0 {
		return EvalReport{}, errors.New("no predictions to evaluate")
	}
	if len(predictions) != len(targets) {
		return EvalReport{}, errors.New("predictions and targets length mismatch")
	}

	n := float64(len(targets))
	var mean float64
	for _, t := range targets {
		mean += t
	}
	mean /= n

	var absSum, sqSum, totSum float64
	for i, p := range predictions {
		d := p - targets[i]
		absSum += math.Abs(d)
		sqSum += d * d
		td := targets[i] - mean
		totSum += td * td
	}

	r2 := 0.0
	if totSum > 0 {
		r2 = 1 - sqSum/totSum
	}
	return EvalReport{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		R2:   r2,
	}, nil
}
