package ml

// Regressor is the capability contract the pipeline and the service
// consume the model through. A malformed input matrix is a caller
// error; implementations do not retry or recover.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	Save(path string) error
	Load(path string) error
}

var _ Regressor = (*RandomForest)(nil)
