package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"homeprice/ml"
)

var database *sql.DB

// InitDB opens the SQLite database and creates the tables.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        suburb TEXT NOT NULL,
        type TEXT NOT NULL,
        rooms INTEGER NOT NULL,
        bathroom REAL NOT NULL,
        car REAL NOT NULL,
        landsize REAL NOT NULL,
        building_area REAL NOT NULL,
        sale_year INTEGER NOT NULL,
        predicted_price REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS training_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        schema_version INTEGER NOT NULL,
        data_points INTEGER NOT NULL,
        train_rows INTEGER NOT NULL,
        test_rows INTEGER NOT NULL,
        n_features INTEGER NOT NULL,
        mae REAL NOT NULL,
        rmse REAL NOT NULL,
        r2 REAL NOT NULL,
        artifacts_dir TEXT NOT NULL,
        trained_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
    `

	_, err = database.Exec(query)
	return err
}

// Close closes the database.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	Input          ml.PredictionInput `json:"input"`
	PredictedPrice float64            `json:"predicted_price"`
	CreatedAt      time.Time          `json:"created_at"`
}

// SavePrediction records a served prediction.
func SavePrediction(in ml.PredictionInput, price float64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (suburb, type, rooms, bathroom, car, landsize, building_area, sale_year, predicted_price)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Suburb, in.Type, in.Rooms, in.Bathroom, in.Car, in.Landsize, in.BuildingArea, in.SaleYear, price)
	return err
}

// RecentPredictions returns the most recent served predictions, newest
// first.
func RecentPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT suburb, type, rooms, bathroom, car, landsize, building_area, sale_year, predicted_price, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0, limit)
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(
			&r.Input.Suburb, &r.Input.Type, &r.Input.Rooms, &r.Input.Bathroom,
			&r.Input.Car, &r.Input.Landsize, &r.Input.BuildingArea, &r.Input.SaleYear,
			&r.PredictedPrice, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// TrainingRun is one recorded training run.
type TrainingRun struct {
	SchemaVersion int       `json:"schema_version"`
	DataPoints    int       `json:"data_points"`
	TrainRows     int       `json:"train_rows"`
	TestRows      int       `json:"test_rows"`
	NumFeatures   int       `json:"n_features"`
	MAE           float64   `json:"mae"`
	RMSE          float64   `json:"rmse"`
	R2            float64   `json:"r2"`
	ArtifactsDir  string    `json:"artifacts_dir"`
	TrainedAt     time.Time `json:"trained_at"`
}

// SaveTrainingRun records a completed training run.
func SaveTrainingRun(run TrainingRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO training_runs (schema_version, data_points, train_rows, test_rows, n_features, mae, rmse, r2, artifacts_dir, trained_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SchemaVersion, run.DataPoints, run.TrainRows, run.TestRows, run.NumFeatures,
		run.MAE, run.RMSE, run.R2, run.ArtifactsDir, run.TrainedAt)
	return err
}

// LoadTrainingRuns returns all recorded runs, newest first.
func LoadTrainingRuns() ([]TrainingRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT schema_version, data_points, train_rows, test_rows, n_features, mae, rmse, r2, artifacts_dir, trained_at
        FROM training_runs
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		if err := rows.Scan(&run.SchemaVersion, &run.DataPoints, &run.TrainRows, &run.TestRows,
			&run.NumFeatures, &run.MAE, &run.RMSE, &run.R2, &run.ArtifactsDir, &run.TrainedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
