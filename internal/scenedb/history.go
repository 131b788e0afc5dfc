package scenedb

import (
	"encoding/json"
	"fmt"
	"time"

	"elastic-fit/internal/fit"
)

// Fit statuses.
const (
	StatusPreview   = "preview"
	StatusApplied   = "applied"
	StatusCancelled = "cancelled"
	StatusRemoved   = "removed"
)

// FitRecord is one row of fit history.
type FitRecord struct {
	ID             string
	Object         string
	Body           string
	Params         fit.Params
	ProxyTriangles int
	Subdivisions   int
	Fitted         int
	Preserved      int
	Status         string
	CreatedAt      time.Time
}

// RecordFit inserts a history row for a started fit.
func (db *DB) RecordFit(object, body string, p fit.Params, rep *fit.Report) error {
	params, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO fit_history (id, object, body, params, proxy_triangles, subdivisions, fitted, preserved, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.SessionID, object, body, string(params), rep.ProxyTriangles, rep.Subdivisions, rep.Fitted, rep.Preserved, StatusPreview)
	if err != nil {
		return fmt.Errorf("scenedb: record fit %s: %w", rep.SessionID, err)
	}
	return nil
}

// SetFitStatus updates the status of a history row.
func (db *DB) SetFitStatus(id, status string) error {
	res, err := db.Exec(`UPDATE fit_history SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("scenedb: set fit %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scenedb: set fit %s status: no such fit", id)
	}
	return nil
}

// MarkRemoved flags every applied fit of object as removed.
func (db *DB) MarkRemoved(object string) (int64, error) {
	res, err := db.Exec(`UPDATE fit_history SET status = ? WHERE object = ? AND status = ?`, StatusRemoved, object, StatusApplied)
	if err != nil {
		return 0, fmt.Errorf("scenedb: mark %s removed: %w", object, err)
	}
	return res.RowsAffected()
}

// FitHistory returns the fits of object, oldest first.
func (db *DB) FitHistory(object string) ([]FitRecord, error) {
	rows, err := db.Query(`
		SELECT id, object, body, params, proxy_triangles, subdivisions, fitted, preserved, status, created_at
		FROM fit_history WHERE object = ? ORDER BY created_at, rowid
	`, object)
	if err != nil {
		return nil, fmt.Errorf("scenedb: history %s: %w", object, err)
	}
	defer rows.Close()

	var out []FitRecord
	for rows.Next() {
		var r FitRecord
		var params string
		var created float64
		if err := rows.Scan(&r.ID, &r.Object, &r.Body, &params, &r.ProxyTriangles, &r.Subdivisions, &r.Fitted, &r.Preserved, &r.Status, &created); err != nil {
			return nil, fmt.Errorf("scenedb: history %s: %w", object, err)
		}
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, fmt.Errorf("scenedb: history %s params: %w", object, err)
		}
		sec := int64(created)
		r.CreatedAt = time.Unix(sec, int64((created-float64(sec))*1e9))
		out = append(out, r)
	}
	return out, rows.Err()
}
