package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/signalscale/signalscale/internal/signal"
)

// ReportMeta is one row of the report history listing. The full report
// payload is loaded separately by id.
type ReportMeta struct {
	ID          int64  `json:"id"`
	Brand       string `json:"brand"`
	Mode        string `json:"mode"`
	WindowDays  int    `json:"window_days"`
	Competitors int    `json:"competitors"`
	BrandScore  int    `json:"brand_score"`
	SignalCount int    `json:"signal_count"`
	CreatedAt   string `json:"created_at"`
}

// SaveReport stores a finished report and returns its row id.
func (db *DB) SaveReport(report *signal.Report) (int64, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("encoding report: %w", err)
	}

	result, err := db.conn.Exec(
		`INSERT INTO reports
		(brand, mode, window_days, competitors, brand_score, signal_count, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.Brand,
		report.Summary.Mode,
		report.Summary.WindowDays,
		report.KPIs.CompetitorsTracked,
		report.KPIs.BrandScore,
		len(report.Signals),
		string(payload),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetReport loads one stored report by id. Returns nil when the id does
// not exist.
func (db *DB) GetReport(id int64) (*signal.Report, error) {
	row := db.conn.QueryRow("SELECT payload FROM reports WHERE id = ?", id)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var report signal.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("decoding report %d: %w", id, err)
	}
	return &report, nil
}

// ListReports returns report metadata, newest first, capped at limit.
func (db *DB) ListReports(limit int) ([]ReportMeta, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, brand, mode, window_days, competitors, brand_score, signal_count, created_at
		FROM reports ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ReportMeta
	for rows.Next() {
		var m ReportMeta
		if err := rows.Scan(&m.ID, &m.Brand, &m.Mode, &m.WindowDays,
			&m.Competitors, &m.BrandScore, &m.SignalCount, &m.CreatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
