package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

func (r *sqliteAlertRepo) Insert(ctx context.Context, alert *models.Alert) error {
	var lat, lon, altitude sql.NullFloat64
	if alert.Position != nil {
		lat = sql.NullFloat64{Float64: alert.Position.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: alert.Position.Lon, Valid: true}
		altitude = sql.NullFloat64{Float64: alert.Position.Altitude, Valid: true}
	}

	var metadata sql.NullString
	if len(alert.Metadata) > 0 {
		raw, err := json.Marshal(alert.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO alerts (id, kind, severity, title, message, aircraft_hex,
			lat, lon, altitude, auto_resolve, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID, string(alert.Kind), string(alert.Severity), alert.Title, alert.Message,
		nullString(alert.AircraftHex), lat, lon, altitude,
		boolToInt(alert.AutoResolve), metadata, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) RecordTransition(ctx context.Context, alertID, state string, at time.Time) error {
	query := "INSERT INTO alert_transitions (alert_id, state, at) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, alertID, state, at); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) ListRecent(ctx context.Context, limit int) ([]*AlertRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, kind, severity, title, message, aircraft_hex,
			lat, lon, altitude, auto_resolve, metadata_json, created_at
		FROM alerts ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	records, err := r.scanAlerts(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}
	if err := r.attachTransitions(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *sqliteAlertRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM alerts WHERE created_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("delete alerts: %w", err)
	}
	return result.RowsAffected()
}

func (r *sqliteAlertRepo) scanAlerts(rows *sql.Rows) ([]*AlertRecord, error) {
	var records []*AlertRecord
	for rows.Next() {
		rec := &AlertRecord{}
		var (
			kind, severity     string
			hex, metadata      sql.NullString
			lat, lon, altitude sql.NullFloat64
			autoResolve        int
		)
		err := rows.Scan(&rec.Alert.ID, &kind, &severity, &rec.Alert.Title, &rec.Alert.Message,
			&hex, &lat, &lon, &altitude, &autoResolve, &metadata, &rec.Alert.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}

		rec.Alert.Kind = models.AlertKind(kind)
		rec.Alert.Severity = models.Severity(severity)
		rec.Alert.AircraftHex = hex.String
		rec.Alert.AutoResolve = autoResolve != 0
		if lat.Valid && lon.Valid {
			rec.Alert.Position = &models.Position{
				Lat:      lat.Float64,
				Lon:      lon.Float64,
				Altitude: altitude.Float64,
			}
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Alert.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", rec.Alert.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// attachTransitions loads the transition rows for the given records in
// one query.
func (r *sqliteAlertRepo) attachTransitions(ctx context.Context, records []*AlertRecord) error {
	ids := make([]any, 0, len(records))
	byID := make(map[string]*AlertRecord, len(records))
	for _, rec := range records {
		ids = append(ids, rec.Alert.ID)
		byID[rec.Alert.ID] = rec
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(
		"SELECT alert_id, state, at FROM alert_transitions WHERE alert_id IN (%s) ORDER BY id",
		placeholders,
	)
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr TransitionRecord
		if err := rows.Scan(&tr.AlertID, &tr.State, &tr.At); err != nil {
			return fmt.Errorf("scan transition: %w", err)
		}
		if rec, ok := byID[tr.AlertID]; ok {
			rec.States = append(rec.States, tr)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate transitions: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
