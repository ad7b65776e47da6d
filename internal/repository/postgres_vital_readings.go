package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresVitalReadingsRepository 评分结果仓库的 PostgreSQL 实现
type PostgresVitalReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresVitalReadingsRepository 创建评分结果仓库
func NewPostgresVitalReadingsRepository(db *sql.DB, logger *zap.Logger) *PostgresVitalReadingsRepository {
	return &PostgresVitalReadingsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ VitalReadingsRepository = (*PostgresVitalReadingsRepository)(nil)

const vitalReadingColumns = `
	id, patient_id, hr, spo2, temp, rr, fall,
	ews_result, anomaly_result, trend_result, trend_reason, trend_signal,
	final_status, processing_status, override_applied, override_reason,
	stale_signals, recorded_at
`

// CreateReading 写入一条评分记录
func (r *PostgresVitalReadingsRepository) CreateReading(ctx context.Context, reading *models.VitalReading) error {
	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}

	staleSignals, err := json.Marshal(reading.StaleSignals)
	if err != nil {
		return fmt.Errorf("failed to marshal stale signals: %w", err)
	}

	query := `
		INSERT INTO vital_readings (
			id, patient_id, hr, spo2, temp, rr, fall,
			ews_result, anomaly_result, trend_result, trend_reason, trend_signal,
			final_status, processing_status, override_applied, override_reason,
			stale_signals, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.db.ExecContext(ctx, query,
		reading.ID,
		reading.PatientID,
		reading.Vitals.HR,
		reading.Vitals.SpO2,
		reading.Vitals.Temp,
		reading.Vitals.RR,
		reading.Vitals.Fall,
		reading.EWSResult,
		reading.AnomalyResult,
		reading.TrendResult,
		nullString(reading.TrendReason),
		nullString(reading.TrendSignal),
		reading.FinalStatus,
		reading.ProcessingStatus,
		reading.OverrideApplied,
		nullString(reading.OverrideReason),
		staleSignals,
		reading.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vital reading: %w", err)
	}

	return nil
}

// GetLatestReading 获取患者最新一条评分记录
func (r *PostgresVitalReadingsRepository) GetLatestReading(ctx context.Context, patientID string) (*models.VitalReading, error) {
	query := `
		SELECT ` + vitalReadingColumns + `
		FROM vital_readings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	reading, err := scanVitalReading(r.db.QueryRowContext(ctx, query, patientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: patient %s", ErrReadingNotFound, patientID)
		}
		return nil, fmt.Errorf("failed to query latest vital reading: %w", err)
	}
	return reading, nil
}

// ListReadings 按时间倒序返回患者的评分记录
func (r *PostgresVitalReadingsRepository) ListReadings(ctx context.Context, patientID string, limit int) ([]*models.VitalReading, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + vitalReadingColumns + `
		FROM vital_readings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vital readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.VitalReading
	for rows.Next() {
		reading, err := scanVitalReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vital reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vital readings: %w", err)
	}

	return readings, nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanVitalReading 扫描单条记录
func scanVitalReading(row rowScanner) (*models.VitalReading, error) {
	var reading models.VitalReading
	var trendReason, trendSignal, overrideReason sql.NullString
	var staleSignals []byte

	err := row.Scan(
		&reading.ID,
		&reading.PatientID,
		&reading.Vitals.HR,
		&reading.Vitals.SpO2,
		&reading.Vitals.Temp,
		&reading.Vitals.RR,
		&reading.Vitals.Fall,
		&reading.EWSResult,
		&reading.AnomalyResult,
		&reading.TrendResult,
		&trendReason,
		&trendSignal,
		&reading.FinalStatus,
		&reading.ProcessingStatus,
		&reading.OverrideApplied,
		&overrideReason,
		&staleSignals,
		&reading.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	reading.TrendReason = trendReason.String
	reading.TrendSignal = trendSignal.String
	reading.OverrideReason = overrideReason.String

	if len(staleSignals) > 0 {
		if err := json.Unmarshal(staleSignals, &reading.StaleSignals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stale signals: %w", err)
		}
	}

	return &reading, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
