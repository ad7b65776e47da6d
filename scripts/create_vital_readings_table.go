package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/Balaji-1206/CareSync-sub000/internal/config"

	_ "github.com/lib/pq"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS vital_readings (
    id                UUID PRIMARY KEY,
    patient_id        VARCHAR(64) NOT NULL,
    hr                DOUBLE PRECISION NOT NULL DEFAULT 0,
    spo2              DOUBLE PRECISION NOT NULL DEFAULT 0,
    temp              DOUBLE PRECISION NOT NULL DEFAULT 0,
    rr                DOUBLE PRECISION NOT NULL DEFAULT 0,
    fall              DOUBLE PRECISION NOT NULL DEFAULT 0,
    ews_result        VARCHAR(16) NOT NULL,
    anomaly_result    VARCHAR(16) NOT NULL,
    trend_result      VARCHAR(16) NOT NULL,
    trend_reason      TEXT,
    trend_signal      VARCHAR(16),
    final_status      VARCHAR(16) NOT NULL,
    processing_status VARCHAR(16) NOT NULL,
    override_applied  BOOLEAN NOT NULL DEFAULT FALSE,
    override_reason   TEXT,
    stale_signals     JSONB,
    recorded_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vital_readings_patient_recorded
    ON vital_readings (patient_id, recorded_at DESC);
`

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ping database: %v\n", err)
		os.Exit(1)
	}

	// 执行 SQL
	if _, err := db.Exec(createTableSQL); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ vital_readings table created successfully!")
}
