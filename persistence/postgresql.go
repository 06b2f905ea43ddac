// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/planetserver/models"
)

// PostgreSQL 直接基于 database/sql 的实现，给不想引入 GORM 的部署用
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS visit_models (
			id SERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			room_id TEXT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL,
			left_at TIMESTAMPTZ NOT NULL,
			projectiles INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visit_session ON visit_models (session_id)`,
		`CREATE TABLE IF NOT EXISTS player_stats_models (
			id SERIAL PRIMARY KEY,
			session_id TEXT NOT NULL UNIQUE,
			visits INT NOT NULL DEFAULT 0,
			total_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_projectiles INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS room_record_models (
			id SERIAL PRIMARY KEY,
			room_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			peak_players INT NOT NULL DEFAULT 0,
			opened_at TIMESTAMPTZ NOT NULL,
			closed_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSessionVisit 记录停留并更新聚合统计（单事务）
func (p *PostgreSQL) SaveSessionVisit(visit models.SessionVisit) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO visit_models (session_id, room_id, joined_at, left_at, projectiles)
		 VALUES ($1, $2, $3, $4, $5)`,
		visit.SessionID, visit.RoomID, visit.JoinedAt, visit.LeftAt, visit.Projectiles,
	)
	if err != nil {
		return err
	}

	seconds := visit.LeftAt.Sub(visit.JoinedAt).Seconds()
	_, err = tx.Exec(
		`INSERT INTO player_stats_models (session_id, visits, total_seconds, total_projectiles, updated_at)
		 VALUES ($1, 1, $2, $3, now())
		 ON CONFLICT (session_id) DO UPDATE SET
			visits = player_stats_models.visits + 1,
			total_seconds = player_stats_models.total_seconds + EXCLUDED.total_seconds,
			total_projectiles = player_stats_models.total_projectiles + EXCLUDED.total_projectiles,
			updated_at = now()`,
		visit.SessionID, seconds, visit.Projectiles,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SaveRoomRecord 房间生命周期记录（upsert）
func (p *PostgreSQL) SaveRoomRecord(record models.RoomRecord) error {
	_, err := p.db.Exec(
		`INSERT INTO room_record_models (room_id, name, peak_players, opened_at, closed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (room_id) DO UPDATE SET
			peak_players = EXCLUDED.peak_players,
			closed_at = EXCLUDED.closed_at`,
		record.RoomID, record.Name, record.PeakPlayer, record.CreatedAt, record.ClosedAt,
	)
	return err
}

// GetPlayerStats 查询聚合统计
func (p *PostgreSQL) GetPlayerStats(sessionID string) (map[string]interface{}, error) {
	row := p.db.QueryRow(
		`SELECT visits, total_seconds, total_projectiles
		 FROM player_stats_models WHERE session_id = $1`,
		sessionID,
	)

	var visits, projectiles int
	var seconds float64
	if err := row.Scan(&visits, &seconds, &projectiles); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return map[string]interface{}{
		"session_id":        sessionID,
		"visits":            visits,
		"total_seconds":     seconds,
		"total_projectiles": projectiles,
	}, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
