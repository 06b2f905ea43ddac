// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/planetserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// --- GORM 模型 ---

// VisitModel 一次会话在房间中的停留
type VisitModel struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"index;not null"`
	RoomID      string `gorm:"index;not null"`
	JoinedAt    time.Time
	LeftAt      time.Time
	Projectiles int
	CreatedAt   time.Time
}

// PlayerStatsModel 按会话聚合的访问统计
type PlayerStatsModel struct {
	ID               uint   `gorm:"primaryKey"`
	SessionID        string `gorm:"uniqueIndex;not null"`
	Visits           int
	TotalSeconds     float64
	TotalProjectiles int
	UpdatedAt        time.Time
}

// RoomRecordModel 房间生命周期记录
type RoomRecordModel struct {
	ID          uint   `gorm:"primaryKey"`
	RoomID      string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	PeakPlayers int
	OpenedAt    time.Time
	ClosedAt    time.Time
	CreatedAt   time.Time
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&VisitModel{},
		&PlayerStatsModel{},
		&RoomRecordModel{},
	)
}

// SaveSessionVisit 记录一次停留并在同一事务里更新聚合统计
func (p *GormPostgreSQL) SaveSessionVisit(visit models.SessionVisit) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := VisitModel{
			SessionID:   visit.SessionID,
			RoomID:      visit.RoomID,
			JoinedAt:    visit.JoinedAt,
			LeftAt:      visit.LeftAt,
			Projectiles: visit.Projectiles,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		seconds := visit.LeftAt.Sub(visit.JoinedAt).Seconds()

		var stats PlayerStatsModel
		err := tx.Where("session_id = ?", visit.SessionID).First(&stats).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stats = PlayerStatsModel{
				SessionID:        visit.SessionID,
				Visits:           1,
				TotalSeconds:     seconds,
				TotalProjectiles: visit.Projectiles,
			}
			return tx.Create(&stats).Error
		} else if err != nil {
			return err
		}

		return tx.Model(&stats).Updates(map[string]interface{}{
			"visits":            gorm.Expr("visits + 1"),
			"total_seconds":     gorm.Expr("total_seconds + ?", seconds),
			"total_projectiles": gorm.Expr("total_projectiles + ?", visit.Projectiles),
		}).Error
	})
}

// SaveRoomRecord 房间关闭时落一条生命周期记录（upsert）
func (p *GormPostgreSQL) SaveRoomRecord(record models.RoomRecord) error {
	var row RoomRecordModel
	result := p.db.Where("room_id = ?", record.RoomID).First(&row)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		row = RoomRecordModel{
			RoomID:      record.RoomID,
			Name:        record.Name,
			PeakPlayers: record.PeakPlayer,
			OpenedAt:    record.CreatedAt,
			ClosedAt:    record.ClosedAt,
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.PeakPlayers = record.PeakPlayer
	row.ClosedAt = record.ClosedAt
	return p.db.Save(&row).Error
}

// GetPlayerStats 查询某会话的聚合统计
func (p *GormPostgreSQL) GetPlayerStats(sessionID string) (map[string]interface{}, error) {
	var stats PlayerStatsModel
	if err := p.db.Where("session_id = ?", sessionID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return map[string]interface{}{
		"session_id":        stats.SessionID,
		"visits":            stats.Visits,
		"total_seconds":     stats.TotalSeconds,
		"total_projectiles": stats.TotalProjectiles,
	}, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
