// services/record_service.go
package services

import (
	"sync"
	"time"

	"github.com/wfunc/planetserver/logger"
	"github.com/wfunc/planetserver/models"
	"github.com/wfunc/planetserver/persistence"
)

// RecordService 缓冲遥测记录并异步落库。db 为 nil 时所有操作都是
// no-op，服务器照常运行。
type RecordService struct {
	db persistence.Database

	mutex   sync.Mutex
	pending []models.SessionVisit
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

func (s *RecordService) Enabled() bool {
	return s.db != nil
}

// RecordVisit 缓冲一条停留记录，等 Flush 批量落库
func (s *RecordService) RecordVisit(visit models.SessionVisit) {
	if s.db == nil {
		return
	}
	s.mutex.Lock()
	s.pending = append(s.pending, visit)
	s.mutex.Unlock()
}

// RecordRoomClosed 同步落一条房间生命周期记录
func (s *RecordService) RecordRoomClosed(record models.RoomRecord) {
	if s.db == nil {
		return
	}
	if record.ClosedAt.IsZero() {
		record.ClosedAt = time.Now()
	}
	if err := s.db.SaveRoomRecord(record); err != nil {
		logger.Log.Errorf("record service: room record save failed: %v", err)
	}
}

// Flush 把缓冲的停留记录写入数据库。单条失败只记日志，
// 不影响其余记录。
func (s *RecordService) Flush() {
	if s.db == nil {
		return
	}

	s.mutex.Lock()
	batch := s.pending
	s.pending = nil
	s.mutex.Unlock()

	for _, visit := range batch {
		if err := s.db.SaveSessionVisit(visit); err != nil {
			logger.Log.Errorf("record service: visit save failed for %s: %v", visit.SessionID, err)
		}
	}
}

// GetPlayerStats 查询会话的聚合统计
func (s *RecordService) GetPlayerStats(sessionID string) (map[string]interface{}, error) {
	if s.db == nil {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.GetPlayerStats(sessionID)
}
