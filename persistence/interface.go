// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/planetserver/models"
)

// Database 遥测落库接口。只写访问记录与房间生命周期，
// 权威世界状态从不回灌（服务重启即空房间）。
type Database interface {
	SaveSessionVisit(visit models.SessionVisit) error
	SaveRoomRecord(record models.RoomRecord) error
	GetPlayerStats(sessionID string) (map[string]interface{}, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
