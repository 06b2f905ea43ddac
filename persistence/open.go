// persistence/open.go
package persistence

import (
	"fmt"

	"github.com/wfunc/planetserver/config"
)

// Open 按配置选择实现。database.enabled=false 时返回 (nil, nil)，
// 调用方按无持久化运行。
func Open(cfg config.DatabaseConfig) (Database, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "pq":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
