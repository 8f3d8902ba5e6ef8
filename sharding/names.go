package sharding

import (
	"time"

	"github.com/google/uuid"
)

// entryNameLayout 自动条目名的时间戳格式，可读且可按时间排序
const entryNameLayout = "20060102150405"

// NewEntryName 为自动创建的分片条目生成名称
//
// 时间戳让名称可读可排序；uuid 后缀封堵同一时钟刻度内
// 并发创建的冲撞。
func NewEntryName(now time.Time) string {
	return "Entry-" + now.UTC().Format(entryNameLayout) + "-" + uuid.New().String()[:8]
}

// NewDatabaseName 为自动创建的条目生成数据库名
func NewDatabaseName(now time.Time) string {
	return "db_" + now.UTC().Format(entryNameLayout) + "_" + uuid.New().String()[:8]
}
