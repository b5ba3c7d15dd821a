// 维护任务：删除位于行政区外接矩形之外或坐标无法解析的上报
package main

import (
	"trashtrackr/internal/cli"
	"trashtrackr/internal/config"
	"trashtrackr/internal/geofence"
	"trashtrackr/internal/maintenance"
)

func main() {
	cli.RunJob("purge-outside-bounds", func(cfg config.Config) maintenance.Job {
		return maintenance.PurgeOutsideBounds(geofence.New(cfg.Geofence))
	})
}
