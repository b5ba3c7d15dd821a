// 维护任务：删除位于服务半径之外或坐标无法解析的上报
package main

import (
	"trashtrackr/internal/cli"
	"trashtrackr/internal/config"
	"trashtrackr/internal/geofence"
	"trashtrackr/internal/maintenance"
)

func main() {
	cli.RunJob("purge-outside-radius", func(cfg config.Config) maintenance.Job {
		return maintenance.PurgeOutsideRadius(geofence.New(cfg.Geofence))
	})
}
