// 维护任务：剔除上报类型中的屏蔽词；剔除后为空的上报整体删除
package main

import (
	"trashtrackr/internal/cli"
	"trashtrackr/internal/config"
	"trashtrackr/internal/maintenance"
)

func main() {
	cli.RunJob("sanitize-types", func(cfg config.Config) maintenance.Job {
		return maintenance.SanitizeTypes(maintenance.NewBannedTokens(cfg.BannedTokens))
	})
}
