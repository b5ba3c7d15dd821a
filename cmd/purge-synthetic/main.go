// 维护任务：删除全部合成上报（isFake == true），可重复执行
package main

import (
	"trashtrackr/internal/cli"
	"trashtrackr/internal/config"
	"trashtrackr/internal/maintenance"
)

func main() {
	cli.RunJob("purge-synthetic", func(config.Config) maintenance.Job {
		return maintenance.PurgeSynthetic()
	})
}
