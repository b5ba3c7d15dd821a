// 种子脚本：向当前存储写入一批合成上报（isFake=true），条数由 SEED_COUNT 控制
package main

import (
	"context"
	"os"
	"strconv"

	"trashtrackr/internal/cli"
	"trashtrackr/internal/seed"
)

func main() {
	cli.Main("seed-synthetic", func(ctx context.Context, e *cli.Env) error {
		count := seed.DefaultCount
		if v := os.Getenv("SEED_COUNT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				count = n
			} else {
				e.Log.Warn("seed_count_invalid", "value", v, "fallback", count)
			}
		}
		_, err := seed.NewLoader(e.Store, seed.NewGenerator(nil, nil), e.Log).Run(ctx, count)
		return err
	})
}
