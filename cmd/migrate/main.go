package main

import (
	"flag"
	"os"

	"firestrike/internal/config"
	"firestrike/internal/infrastructure/database"
	"firestrike/internal/infrastructure/logger"

	log "github.com/sirupsen/logrus"
)

// 用法: migrate -config config/config.yaml up|down [-steps 1]
func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	steps := flag.Int("steps", 1, "down 回滚的版本数")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.Init(cfg.Log)

	switch flag.Arg(0) {
	case "up":
		err = database.MigrateUp(&cfg.MySQL)
	case "down":
		err = database.MigrateDown(&cfg.MySQL, *steps)
	default:
		log.Errorf("未知命令 %q，可选 up 或 down", flag.Arg(0))
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("迁移失败: %v", err)
	}
	log.Info("迁移完成")
}
