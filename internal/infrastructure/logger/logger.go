package logger

import (
	"os"
	"strings"

	"firestrike/internal/config"

	log "github.com/sirupsen/logrus"
)

// Init 按配置设置全局 logrus 的级别和输出格式
func Init(cfg config.LogConfig) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("日志级别无效，使用 info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
