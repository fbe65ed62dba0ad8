package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/handler"
	"firestrike/internal/infrastructure/cache"
	"firestrike/internal/infrastructure/database"
	"firestrike/internal/infrastructure/logger"
	"firestrike/internal/infrastructure/mq"
	"firestrike/internal/infrastructure/storage"
	"firestrike/internal/job"
	"firestrike/internal/repository"
	"firestrike/internal/service"
	"firestrike/pkg/idgen"

	log "github.com/sirupsen/logrus"
)

func configPath() string {
	if p := os.Getenv("FS_CONFIG"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func main() {
	// 加载配置
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.Init(cfg.Log)

	// 初始化 ID 生成器
	if err := idgen.Init(cfg.Server.WorkerID); err != nil {
		log.Fatalf("初始化 ID 生成器失败: %v", err)
	}

	// 数据库迁移
	if cfg.MySQL.AutoMigrate {
		if err := database.MigrateUp(&cfg.MySQL); err != nil {
			log.Fatalf("数据库迁移失败: %v", err)
		}
	}

	// 初始化 MySQL
	db, err := database.InitMySQL(&cfg.MySQL)
	if err != nil {
		log.Fatalf("连接 MySQL 失败: %v", err)
	}

	// 初始化 Redis
	redisClient, err := cache.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("连接 Redis 失败: %v", err)
	}
	defer redisClient.Close()

	// 初始化 Kafka，未启用时 outbox 只记日志
	var sender job.Sender = job.LogSender{}
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(&cfg.Kafka)
		if err != nil {
			log.Fatalf("连接 Kafka 失败: %v", err)
		}
		defer producer.Close()
		sender = producer
	}

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 对象存储，未配置 bucket 时上传接口不可用
	var store service.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewObjectStore(ctx, &cfg.Storage)
		if err != nil {
			log.Fatalf("初始化对象存储失败: %v", err)
		}
		store = s3Store
	} else {
		log.Warn("storage.bucket 未配置，上传接口不可用")
	}

	bus := events.NewBus()
	services := service.NewServices(db, redisClient, store, bus, cfg)
	unsubscribe := services.Notifications.Subscribe(bus)
	defer unsubscribe()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(repository.NewOutboxRepository(db), sender, cfg)
	go outboxSender.Start(ctx)

	lifecycleJob := job.NewTournamentLifecycleJob(services.Tournaments, cfg.Business.LifecycleInterval)
	if err := lifecycleJob.Start(ctx); err != nil {
		log.Fatalf("启动赛事开赛任务失败: %v", err)
	}

	// 设置路由
	h := handler.NewHandler(services, cfg)
	router := handler.SetupRouter(h, services.Auth, cfg)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Infof("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("服务关闭异常: %v", err)
	}

	log.Info("服务已关闭")
}
