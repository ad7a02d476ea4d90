package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shoptrack/internal/config"
	"shoptrack/internal/queue"
	"shoptrack/internal/router"
	"shoptrack/internal/service"
	"shoptrack/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	rd "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// .env 存在时加载，线上直接用环境变量。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 1. 连接 SQLite，自动建表
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := store.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// 2. Redis：会话/库存缓存、限流、出站事件流
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()

	// 3. Kafka 生产者 + Relay + 台账消费者
	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()
	outbox := queue.NewOutbox(rdb, cfg.LedgerEventStream)
	relay := queue.NewRelay(rdb, producer, cfg.LedgerEventStream, cfg.LedgerEventGroup, cfg.LedgerEventConsumer)
	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx)
	go consumer.Run(ctx)

	// 4. 服务层
	auth := service.NewAuthService(db, rdb, cfg.SessionTTL, cfg.BcryptCost)
	products := service.NewProductService(db, rdb, outbox, cfg.StockCacheTTL)
	histories := service.NewHistoryService(db)

	// 5. 过期会话定时清理（失效不删行，删行只走这里）
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.SessionSweepCron, func() {
		n, err := auth.CleanupExpiredSessions(context.Background())
		if err != nil {
			log.Printf("session sweep: %v", err)
			return
		}
		if n > 0 {
			log.Printf("session sweep: deleted %d expired sessions", n)
		}
	}); err != nil {
		log.Fatalf("session sweep cron %q: %v", cfg.SessionSweepCron, err)
	}
	sched.Start()
	defer sched.Stop()

	r := gin.Default()
	router.Setup(r, auth, products, histories, rdb, cfg)

	// Ctrl-C / SIGTERM 时先停后台协程再退出。
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http serve: %v", err)
	}
}
