package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/apps/schema"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/discovery"
	"go-storefront/pkg/events"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/ratelimit"
	"go-storefront/pkg/search"
	"go-storefront/pkg/tracer"

	"github.com/gin-gonic/gin"
)

func main() {
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(c.Service.Mode)

	// 1. 初始化 Tracer
	shutdownTracer, err := tracer.InitTracer(c.Service.Name, c.Tracer)
	if err != nil {
		log.Fatalf("初始化 Tracer 失败: %v", err)
	}

	// 2. 数据库 + 迁移
	db, err := database.Open(c.Database)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	if err := schema.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	rdb, err := database.InitRedis(c.Redis)
	if err != nil {
		log.Fatalf("连接 Redis 失败: %v", err)
	}

	// 3. 限流
	if c.Sentinel.Enabled {
		err := ratelimit.Init(
			ratelimit.Rule{Resource: ratelimit.ResOrderCreate, QPS: c.Sentinel.OrderQPS},
			ratelimit.Rule{Resource: ratelimit.ResRegister, QPS: c.Sentinel.RegisterQPS},
		)
		if err != nil {
			log.Fatalf("初始化 Sentinel 失败: %v", err)
		}
	}

	// 4. 事件
	pub, err := events.New(c.Events)
	if err != nil {
		log.Fatalf("初始化事件发布失败: %v", err)
	}

	d := deps{
		service:   c.Service.Name,
		db:        db,
		rdb:       rdb,
		tokens:    jwt.NewManager(c.Jwt.Secret, time.Duration(c.Jwt.TTLHours)*time.Hour),
		events:    pub,
		media:     c.Media,
		rateLimit: c.Sentinel.Enabled,
	}
	if c.Jwt.Secret == "" {
		log.Println("[Gateway] WARN jwt.secret is empty")
	}

	// 5. 搜索 (可选)
	var es *search.Elastic
	if c.Elastic.Enabled {
		es, err = search.NewElastic(c.Elastic.URL, c.Elastic.Index)
		if err != nil {
			log.Fatalf("连接 Elasticsearch 失败: %v", err)
		}
		if err := es.EnsureIndex(context.Background()); err != nil {
			log.Fatalf("创建索引失败: %v", err)
		}
		d.index = es
	}

	svc := newServices(d)
	if es != nil {
		n, err := svc.catalog.ReindexAll(context.Background())
		if err != nil {
			log.Printf("[Gateway] reindex failed: %v", err)
		} else {
			log.Printf("[Gateway] indexed %d products", n)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Service.Port),
		Handler: newRouter(d, svc),
	}
	go func() {
		log.Printf("Gateway running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("运行失败: %v", err)
		}
	}()

	// 6. 注册到 Consul
	var reg *discovery.Registration
	if c.Consul.Enabled {
		reg, err = discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address, "/healthz")
		if err != nil {
			log.Printf("[Gateway] consul registration failed: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down gateway...")

	if reg != nil {
		if err := reg.Deregister(); err != nil {
			log.Printf("[Gateway] consul deregister: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Gateway] http shutdown: %v", err)
	}
	if err := pub.Close(); err != nil {
		log.Printf("[Gateway] events close: %v", err)
	}
	_ = rdb.Close()
	if err := shutdownTracer(ctx); err != nil {
		log.Printf("[Gateway] tracer shutdown: %v", err)
	}
}
