package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/config"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/repository"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/seed"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机工程师, 2: 插入随机周期规则, 3: 插入固定演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Error("无法加载营业时区", "timezone", cfg.Schedule.Timezone, "error", err)
		return
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool, loc)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的工程师数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				engineer := utils.GenerateRandomEngineer(cfg.Seed.CompanyID, cfg.Seed.EmailDomain)
				if err := repo.CreateEngineer(engineer); err != nil {
					slog.Error("无法插入工程师", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入工程师成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的周期规则数量")
		} else {
			// 先取出所有工程师，规则随机挂到他们名下
			engineers, err := repo.GetAllEngineers(cfg.Seed.CompanyID)
			if err != nil {
				slog.Error("无法获取工程师列表", slog.String("error", err.Error()))
				return
			}
			if len(engineers) == 0 {
				slog.Error("还没有任何工程师，请先执行 op=1")
				return
			}

			cnt := n
			for i := 0; i < n; i++ {
				engineer := engineers[rand.Intn(len(engineers))]

				rule := utils.GenerateRandomRecurringRule(engineer)
				if err := repo.CreateRecurringSchedule(rule); err != nil {
					slog.Error("无法插入周期规则", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入周期规则成功", slog.Int("count", n-cnt))
		}
	case 3:
		seed.SeedDemoData(repo, cfg.Seed.CompanyID)
	default:
		slog.Error("指定的操作非法")
	}
}
