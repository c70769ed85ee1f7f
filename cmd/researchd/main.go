// researchd 以 HTTP 服务形式提供投资研究工作流
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/nekouibeam/investment-agent/internal/app"
	"github.com/nekouibeam/investment-agent/internal/config"
	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/pkg/paths"
	"github.com/nekouibeam/investment-agent/internal/server"
)

var log = logger.New("researchd")

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: ./config.yaml or the user config dir)")
	flag.Parse()

	cfg, err := config.Load(paths.FindConfig(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, func(e models.ProgressEvent) {
		log.Debug("[%s] %s %s %s %s", e.RunID, e.Type, e.Stage, e.Tool, e.Elapsed)
	})
	if err != nil {
		log.Error("startup failed: %v", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.NewHandler(a.Service, a.Info), cfg.Server.CORSOrigins)
	if err := server.New(cfg.Server.Addr, router).Run(ctx); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
