package main

import (
	"github.com/panot-hq/edge-backend/internal/server"
	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Level:  util.GetEnv("LOG_LEVEL"),
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	server.Init()
}
