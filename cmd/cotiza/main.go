package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/polizaflow/cotiza/internal/catalog"
	"github.com/polizaflow/cotiza/internal/clock"
	"github.com/polizaflow/cotiza/internal/config"
	"github.com/polizaflow/cotiza/internal/folio"
	"github.com/polizaflow/cotiza/internal/logger"
	"github.com/polizaflow/cotiza/internal/migration"
	"github.com/polizaflow/cotiza/internal/quote"
	"github.com/polizaflow/cotiza/internal/server"
	"github.com/polizaflow/cotiza/internal/tariff"
	"github.com/polizaflow/cotiza/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		catalog.Module,
		tariff.Module,
		folio.Module,
		quote.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
