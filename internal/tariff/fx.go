package tariff

import (
	"github.com/polizaflow/cotiza/internal/tariff/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff",
	fx.Provide(repository.Provide),
)
