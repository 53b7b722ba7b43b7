package quote

import (
	"github.com/polizaflow/cotiza/internal/quote/repository"
	"github.com/polizaflow/cotiza/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
