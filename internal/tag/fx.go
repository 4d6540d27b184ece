package tag

import (
	"github.com/smallbiznis/orderdesk/internal/tag/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tag.service",
	fx.Provide(service.New),
)
