package attendee

import (
	"github.com/jonasacres/badgefile-sub000/internal/attendee/repository"
	"github.com/jonasacres/badgefile-sub000/internal/attendee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("badgefile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
