package issue

import (
	"github.com/jonasacres/badgefile-sub000/internal/issue/checks"
	"github.com/jonasacres/badgefile-sub000/internal/issue/repository"
	"github.com/jonasacres/badgefile-sub000/internal/issue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("issue.service",
	fx.Provide(checks.Registry),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
