package router

import (
	app "github.com/oksasatya/videotube/internal/application"
	"github.com/oksasatya/videotube/internal/container"
	pginfra "github.com/oksasatya/videotube/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/videotube/internal/interface/http"
	"github.com/oksasatya/videotube/internal/router/modules"
	"github.com/oksasatya/videotube/pkg/helpers"
)

const uploadPrefix = "videotube"

type ModuleDeps struct {
	Accounts *app.Service
	Profiles *app.ProfileService
	Search   *app.ChannelSearch
	Users    *handlers.UserHandler
	Channels *handlers.ChannelHandler
}

func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	subs := pginfra.NewSubscriptionRepository(pool)
	videos := pginfra.NewVideoRepository(pool)

	search := app.NewChannelSearch(container.GetES(), cfg.ESChannelsIndex, logger)

	accounts := app.NewService(
		users,
		videos,
		container.GetJWT(),
		helpers.NewGCSUploader(container.GetGCS(), cfg.GCSBucket, uploadPrefix),
		logger,
	)
	accounts.AppName = cfg.AppName
	accounts.BcryptCost = cfg.BcryptCost
	accounts.Index = search
	if pub := container.GetRabbitPub(); pub != nil {
		accounts.Emails = pub
	}

	profiles := app.NewProfileService(users, subs, videos, logger)

	return ModuleDeps{
		Accounts: accounts,
		Profiles: profiles,
		Search:   search,
		Users:    handlers.NewUserHandler(accounts, logger, cfg.CookieDomain, cfg.CookieSecure, cfg.UploadTmpDir),
		Channels: handlers.NewChannelHandler(profiles, search, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()
	rdb := container.GetRedis()

	r.Add(modules.NewAuthModule(deps.Users, rdb))
	r.Add(modules.NewUserModule(deps.Users, jwt, deps.Accounts, rdb))
	r.Add(modules.NewChannelModule(deps.Channels, jwt, deps.Accounts, rdb))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
