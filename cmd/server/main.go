package main

import (
	"go.uber.org/fx"

	"github.com/authgate/authgate/internal/components/auth"
	"github.com/authgate/authgate/internal/server"
	"github.com/authgate/authgate/internal/shared/config"
	"github.com/authgate/authgate/internal/shared/database"
	"github.com/authgate/authgate/internal/shared/logging"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			database.NewMongoDatabase,
			server.NewServer,
			server.NewHealthSrvc,
			server.NewHealthHandler,
			fx.Annotate(auth.NewBcryptHasher, fx.As(new(auth.PasswordHasher))),
			auth.NewUserRepo,
			auth.NewSessionRepo,
			auth.NewService,
			fx.Annotate(auth.NewRouter, fx.ResultTags(`name:"authRouter"`)),
		),
		fx.Invoke(server.Register),
	).Run()
}
