//go:build wireinject

package main

import (
	"github.com/google/wire"

	"leadchat-server/services/routing-api/internal/domain"
	"leadchat-server/services/routing-api/internal/infrastructure"
	"leadchat-server/services/routing-api/internal/interfaces"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}

func CreateDataInitializer() (*DataInitializer, error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		wire.Struct(new(DataInitializer), "*"),
	)
	return nil, nil
}
