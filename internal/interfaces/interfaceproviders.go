package interfaces

import (
	"github.com/google/wire"

	"leadchat-server/services/routing-api/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
)
