package handlers

import (
	"github.com/krishimitra/api/server"
	"go.uber.org/fx"
)

func mount(h *Handler, srv *server.Server) {
	h.Mount(srv)
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(mount),
)
