package rpc

import (
	"log/slog"

	middleware "github.com/vmkteam/zenrpc-middleware"
	"github.com/vmkteam/zenrpc/v2"

	"github.com/avolkov/blog-portal/internal/blogportal"
)

func New(logger *slog.Logger, manager *blogportal.Manager) *zenrpc.Server {
	rpcService := NewPostService(manager)
	rpcServer := zenrpc.NewServer(zenrpc.Options{ExposeSMD: true})
	rpcServer.Register("post", rpcService)
	rpcServer.Use(middleware.WithSLog(logger.InfoContext, "blog-portal", nil))

	return rpcServer
}
