package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sorens/notary/internal/adapters/notarize"
	"github.com/sorens/notary/internal/config"
)

// SetupRouter wires the two endpoints the server exposes: a stateless
// healthcheck and the notarization upgrade endpoint.
func SetupRouter(ctx context.Context, cfg *config.Config, ctl *notarize.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "Ok")
	})

	r.Any("/notarize", func(c *gin.Context) {
		ctl.HandleNotarize(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
