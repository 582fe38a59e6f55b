package web

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	dbt "wallet/db/db"
	applog "wallet/logger"
)

type ginContextKey string

const GinContextKeyValue ginContextKey = "GinContextKey"

func CorsConfig() cors.Config {
	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConf.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	corsConf.AllowCredentials = true
	corsConf.MaxAge = 1 * 3600 // 1 hours
	return corsConf
}

func limiterMiddleWare() gin.HandlerFunc {
	rate := limiter.Rate{
		Period: 1 * time.Hour,
		Limit:  1000, // 1000 requests per hour,
	}
	store := memory.NewStore()
	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance)
}

func GinContextToContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), GinContextKeyValue, c)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func GinContextFromContext(ctx context.Context) (*gin.Context, error) {
	ginContext := ctx.Value(GinContextKeyValue)
	if ginContext == nil {
		return nil, fmt.Errorf("could not retrieve gin.Context")
	}
	gc, ok := ginContext.(*gin.Context)
	if !ok {
		return nil, fmt.Errorf("gin.Context has wrong type")
	}
	return gc, nil
}

// SnapshotDataLoaderInjectionMiddleware gives every request its own loader
// so batching never leaks results across requests.
func SnapshotDataLoaderInjectionMiddleware(wrapper dbt.SnapshotDBWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(dbt.DataLoaderKeySnapshot), dbt.NewSnapshotDataLoader(wrapper))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := applog.Web.Info()
		switch {
		case status >= 500:
			event = applog.Web.Error()
		case status >= 400:
			event = applog.Web.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("request")
	}
}

func setupMiddlewares(r *gin.Engine, cfg ServiceConfig) {
	r.Use(limiterMiddleWare())
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(CorsConfig()))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`.*/stream$`})))
	r.Use(secure.New(secure.Config{
		STSSeconds:           31536000, // 1 year
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		IsDevelopment:        cfg.IsDev,
	}))
	r.Use(GinContextToContextMiddleware())
	if cfg.SnapshotDB != nil {
		r.Use(SnapshotDataLoaderInjectionMiddleware(cfg.SnapshotDB))
	}
}
