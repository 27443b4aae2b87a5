package middleware

import (
	"net/http"
	"slices"

	"pos-backend/internal/config"

	"github.com/rs/cors"
)

// The API only serves reads and POST actions. Statement downloads name
// their file in Content-Disposition, so browsers must be allowed to see it.
var (
	apiMethods       = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	apiHeaders       = []string{"Authorization", "Content-Type"}
	apiExposed       = []string{"Content-Disposition", "Content-Length"}
	apiPreflightSecs = 600
)

// NewCORS builds the browser policy for the till and back-office frontends.
// Credentials are only allowed for an explicit origin list.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.New(corsOptions(cfg)).Handler
}

func corsOptions(cfg *config.Config) cors.Options {
	origins := cfg.Server.CorsAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.Server.CorsAllowedMethods
	if len(methods) == 0 {
		methods = apiMethods
	}
	headers := cfg.Server.CorsAllowedHeaders
	if len(headers) == 0 {
		headers = apiHeaders
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		ExposedHeaders:   apiExposed,
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           apiPreflightSecs,
	}
}
