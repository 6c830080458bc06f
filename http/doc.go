// Package http exposes the pitfall service over HTTP using chi.
//
// # Routes
//
//	POST /login       JSON or form body {username, password}
//	GET  /file        ?name=<file in the uploads directory>
//	GET  /duplicates  duplicate values of a fresh random sequence
//	POST /monitor     {interval} in milliseconds, starts a background task
//	POST /increment   one serialized counter cycle
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus text format, only when HandlerConfig.Metrics is set
//
// Errors are JSON bodies of the form {"error": code, "message": text}. The
// message is fixed per code; internal details are logged, never returned.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    RateLimit: 20,
//	    RateBurst: 40,
//	    Metrics:   http.NewMetrics(service),
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	srv := &nethttp.Server{Addr: ":3000", Handler: handler.Router()}
//
// # Middleware
//
// Every route runs behind chi's RequestID and Recoverer and RequestLogger.
// The five service routes are additionally wrapped by RateLimitMiddleware,
// which keeps one golang.org/x/time/rate limiter per client IP. CORS is
// applied when HandlerConfig.CORS.Enabled is set.
package http
