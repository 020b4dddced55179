// Package requestid correlates log records belonging to one HTTP request.
//
// Middleware attaches an ID to every request, reusing the client's
// X-Request-ID header when it is well formed. LoggerExtractor plugs the ID
// into the logger package so every record logged with the request context
// carries a request_id attribute:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
