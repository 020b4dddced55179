// Package logger builds *slog.Logger instances with functional options and
// provides attribute constructors so that keys stay consistent across the
// entitlement service, the invoice service and the HTTP API.
//
// New wraps the text or JSON handler in LogHandlerDecorator, which adds
// attributes taken from the context on every record. The HTTP layer uses it
// to attach the chi request ID:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "entitlementd"),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	log.InfoContext(ctx, "subscription tier changed",
//		logger.UserID(userID),
//		logger.Tier(entitlement.TierPremium),
//	)
//
// Error and UserID return an empty attribute for nil input, so callers can
// pass them unconditionally.
package logger
