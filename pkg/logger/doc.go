// Package logger builds configured slog.Logger instances with automatic
// context attribute injection.
//
// The factory wraps the standard slog JSON/text handlers with a
// ContextHandler that runs registered extractors against the logging
// context, so request-scoped values such as the current tenant ID appear
// on every record without threading them through call sites:
//
//	log := logger.New(
//		logger.WithProduction("tenantd"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
package logger
