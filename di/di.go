// Package di registers the service's providers on a samber/do injector.
// Providers are lazy: a component is built the first time it is invoked
// and shut down in reverse dependency order by the root scope.
package di

import "github.com/samber/do/v2"

type Injector = do.Injector

type RootScope = do.RootScope

// New creates an empty root injector
var New = do.New

// Register wires every provider in dependency order
func Register(injector do.Injector, opts ConfigOptions) {
	// Layer 0: config
	do.Provide(injector, ProvideConfigLoader(opts))

	// Layer 1: logger and telemetry
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideCtxLogger("yogan"))
	do.Provide(injector, ProvideTelemetryManager)

	// Layer 2: infrastructure
	do.Provide(injector, ProvideDatabaseManager)
	do.Provide(injector, ProvideRedisManager)
	do.Provide(injector, ProvideRevocationStore)
	do.Provide(injector, ProvideAuditEmitter)

	// Layer 3: auth core
	do.Provide(injector, ProvideTokenCodec)
	do.Provide(injector, ProvidePasswordService)
	do.Provide(injector, ProvideUserDirectory)
	do.Provide(injector, ProvideSessionManager)

	// Layer 4: HTTP support
	do.Provide(injector, ProvideHealthAggregator)
	do.Provide(injector, ProvideHTTPMetrics)
}
