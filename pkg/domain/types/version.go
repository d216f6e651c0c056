package types

// Version is the application version, overwritten at build time via -ldflags
var Version = "dev"

// ServiceName is reported by the health endpoint and used as user agent suffix
const ServiceName = "drover"
