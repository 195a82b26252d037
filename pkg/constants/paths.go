package constants

// Base path and health endpoints. Domain routes hang off PathAPIBase in the router.
const (
	PathAPIBase = "/apiv2"
	PathHealth  = "/health"
	PathReady   = "/ready"
)
