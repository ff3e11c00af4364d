// Package health reports the sweep pipeline's operational state over HTTP.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ChainHealth contains health metrics for one watched chain.
type ChainHealth struct {
	ChainID           string       `json:"chain_id"`
	Status            SystemStatus `json:"status"`
	SweepAgeSeconds   float64      `json:"sweep_age_seconds"`
	WatchedAddresses  int          `json:"watched_addresses"`
	PendingDeposits   int          `json:"pending_deposits"`
	BudgetUsed        int          `json:"budget_used"`
	ExplorerErrorRate float64      `json:"explorer_error_rate"`
	ExplorerAvailable bool         `json:"explorer_available"`
}

// HealthReport is the full pipeline health report. SystemStatus is the worst
// status across chains.
type HealthReport struct {
	SystemStatus SystemStatus           `json:"system_status"`
	Chains       map[string]ChainHealth `json:"chains"`
}
