package health

type healthResponse struct {
	Status    string `json:"status"`    // ok or unhealthy
	Timestamp string `json:"timestamp"` // current server time, RFC3339
	Uptime    string `json:"uptime"`    // time since process start
}
