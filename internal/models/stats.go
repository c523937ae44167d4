package models

// RankingEntry is one row in the daily dispatch ranking. Drivers with zero
// qualifying records never appear.
type RankingEntry struct {
	DriverID   string `json:"driver_id"`
	Name       string `json:"name"`
	Dispatches int    `json:"dispatches"`
}

// QueueSnapshot summarizes the live queue for dashboard polling
type QueueSnapshot struct {
	Pending    int `json:"pending"`
	Queued     int `json:"queued"`
	Dispatched int `json:"dispatched"`
}
