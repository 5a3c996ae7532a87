package monitor

import "time"

type Status struct {
	Driver    string    `json:"driver"`
	Database  bool      `json:"online"`
	LastCheck time.Time `json:"last_check"`
}
