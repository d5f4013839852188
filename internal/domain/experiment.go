package domain

import "time"

type Experiment struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}
