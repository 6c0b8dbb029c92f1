package types

// PruneResult represents the result of a prune operation.
type PruneResult struct {
	TasksRemoved         int `json:"tasksRemoved"`
	PurgeRequestsRemoved int `json:"purgeRequestsRemoved"`
}
