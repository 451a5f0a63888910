package taskname

const (
	// Reward tasks
	RewardExpire = "incentive:reward:expire"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
