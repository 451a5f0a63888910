package expiry

import "time"

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

// Job is the execution record of one expiry sweep.
type Job struct {
	ID          string     `gorm:"column:id;primaryKey"`
	TaskName    string     `gorm:"column:task_name;index;type:varchar(100);not null"`
	Status      JobStatus  `gorm:"column:status;type:varchar(20);default:'pending'"`
	Expired     int64      `gorm:"column:expired"`
	ErrorMsg    string     `gorm:"column:error_msg;type:text"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime:false"`
}

func (Job) TableName() string { return "expiry_jobs" }

type payload struct {
	JobID string `json:"job_id"`
}
