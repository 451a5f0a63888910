package rediskey

import "fmt"

// Incentive keys (global convention across services)
const (
	IncentivePrefix = "incentive"
	StatsPrefix     = "incentive:stats"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildStatsKey returns "incentive:stats:{deployment}"
func BuildStatsKey(deployment string) string {
	if deployment == "" {
		deployment = "default"
	}
	return NamespaceKey(StatsPrefix, deployment)
}
