package main

import (
	"fmt"

	"chartabot/internal/analytics"
	"chartabot/internal/model"
)

func printStats(events []model.PipelineEvent) {
	if len(events) == 0 {
		fmt.Println("no outcomes in window")
		return
	}
	buckets := analytics.HourlyOutcomes(events)
	for _, k := range analytics.SortedBucketKeys(buckets) {
		b := buckets[k]
		fmt.Printf("%s  replies=%d user_errors=%d silent_failures=%d\n",
			k.Format("2006-01-02 15:00"), b["reply"], b["user_error"], b["silent_failure"])
	}
}
