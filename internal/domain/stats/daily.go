package stats

import (
	"cmp"
	"slices"

	"github.com/burenotti/wearable_backend/internal/domain/activity"
)

const dateLayout = "2006-01-02"

type DailyBucket struct {
	Date            string
	Distance        float64
	Calories        float64
	Duration        int
	ActivitiesCount int
}

// DailySeries groups activities by the UTC calendar day of their start time.
// Days without activities are omitted, and the result is ordered by date.
func DailySeries(activities []*activity.Activity) []DailyBucket {
	buckets := make(map[string]*DailyBucket)
	for _, a := range activities {
		date := a.StartTime.UTC().Format(dateLayout)
		b, ok := buckets[date]
		if !ok {
			b = &DailyBucket{Date: date}
			buckets[date] = b
		}
		b.Distance += valueOr(a.Distance)
		b.Calories += valueOr(a.Calories)
		b.Duration += valueOr(a.Duration)
		b.ActivitiesCount++
	}

	series := make([]DailyBucket, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, *b)
	}
	slices.SortFunc(series, func(a, b DailyBucket) int {
		// ISO dates sort lexicographically.
		return cmp.Compare(a.Date, b.Date)
	})
	return series
}
