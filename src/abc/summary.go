package abc

import (
	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/utils"
)

// Summarize groups classified records by class and aggregates item count,
// total amount, mean amount and the class's share of the grand total.
// Classes with zero members are omitted rather than reported as a zero row,
// so the result may hold fewer than three entries.
func Summarize(records []models.Record, grandTotal float64) []models.ClassSummary {
	type bucket struct {
		count int
		total float64
	}
	buckets := make(map[models.Class]*bucket, 3)

	for _, r := range records {
		b, ok := buckets[r.Class]
		if !ok {
			b = &bucket{}
			buckets[r.Class] = b
		}
		b.count++
		b.total += r.Amount
	}

	var summary []models.ClassSummary
	for _, class := range []models.Class{models.ClassA, models.ClassB, models.ClassC} {
		b, ok := buckets[class]
		if !ok {
			continue
		}
		summary = append(summary, models.ClassSummary{
			Class:       class,
			ItemCount:   b.count,
			TotalAmount: utils.RoundFloat(b.total, 2),
			MeanAmount:  utils.RoundFloat(b.total/float64(b.count), 2),
			PctOfTotal:  utils.RoundFloat(b.total/grandTotal*100, 2),
		})
	}
	return summary
}
