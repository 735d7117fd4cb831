package services

import (
	"math"
	"sort"

	"github.com/periodcalm/period-calm-website-sub000/models"
)

const DefaultTopSymptoms = 5

type SymptomStat struct {
	SymptomID       string  `json:"symptomId"`
	OccurrenceCount int     `json:"occurrenceCount"`
	AverageSeverity float64 `json:"averageSeverity"`
}

type Insights struct {
	TotalEntries     int                 `json:"totalEntries"`
	PeriodDayCount   int                 `json:"periodDayCount"`
	TopSymptoms      []SymptomStat       `json:"topSymptoms"`
	AverageMoodScore float64             `json:"averageMoodScore"`
	MoodEntries      int                 `json:"moodEntries"`
	FlowDistribution map[models.Flow]int `json:"flowDistribution"`
}

// ComputeInsights makes one pass over the records. Records without a mood are
// left out of the mood average rather than counted as neutral.
func ComputeInsights(records models.RecordMap, topN int) *Insights {
	if topN <= 0 {
		topN = DefaultTopSymptoms
	}

	type acc struct{ count, severity int }
	symptoms := map[string]*acc{}
	out := &Insights{
		TopSymptoms:      []SymptomStat{},
		FlowDistribution: map[models.Flow]int{},
	}
	moodSum := 0

	for _, r := range records {
		out.TotalEntries++
		if r.IsPeriod {
			out.PeriodDayCount++
		}
		if r.Flow.Valid() {
			out.FlowDistribution[r.Flow]++
		}
		if s := r.Mood.Score(); s > 0 {
			moodSum += s
			out.MoodEntries++
		}
		for _, s := range r.Symptoms {
			if s.ID == "" {
				continue
			}
			a := symptoms[s.ID]
			if a == nil {
				a = &acc{}
				symptoms[s.ID] = a
			}
			a.count++
			a.severity += s.Severity
		}
	}

	for id, a := range symptoms {
		out.TopSymptoms = append(out.TopSymptoms, SymptomStat{
			SymptomID:       id,
			OccurrenceCount: a.count,
			AverageSeverity: avg(float64(a.severity), a.count),
		})
	}
	sort.Slice(out.TopSymptoms, func(i, j int) bool {
		a, b := out.TopSymptoms[i], out.TopSymptoms[j]
		if a.OccurrenceCount != b.OccurrenceCount {
			return a.OccurrenceCount > b.OccurrenceCount
		}
		return a.SymptomID < b.SymptomID
	})
	if len(out.TopSymptoms) > topN {
		out.TopSymptoms = out.TopSymptoms[:topN]
	}

	out.AverageMoodScore = avg(float64(moodSum), out.MoodEntries)
	return out
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
