package services

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"
)

// ErrInsufficientData means the records hold fewer than two period events (or
// no plausible gap between them), so no prediction is made.
var ErrInsufficientData = errors.New("insufficient data for a prediction")

const (
	MinCycleLengthDays = 21
	MaxCycleLengthDays = 35

	lutealPhaseDays    = 14
	fertileLeadDays    = 5
	fertileTrailDays   = 1
	pmsLeadDays        = 7
	periodLookaheadCap = 10
	minConfidence      = 0.5
)

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Prediction struct {
	NextPeriodDate          string    `json:"nextPeriodDate"`
	OvulationDate           string    `json:"ovulationDate"`
	FertileWindow           DateRange `json:"fertileWindow"`
	AverageCycleLengthDays  int       `json:"averageCycleLengthDays"`
	AveragePeriodLengthDays int       `json:"averagePeriodLengthDays"`
	PMSStartDate            string    `json:"pmsStartDate"`
	Confidence              float64   `json:"confidence"`

	LastPeriodStart string `json:"lastPeriodStart"`
	CyclesCounted   int    `json:"cyclesCounted"`
	GapsDiscarded   int    `json:"gapsDiscarded"`
}

// PredictCycle derives the next period, ovulation and fertile window from the
// owner's history. Gaps outside MinCycleLengthDays..MaxCycleLengthDays are
// treated as logging errors and dropped.
func PredictCycle(records models.RecordMap) (*Prediction, error) {
	starts := periodEventStarts(records)
	if len(starts) < 2 {
		return nil, ErrInsufficientData
	}

	var gaps []int
	discarded := 0
	for i := 1; i < len(starts); i++ {
		g := daysBetween(starts[i-1], starts[i])
		if g < MinCycleLengthDays || g > MaxCycleLengthDays {
			discarded++
			continue
		}
		gaps = append(gaps, g)
	}
	if len(gaps) == 0 {
		return nil, ErrInsufficientData
	}

	sum, lo, hi := 0, gaps[0], gaps[0]
	for _, g := range gaps {
		sum += g
		lo = min(lo, g)
		hi = max(hi, g)
	}
	avgCycle := int(math.Round(float64(sum) / float64(len(gaps))))

	last := starts[len(starts)-1]
	next := last.AddDate(0, 0, avgCycle)
	ovulation := next.AddDate(0, 0, -lutealPhaseDays)

	confidence := 1 - float64(hi-lo)/float64(avgCycle)
	confidence = math.Max(minConfidence, math.Min(1, confidence))

	return &Prediction{
		NextPeriodDate: models.FormatDate(next),
		OvulationDate:  models.FormatDate(ovulation),
		FertileWindow: DateRange{
			Start: models.FormatDate(ovulation.AddDate(0, 0, -fertileLeadDays)),
			End:   models.FormatDate(ovulation.AddDate(0, 0, fertileTrailDays)),
		},
		AverageCycleLengthDays:  avgCycle,
		AveragePeriodLengthDays: averagePeriodLength(records, starts),
		PMSStartDate:            models.FormatDate(next.AddDate(0, 0, -pmsLeadDays)),
		Confidence:              round2(confidence),
		LastPeriodStart:         models.FormatDate(last),
		CyclesCounted:           len(gaps),
		GapsDiscarded:           discarded,
	}, nil
}

// periodEventStarts returns the first day of every maximal run of consecutive
// period days, ascending. Keys that do not parse are skipped.
func periodEventStarts(records models.RecordMap) []time.Time {
	var days []time.Time
	for k, r := range records {
		if !r.IsPeriod {
			continue
		}
		d, err := models.ParseDate(k)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var starts []time.Time
	for i, d := range days {
		if i > 0 && daysBetween(days[i-1], d) <= 1 {
			continue
		}
		starts = append(starts, d)
	}
	return starts
}

func averagePeriodLength(records models.RecordMap, starts []time.Time) int {
	total := 0
	for _, s := range starts {
		n := 0
		for d := s; n < periodLookaheadCap; d = d.AddDate(0, 0, 1) {
			if !records[models.FormatDate(d)].IsPeriod {
				break
			}
			n++
		}
		total += n
	}
	return int(math.Round(float64(total) / float64(len(starts))))
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseFertile    Phase = "fertile"
	PhaseOvulation  Phase = "ovulation"
	PhaseLuteal     Phase = "luteal"
	PhasePMS        Phase = "pms"
	PhaseOverdue    Phase = "overdue"
)

// PhaseOn places day within the predicted cycle.
func (p *Prediction) PhaseOn(day time.Time) Phase {
	day = models.CalendarDay(day)
	at := func(s string) time.Time {
		t, _ := models.ParseDate(s)
		return t
	}
	last, next, ov := at(p.LastPeriodStart), at(p.NextPeriodDate), at(p.OvulationDate)
	fStart, fEnd, pms := at(p.FertileWindow.Start), at(p.FertileWindow.End), at(p.PMSStartDate)

	switch {
	case !day.Before(next):
		return PhaseOverdue
	case !day.Before(last) && day.Before(last.AddDate(0, 0, max(1, p.AveragePeriodLengthDays))):
		return PhaseMenstrual
	case day.Equal(ov):
		return PhaseOvulation
	case !day.Before(fStart) && !day.After(fEnd):
		return PhaseFertile
	case !day.Before(pms):
		return PhasePMS
	case day.After(fEnd):
		return PhaseLuteal
	}
	return PhaseFollicular
}

// DaysUntilNextPeriod is negative once the predicted date has passed.
func (p *Prediction) DaysUntilNextPeriod(day time.Time) int {
	next, err := models.ParseDate(p.NextPeriodDate)
	if err != nil {
		return 0
	}
	return daysBetween(models.CalendarDay(day), next)
}
