package service

import (
	"database/sql"
	"sort"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
)

type DayNutrition struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

type ExerciseVolume struct {
	ExerciseID string  `json:"exercise_id"`
	Sets       int     `json:"sets"`
	Reps       int     `json:"reps"`
	VolumeKg   float64 `json:"volume_kg"`
}

type AnalyticsReport struct {
	FromDate              string           `json:"from_date"`
	ToDate                string           `json:"to_date"`
	TotalCalories         float64          `json:"total_calories"`
	TotalProtein          float64          `json:"total_protein"`
	DaysWithEntries       int              `json:"days_with_entries"`
	AverageCaloriesPerDay float64          `json:"avg_calories_per_day"`
	AverageProteinPerDay  float64          `json:"avg_protein_per_day"`
	HighestDay            *DayNutrition    `json:"highest_day,omitempty"`
	LowestDay             *DayNutrition    `json:"lowest_day,omitempty"`
	Workouts              int              `json:"workouts"`
	TotalVolumeKg         float64          `json:"total_volume_kg"`
	ByExercise            []ExerciseVolume `json:"by_exercise"`
	Days                  []DayNutrition   `json:"days"`
}

// AnalyticsRange totals nutrition per stored day and training volume per
// exercise between from and to inclusive. Days with no linked meals do not
// count towards the averages.
func AnalyticsRange(db *sql.DB, userID string, from, to time.Time) (*AnalyticsReport, error) {
	days, err := ListDays(db, userID, from, to)
	if err != nil {
		return nil, err
	}
	report := &AnalyticsReport{
		FromDate:   startOfUTCDay(from).Format("2006-01-02"),
		ToDate:     startOfUTCDay(to).Format("2006-01-02"),
		ByExercise: []ExerciseVolume{},
		Days:       []DayNutrition{},
	}

	for _, d := range days {
		summary, err := DaySummary(db, userID, d.Date())
		if err != nil {
			return nil, err
		}
		if len(summary.Meals) == 0 && len(summary.FakeMeals) == 0 {
			continue
		}
		report.Days = append(report.Days, DayNutrition{Date: summary.Date, Calories: summary.Calories, Protein: summary.Protein})
		report.TotalCalories += summary.Calories
		report.TotalProtein += summary.Protein
	}
	report.DaysWithEntries = len(report.Days)
	if report.DaysWithEntries > 0 {
		div := float64(report.DaysWithEntries)
		report.AverageCaloriesPerDay = report.TotalCalories / div
		report.AverageProteinPerDay = report.TotalProtein / div
		report.HighestDay, report.LowestDay = extremeDays(report.Days)
	}

	workouts, err := ListWorkouts(db, userID, ListWorkoutsFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	report.Workouts = len(workouts)
	report.ByExercise = exerciseVolumes(workouts)
	for _, w := range workouts {
		report.TotalVolumeKg += w.TotalVolume()
	}
	return report, nil
}

func exerciseVolumes(workouts []*domain.Workout) []ExerciseVolume {
	byID := map[string]*ExerciseVolume{}
	for _, w := range workouts {
		for _, l := range w.Lines() {
			v, ok := byID[l.ExerciseID()]
			if !ok {
				v = &ExerciseVolume{ExerciseID: l.ExerciseID()}
				byID[l.ExerciseID()] = v
			}
			v.Sets++
			v.Reps += l.Reps()
			v.VolumeKg += l.Volume()
		}
	}
	out := make([]ExerciseVolume, 0, len(byID))
	for _, v := range byID {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeKg != out[j].VolumeKg {
			return out[i].VolumeKg > out[j].VolumeKg
		}
		return out[i].ExerciseID < out[j].ExerciseID
	})
	return out
}

func extremeDays(days []DayNutrition) (*DayNutrition, *DayNutrition) {
	if len(days) == 0 {
		return nil, nil
	}
	copied := make([]DayNutrition, len(days))
	copy(copied, days)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Calories < copied[j].Calories
	})
	low := copied[0]
	high := copied[len(copied)-1]
	return &high, &low
}
