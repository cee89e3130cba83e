package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lg/calorie-budget-api/internal/metabolic"
	"lg/calorie-budget-api/internal/model"
)

type estimateInput struct {
	weightKG, heightCM, rateKG, targetKG float64
	age                                  int
	sex, bucket, goal                    string
}

// newEstimateCmd prints the metrics a profile with the given biometrics would
// get, without touching any store.
func newEstimateCmd() *cobra.Command {
	var in estimateInput
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print BMR, TDEE and the daily calorie target for given biometrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			sex, bucket, goal := model.Sex(in.sex), model.ActivityBucket(in.bucket), model.Goal(in.goal)
			if !sex.Valid() {
				return fmt.Errorf("--sex must be one of: male, female, other")
			}
			if !bucket.Valid() {
				return fmt.Errorf("--workouts must be one of: 0-2, 3-5, 6+")
			}
			if !goal.Valid() {
				return fmt.Errorf("--goal must be one of: lose, maintain, gain")
			}

			bmr := metabolic.ComputeBMR(in.weightKG, in.heightCM, in.age, sex)
			tdee := metabolic.ComputeTDEE(bmr, bucket)
			target := metabolic.ComputeDailyCalorieTarget(tdee, goal, in.rateKG)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "BMR:    %d kcal\n", bmr)
			fmt.Fprintf(out, "TDEE:   %d kcal\n", tdee)
			fmt.Fprintf(out, "Target: %d kcal/day\n", target)
			if in.targetKG > 0 {
				if weeks, ok := metabolic.EstimateWeeksToGoal(in.weightKG, in.targetKG, in.rateKG); ok {
					fmt.Fprintf(out, "Weeks to %.1f kg: %d\n", in.targetKG, weeks)
				} else {
					fmt.Fprintf(out, "Weeks to %.1f kg: unreachable at this rate\n", in.targetKG)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.weightKG, "weight", 70, "Body weight in kg")
	f.Float64Var(&in.heightCM, "height", 170, "Height in cm")
	f.IntVar(&in.age, "age", 30, "Age in years")
	f.StringVar(&in.sex, "sex", "male", "male, female or other")
	f.StringVar(&in.bucket, "workouts", "3-5", "Workouts per week: 0-2, 3-5 or 6+")
	f.StringVar(&in.goal, "goal", "maintain", "lose, maintain or gain")
	f.Float64Var(&in.rateKG, "rate", 0.5, "Weekly rate of change in kg")
	f.Float64Var(&in.targetKG, "target-weight", 0, "Target weight in kg (0 skips the projection)")
	return cmd
}
