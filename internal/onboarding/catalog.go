package onboarding

import "slices"

var ReferralSources = []string{
	"google", "tiktok", "instagram", "friend", "tv", "x", "appstore", "facebook", "youtube", "other",
}

var DietTypes = []string{"classic", "pescatarian", "vegetarian", "vegan"}

// WeeklyRates are the kg/week paces offered on the weekly-rate screen.
var WeeklyRates = []float64{0.25, 0.5, 0.75}

var Barriers = []string{
	"Lack of consistency",
	"Unhealthy eating habits",
	"Lack of support",
	"Busy schedule",
	"Lack of meal inspiration",
}

var Desires = []string{
	"Eat and live healthier",
	"Boost my energy and mood",
	"Stay motivated and consistent",
	"Feel better about my body",
}

func inCatalog(catalog []string, v string) bool { return slices.Contains(catalog, v) }
