package sanmateo

import (
	"slices"

	"github.com/antzucaro/matchr"
)

// DeathKeyPrefix turns an age group key into the matching death count key.
const DeathKeyPrefix = "Death_"

var ageGroupKeys = []string{
	"Age_LT20",
	"Age_20_29",
	"Age_30_39",
	"Age_40_49",
	"Age_50_59",
	"Age_60_69",
	"Age_70_79",
	"Age_80_89",
	"Age_90_Up",
}

// the titles the dashboard shows for each key, in the same order
var ageGroupLabels = []string{
	"0 to 19",
	"20-29",
	"30-39",
	"40-49",
	"50-59",
	"60-69",
	"70-79",
	"80-89",
	"90+",
}

func AgeGroupKeys() []string {
	return slices.Clone(ageGroupKeys)
}

func AgeGroupLabels() []string {
	return slices.Clone(ageGroupLabels)
}

// ClosestLabel finds the expected age group label most similar to an
// observed one. it only ever informs error messages, never matching.
func ClosestLabel(observed string) (label string, similarity float64) {
	for _, l := range ageGroupLabels {
		sim := matchr.JaroWinkler(observed, l, false)
		if sim > similarity {
			label = l
			similarity = sim
		}
	}
	return label, similarity
}
