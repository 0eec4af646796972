package memory

import (
	"github.com/fitmind/assistant/internal/models"
)

// Apply folds a delta into a profile in place and reports whether anything
// changed. Adding an item to one side of a facet removes it from the other
// side first, so the no-item-in-both-lists invariant holds by construction.
// Applying the same delta twice yields the same profile as applying it once.
func Apply(profile *models.UserProfile, delta Delta) bool {
	changed := false

	for _, item := range delta.LikedFoods {
		if moveInto(&profile.LikedFoods, &profile.DislikedFoods, item) {
			changed = true
		}
	}
	for _, item := range delta.DislikedFoods {
		if moveInto(&profile.DislikedFoods, &profile.LikedFoods, item) {
			changed = true
		}
	}
	for _, item := range delta.LikedExercises {
		if moveInto(&profile.LikedExercises, &profile.DislikedExercises, item) {
			changed = true
		}
	}
	for _, item := range delta.DislikedExercises {
		if moveInto(&profile.DislikedExercises, &profile.LikedExercises, item) {
			changed = true
		}
	}
	for _, fact := range delta.Facts {
		if !contains(profile.Facts, fact) {
			profile.Facts = append(profile.Facts, fact)
			changed = true
		}
	}

	return changed
}

// moveInto removes item from the opposite list if present, then appends it
// to the target list if absent. Returns whether either list changed.
func moveInto(target, opposite *[]string, item string) bool {
	changed := removeItem(opposite, item)
	if !contains(*target, item) {
		*target = append(*target, item)
		changed = true
	}
	return changed
}

func removeItem(list *[]string, item string) bool {
	for i, v := range *list {
		if v == item {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
