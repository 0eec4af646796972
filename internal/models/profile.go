package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender is a user's self-reported gender
type Gender string

const (
	// GenderFemale is the female gender value
	GenderFemale Gender = "female"
	// GenderMale is the male gender value
	GenderMale Gender = "male"
	// GenderUnspecified is used when the user has not provided a gender
	GenderUnspecified Gender = "unspecified"
)

// PreferenceFacet identifies which preference list a fact belongs to
type PreferenceFacet string

const (
	// FacetFood covers food and taste preferences
	FacetFood PreferenceFacet = "food"
	// FacetExercise covers exercise and activity preferences
	FacetExercise PreferenceFacet = "exercise"
)

// UserProfile holds a user's biometric facts, health facts, and the four
// preference lists maintained by memory extraction.
//
// Invariant: an item never appears in both the liked and disliked list of the
// same facet. Mutation goes through memory.Apply, which moves items between
// lists rather than blindly appending.
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Age       *int      `json:"age,omitempty"`
	HeightCm  *float64  `json:"height_cm,omitempty"`
	WeightKg  *float64  `json:"weight_kg,omitempty"`
	Gender    Gender    `json:"gender"`
	Diseases  []string  `json:"diseases,omitempty"`
	Allergies []string  `json:"allergies,omitempty"`

	LikedFoods        []string `json:"liked_foods,omitempty"`
	DislikedFoods     []string `json:"disliked_foods,omitempty"`
	LikedExercises    []string `json:"liked_exercises,omitempty"`
	DislikedExercises []string `json:"disliked_exercises,omitempty"`

	// Facts holds free-text preference facts extracted from conversation
	// that do not fit a structured list.
	Facts []string `json:"facts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BMI returns the body mass index computed from height and weight, rounded to
// one decimal place. The second return value is false when either measurement
// is missing or non-positive.
func (p *UserProfile) BMI() (float64, bool) {
	if p.HeightCm == nil || p.WeightKg == nil {
		return 0, false
	}
	h := *p.HeightCm / 100
	if h <= 0 || *p.WeightKg <= 0 {
		return 0, false
	}
	bmi := *p.WeightKg / (h * h)
	return float64(int(bmi*10+0.5)) / 10, true
}

// Clone returns a deep copy of the profile. Repositories hand out clones so
// callers can mutate freely before writing back.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.Diseases = append([]string(nil), p.Diseases...)
	c.Allergies = append([]string(nil), p.Allergies...)
	c.LikedFoods = append([]string(nil), p.LikedFoods...)
	c.DislikedFoods = append([]string(nil), p.DislikedFoods...)
	c.LikedExercises = append([]string(nil), p.LikedExercises...)
	c.DislikedExercises = append([]string(nil), p.DislikedExercises...)
	c.Facts = append([]string(nil), p.Facts...)
	return &c
}
