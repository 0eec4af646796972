package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitmind/assistant/internal/models"
)

// ProfileRepository handles user profile database operations. Preference
// lists are stored as JSONB arrays.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, user_id, age, height_cm, weight_kg, gender,
	diseases, allergies, liked_foods, disliked_foods,
	liked_exercises, disliked_exercises, facts, created_at, updated_at`

// rowQueryer lets the profile read and write paths run either on the pool
// or inside a transaction.
type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetByUserID retrieves a user's profile. A user without a stored profile
// gets an empty one back rather than an error, so extraction can start
// folding facts in from the first message.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return getProfileByUserID(ctx, r.db, userID)
}

func getProfileByUserID(ctx context.Context, q rowQueryer, userID uuid.UUID) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`

	profile := &models.UserProfile{}
	var diseases, allergies, likedFoods, dislikedFoods []byte
	var likedExercises, dislikedExercises, facts []byte

	err := q.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Age,
		&profile.HeightCm,
		&profile.WeightKg,
		&profile.Gender,
		&diseases,
		&allergies,
		&likedFoods,
		&dislikedFoods,
		&likedExercises,
		&dislikedExercises,
		&facts,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return &models.UserProfile{
			ID:     uuid.New(),
			UserID: userID,
			Gender: models.GenderUnspecified,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	for _, col := range []struct {
		raw  []byte
		dest *[]string
	}{
		{diseases, &profile.Diseases},
		{allergies, &profile.Allergies},
		{likedFoods, &profile.LikedFoods},
		{dislikedFoods, &profile.DislikedFoods},
		{likedExercises, &profile.LikedExercises},
		{dislikedExercises, &profile.DislikedExercises},
		{facts, &profile.Facts},
	} {
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode profile list: %w", err)
		}
	}

	return profile, nil
}

// Upsert writes the profile, inserting or replacing the user's row.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	return upsertProfile(ctx, r.db, profile)
}

// Update runs a read-modify-write on the user's profile under a
// transaction-scoped advisory lock, so concurrent mutations from the server
// and the background worker cannot interleave and lose list entries. The
// mutate callback reports whether it changed the profile; unchanged profiles
// are not rewritten.
func (r *ProfileRepository) Update(ctx context.Context, userID uuid.UUID, mutate func(*models.UserProfile) (bool, error)) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userLockKey(userID)); err != nil {
		return false, fmt.Errorf("failed to acquire profile lock: %w", err)
	}

	profile, err := getProfileByUserID(ctx, tx, userID)
	if err != nil {
		return false, err
	}

	changed, err := mutate(profile)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := upsertProfile(ctx, tx, profile); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit profile update: %w", err)
	}
	return true, nil
}

func upsertProfile(ctx context.Context, q rowQueryer, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg,
			gender = EXCLUDED.gender,
			diseases = EXCLUDED.diseases,
			allergies = EXCLUDED.allergies,
			liked_foods = EXCLUDED.liked_foods,
			disliked_foods = EXCLUDED.disliked_foods,
			liked_exercises = EXCLUDED.liked_exercises,
			disliked_exercises = EXCLUDED.disliked_exercises,
			facts = EXCLUDED.facts,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.Gender == "" {
		profile.Gender = models.GenderUnspecified
	}

	lists := make([][]byte, 0, 7)
	for _, list := range [][]string{
		profile.Diseases,
		profile.Allergies,
		profile.LikedFoods,
		profile.DislikedFoods,
		profile.LikedExercises,
		profile.DislikedExercises,
		profile.Facts,
	} {
		if list == nil {
			list = []string{}
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("failed to encode profile list: %w", err)
		}
		lists = append(lists, raw)
	}

	now := time.Now()
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	err := q.QueryRowContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Age,
		profile.HeightCm,
		profile.WeightKg,
		profile.Gender,
		lists[0], lists[1], lists[2], lists[3], lists[4], lists[5], lists[6],
		createdAt,
		now,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}
