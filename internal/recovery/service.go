package recovery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/recovery/domain"
	recoveryrepo "netnest/backend/internal/recovery/repository"
)

// ErrInvalidCode is returned for input that is malformed after normalization.
// It is rejected before any store lookup.
var ErrInvalidCode = errors.New("invalid recovery code")

// ErrCodeNotAccepted is returned when no unused code matched. It deliberately
// does not distinguish a wrong code from an already-used one.
var ErrCodeNotAccepted = errors.New("recovery code not accepted")

// Recorder is the subset of the activity logger the service needs.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any)
}

// Service generates and consumes recovery codes for a principal.
type Service struct {
	repo     recoveryrepo.Repository
	activity Recorder
}

// NewService returns a recovery code service. activity may be nil.
func NewService(repo recoveryrepo.Repository, activity Recorder) *Service {
	return &Service{repo: repo, activity: activity}
}

// Generate replaces the user's recovery codes with a fresh batch of ten and
// returns the plaintext codes in display form. Prior codes, used or not, are
// deleted first so they can never be accepted again.
func (s *Service) Generate(ctx context.Context, userID string) ([]string, error) {
	codes, err := GenerateBatch()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rows := make([]*domain.RecoveryCode, len(codes))
	for i, c := range codes {
		rows[i] = &domain.RecoveryCode{
			ID:        uuid.New().String(),
			UserID:    userID,
			CodeHash:  Hash(c),
			Used:      false,
			CreatedAt: now,
		}
	}
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.Record(ctx, userID, activitydomain.EventTwoFactorEnabled, "Generated new recovery codes", nil)
	}
	return codes, nil
}

// Remaining returns the number of unused codes left for the user.
func (s *Service) Remaining(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnused(ctx, userID)
}

// Consume validates and spends one recovery code. The input is normalized
// before hashing; malformed input fails with ErrInvalidCode before any store
// access. A code that does not match an unused row fails with
// ErrCodeNotAccepted regardless of whether it was wrong or already spent.
// On success the "2fa_recovery_used" event is recorded.
func (s *Service) Consume(ctx context.Context, userID, code string) error {
	normalized := Normalize(code)
	if !NormalizedValid(normalized) {
		return ErrInvalidCode
	}
	ok, err := s.repo.Consume(ctx, userID, Hash(normalized))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeNotAccepted
	}
	if s.activity != nil {
		s.activity.Record(ctx, userID, activitydomain.EventRecoveryCodeUsed, "Logged in with a recovery code", nil)
	}
	return nil
}
