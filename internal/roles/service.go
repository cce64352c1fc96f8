// Package roles implements the flat role table backing access checks for the
// admin surface, plus role change bookkeeping for the activity log.
package roles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/roles/domain"
	rolesrepo "netnest/backend/internal/roles/repository"
)

var (
	// ErrInvalidRole is returned when the role is not in the closed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrSelfDemotion is returned when an admin tries to remove their own
	// admin role.
	ErrSelfDemotion = errors.New("admins cannot remove their own admin role")
)

// Recorder is the subset of the activity logger the service needs.
type Recorder interface {
	Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any)
}

// Service manages role assignments. Mutations are attributed to the acting
// principal in the activity log.
type Service struct {
	repo     rolesrepo.Repository
	activity Recorder
	nowF     func() time.Time
}

// NewService returns a role service. activity may be nil.
func NewService(repo rolesrepo.Repository, activity Recorder) *Service {
	return &Service{repo: repo, activity: activity, nowF: func() time.Time { return time.Now().UTC() }}
}

// HasRole reports whether the user holds the role.
func (s *Service) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	if !role.Valid() {
		return false, ErrInvalidRole
	}
	return s.repo.HasRole(ctx, userID, role)
}

// ListByUser returns the user's role assignments.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Grant gives targetID the role, attributed to actorID. Granting a role the
// user already holds is a no-op at the storage layer.
func (s *Service) Grant(ctx context.Context, actorID, targetID string, role domain.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	a := &domain.Assignment{
		ID:        uuid.New().String(),
		UserID:    targetID,
		Role:      role,
		CreatedAt: s.nowF(),
	}
	if err := s.repo.Grant(ctx, a); err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, actorID, activitydomain.EventStatusChanged,
			fmt.Sprintf("Granted role %s", role),
			map[string]any{"target_user_id": targetID, "role": string(role)})
	}
	return nil
}

// Revoke removes the role from targetID. An admin cannot revoke their own
// admin role; someone else has to do it.
func (s *Service) Revoke(ctx context.Context, actorID, targetID string, role domain.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if role == domain.RoleAdmin && actorID == targetID {
		return ErrSelfDemotion
	}
	if err := s.repo.Revoke(ctx, targetID, role); err != nil {
		return err
	}
	if s.activity != nil {
		s.activity.Record(ctx, actorID, activitydomain.EventStatusChanged,
			fmt.Sprintf("Revoked role %s", role),
			map[string]any{"target_user_id": targetID, "role": string(role)})
	}
	return nil
}

// RecordEmployeeAdded logs an employee addition attributed to actorID.
func (s *Service) RecordEmployeeAdded(ctx context.Context, actorID, employeeName string) {
	if s.activity != nil {
		s.activity.Record(ctx, actorID, activitydomain.EventEmployeeAdded,
			fmt.Sprintf("Added employee %s", employeeName), nil)
	}
}

// RecordEmployeeRemoved logs an employee removal attributed to actorID.
func (s *Service) RecordEmployeeRemoved(ctx context.Context, actorID, employeeName string) {
	if s.activity != nil {
		s.activity.Record(ctx, actorID, activitydomain.EventEmployeeRemoved,
			fmt.Sprintf("Removed employee %s", employeeName), nil)
	}
}
