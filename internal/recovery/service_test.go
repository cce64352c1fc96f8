package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/recovery/domain"
)

type memRecoveryRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.RecoveryCode // keyed by id
}

func newMemRecoveryRepo() *memRecoveryRepo {
	return &memRecoveryRepo{codes: make(map[string]*domain.RecoveryCode)}
}

func (r *memRecoveryRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.codes {
		if c.UserID == userID {
			delete(r.codes, id)
		}
	}
	return nil
}

func (r *memRecoveryRepo) CreateBatch(ctx context.Context, codes []*domain.RecoveryCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range codes {
		c2 := *c
		r.codes[c.ID] = &c2
	}
	return nil
}

func (r *memRecoveryRepo) CountUnused(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.codes {
		if c.UserID == userID && !c.Used {
			n++
		}
	}
	return n, nil
}

func (r *memRecoveryRepo) Consume(ctx context.Context, userID, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.UserID == userID && c.CodeHash == codeHash && !c.Used {
			c.Used = true
			return true, nil
		}
	}
	return false, nil
}

// recordingActivity captures activity events synchronously for assertions.
type recordingActivity struct {
	mu     sync.Mutex
	events []activitydomain.EventType
}

func (a *recordingActivity) Record(ctx context.Context, userID string, et activitydomain.EventType, desc string, meta map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, et)
}

func (a *recordingActivity) has(et activitydomain.EventType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e == et {
			return true
		}
	}
	return false
}

func TestService_Generate_ProducesTen(t *testing.T) {
	repo := newMemRecoveryRepo()
	act := &recordingActivity{}
	svc := NewService(repo, act)
	ctx := context.Background()

	codes, err := svc.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(codes) != 10 {
		t.Fatalf("len(codes) = %d, want 10", len(codes))
	}
	n, _ := repo.CountUnused(ctx, "user-1")
	if n != 10 {
		t.Errorf("unused count = %d, want 10", n)
	}
	if !act.has(activitydomain.EventTwoFactorEnabled) {
		t.Error("expected 2fa_enabled activity event")
	}
}

func TestService_Generate_ReplacesOldBatch(t *testing.T) {
	repo := newMemRecoveryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	old, err := svc.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Generate(ctx, "user-1"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	n, _ := repo.CountUnused(ctx, "user-1")
	if n != 10 {
		t.Errorf("unused count after regenerate = %d, want 10", n)
	}
	// Every code from the superseded batch must now be rejected.
	for _, c := range old {
		if err := svc.Consume(ctx, "user-1", c); !errors.Is(err, ErrCodeNotAccepted) {
			t.Errorf("Consume(old code %q) = %v, want ErrCodeNotAccepted", c, err)
		}
	}
}

func TestService_Consume_SingleUse(t *testing.T) {
	repo := newMemRecoveryRepo()
	act := &recordingActivity{}
	svc := NewService(repo, act)
	ctx := context.Background()

	codes, err := svc.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code := codes[0]

	if err := svc.Consume(ctx, "user-1", code); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if !act.has(activitydomain.EventRecoveryCodeUsed) {
		t.Error("expected 2fa_recovery_used activity event")
	}

	// Replaying the identical string fails with the same generic error as an
	// unrecognized code.
	if err := svc.Consume(ctx, "user-1", code); !errors.Is(err, ErrCodeNotAccepted) {
		t.Errorf("replay Consume = %v, want ErrCodeNotAccepted", err)
	}
	if err := svc.Consume(ctx, "user-1", "ZZZZ-ZZZZ"); !errors.Is(err, ErrCodeNotAccepted) {
		t.Errorf("unknown code Consume = %v, want ErrCodeNotAccepted", err)
	}
}

func TestService_Consume_NormalizesInput(t *testing.T) {
	repo := newMemRecoveryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	codes, err := svc.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Lowercase, separator-free form of a generated code must be accepted.
	lower := ""
	for _, r := range codes[0] {
		if r == '-' {
			continue
		}
		lower += string(r | 0x20)
	}
	if err := svc.Consume(ctx, "user-1", lower); err != nil {
		t.Errorf("Consume(normalized variant) = %v, want nil", err)
	}
}

func TestService_Consume_RejectsMalformedBeforeLookup(t *testing.T) {
	svc := NewService(nil, nil) // nil repo: a lookup would panic
	for _, bad := range []string{"", "ABC", "AB12-CD3", "AB12-CD345"} {
		if err := svc.Consume(context.Background(), "user-1", bad); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Consume(%q) = %v, want ErrInvalidCode", bad, err)
		}
	}
}

func TestService_Consume_ScopedToUser(t *testing.T) {
	repo := newMemRecoveryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	codes, err := svc.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := svc.Consume(ctx, "user-2", codes[0]); !errors.Is(err, ErrCodeNotAccepted) {
		t.Errorf("Consume under wrong user = %v, want ErrCodeNotAccepted", err)
	}
}
