package devicesession

import (
	"context"
	"testing"
	"time"

	activitydomain "netnest/backend/internal/activity/domain"
	"netnest/backend/internal/clientstore"
	"netnest/backend/internal/devicesession/domain"
)

type memSessionRepo struct {
	sessions map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *memSessionRepo) Create(_ context.Context, s *domain.Session) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) ListByUser(_ context.Context, userID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	if s, ok := r.sessions[id]; ok {
		s.LastActive = at
		s.IsCurrent = true
	}
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

type recordedEvent struct {
	userID      string
	eventType   activitydomain.EventType
	description string
}

type recordingActivity struct {
	events []recordedEvent
}

func (r *recordingActivity) Record(_ context.Context, userID string, eventType activitydomain.EventType, description string, _ map[string]any) {
	r.events = append(r.events, recordedEvent{userID, eventType, description})
}

const chromeMacUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestTrackCreatesSessionAndRemembersID(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	client := clientstore.NewMemory()
	svc := NewService(repo, client, nil)

	sess, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if sess.Browser != "Chrome" || sess.OS != "macOS" {
		t.Fatalf("unexpected descriptor: %s on %s", sess.Browser, sess.OS)
	}
	if sess.DeviceType != "desktop" {
		t.Fatalf("device type = %q, want desktop", sess.DeviceType)
	}
	if !sess.IsCurrent {
		t.Fatal("new session should be current")
	}
	id, ok := client.Get(ctx, clientstore.DeviceSessionKey("user-1"))
	if !ok || id != sess.ID {
		t.Fatalf("client store id = %q ok=%v, want %q", id, ok, sess.ID)
	}
}

func TestTrackRefreshesExistingSession(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	client := clientstore.NewMemory()
	svc := NewService(repo, client, nil)

	first, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	later := first.LastActive.Add(time.Hour)
	svc.nowF = func() time.Time { return later }

	second, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same session, got %s and %s", first.ID, second.ID)
	}
	if !second.LastActive.Equal(later) {
		t.Fatalf("last active = %v, want %v", second.LastActive, later)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(repo.sessions))
	}
}

func TestTrackRecreatesWhenRememberedSessionGone(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	client := clientstore.NewMemory()
	svc := NewService(repo, client, nil)

	first, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	// Session deleted server-side (for example from another browser).
	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	second, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track after delete: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new session id after server-side removal")
	}
	id, _ := client.Get(ctx, clientstore.DeviceSessionKey("user-1"))
	if id != second.ID {
		t.Fatalf("client store id = %q, want %q", id, second.ID)
	}
}

func TestTrackIgnoresSessionOfOtherUser(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	client := clientstore.NewMemory()
	svc := NewService(repo, client, nil)

	other, err := svc.Track(ctx, "user-2", chromeMacUA)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	// A confused client remembers another user's session id.
	client.Set(ctx, clientstore.DeviceSessionKey("user-1"), other.ID)

	sess, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if sess.ID == other.ID {
		t.Fatal("session must not be shared across users")
	}
}

func TestRemoveDeletesAndLogs(t *testing.T) {
	ctx := context.Background()
	repo := newMemSessionRepo()
	client := clientstore.NewMemory()
	rec := &recordingActivity{}
	svc := NewService(repo, client, rec)

	sess, err := svc.Track(ctx, "user-1", chromeMacUA)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := svc.Remove(ctx, sess.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got, _ := repo.GetByID(ctx, sess.ID); got != nil {
		t.Fatal("session still present after Remove")
	}
	if _, ok := client.Get(ctx, clientstore.DeviceSessionKey("user-1")); ok {
		t.Fatal("client store id not cleared")
	}
	if len(rec.events) != 1 || rec.events[0].eventType != activitydomain.EventSessionRemoved {
		t.Fatalf("events = %+v, want one session_removed", rec.events)
	}
}

func TestRemoveUnknownSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	rec := &recordingActivity{}
	svc := NewService(newMemSessionRepo(), clientstore.NewMemory(), rec)

	if err := svc.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("no events expected, got %+v", rec.events)
	}
}
