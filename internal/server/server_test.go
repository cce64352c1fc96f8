package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"netnest/backend/internal/activity"
	activitydomain "netnest/backend/internal/activity/domain"
	activityrepo "netnest/backend/internal/activity/repository"
	"netnest/backend/internal/devicesession"
	sessiondomain "netnest/backend/internal/devicesession/domain"
	"netnest/backend/internal/enrollment"
	"netnest/backend/internal/login"
	"netnest/backend/internal/notify"
	"netnest/backend/internal/provider"
	"netnest/backend/internal/provider/local"
	"netnest/backend/internal/recovery"
	recoverydomain "netnest/backend/internal/recovery/domain"
	"netnest/backend/internal/roles"
	rolesdomain "netnest/backend/internal/roles/domain"
	"netnest/backend/internal/security"
	"netnest/backend/internal/trust"
	trustdomain "netnest/backend/internal/trust/domain"
)

const (
	testSecret = "test-secret"
	testIssuer = "netnest-test"

	chromeMacUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// memActivityRepo is an in-memory activity store shared by the synchronous
// test recorder and the query service.
type memActivityRepo struct {
	mu      sync.Mutex
	entries []*activitydomain.Entry
}

func (m *memActivityRepo) Create(_ context.Context, e *activitydomain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memActivityRepo) List(_ context.Context, f activityrepo.Filter) ([]*activitydomain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*activitydomain.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, e)
	}
	if f.Offset > 0 {
		if int(f.Offset) >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && int(f.Limit) < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memActivityRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memActivityRepo) byType(t activitydomain.EventType) []*activitydomain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*activitydomain.Entry
	for _, e := range m.entries {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// syncRecorder writes activity entries inline so tests can assert on them
// without waiting on the production logger's detached goroutine.
type syncRecorder struct {
	repo *memActivityRepo
}

func (r *syncRecorder) Record(ctx context.Context, userID string, eventType activitydomain.EventType, description string, metadata map[string]any) {
	_ = r.repo.Create(ctx, &activitydomain.Entry{
		ID:          uuid.New().String(),
		UserID:      userID,
		EventType:   eventType,
		Description: description,
		UserAgent:   UserAgent(ctx),
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	})
}

type memTrustRepo struct {
	mu      sync.Mutex
	devices map[string]*trustdomain.Device
}

func newMemTrustRepo() *memTrustRepo {
	return &memTrustRepo{devices: make(map[string]*trustdomain.Device)}
}

func (m *memTrustRepo) Create(_ context.Context, d *trustdomain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *memTrustRepo) GetByID(_ context.Context, id string) (*trustdomain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memTrustRepo) GetByUserAndToken(_ context.Context, userID, token string) (*trustdomain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.UserID == userID && d.Token == token {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTrustRepo) ListByUser(_ context.Context, userID string) ([]*trustdomain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*trustdomain.Device
	for _, d := range m.devices {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTrustRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, id)
	return nil
}

type memRecoveryRepo struct {
	mu    sync.Mutex
	codes []*recoverydomain.RecoveryCode
}

func (m *memRecoveryRepo) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.codes[:0]
	for _, c := range m.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	m.codes = kept
	return nil
}

func (m *memRecoveryRepo) CreateBatch(_ context.Context, codes []*recoverydomain.RecoveryCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codes {
		cp := *c
		m.codes = append(m.codes, &cp)
	}
	return nil
}

func (m *memRecoveryRepo) CountUnused(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.codes {
		if c.UserID == userID && !c.Used {
			n++
		}
	}
	return n, nil
}

func (m *memRecoveryRepo) Consume(_ context.Context, userID, codeHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.UserID == userID && c.CodeHash == codeHash && !c.Used {
			c.Used = true
			now := time.Now().UTC()
			c.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*sessiondomain.Session)}
}

func (m *memSessionRepo) Create(_ context.Context, s *sessiondomain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) GetByID(_ context.Context, id string) (*sessiondomain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) ListByUser(_ context.Context, userID string) ([]*sessiondomain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*sessiondomain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.LastActive = at
		s.IsCurrent = true
	}
	return nil
}

func (m *memSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type memRolesRepo struct {
	mu    sync.Mutex
	roles map[string]map[rolesdomain.Role]bool
}

func newMemRolesRepo() *memRolesRepo {
	return &memRolesRepo{roles: make(map[string]map[rolesdomain.Role]bool)}
}

func (m *memRolesRepo) HasRole(_ context.Context, userID string, role rolesdomain.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles[userID][role], nil
}

func (m *memRolesRepo) ListByUser(_ context.Context, userID string) ([]*rolesdomain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*rolesdomain.Assignment
	for role := range m.roles[userID] {
		out = append(out, &rolesdomain.Assignment{
			ID:        uuid.New().String(),
			UserID:    userID,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		})
	}
	return out, nil
}

func (m *memRolesRepo) Grant(_ context.Context, a *rolesdomain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roles[a.UserID] == nil {
		m.roles[a.UserID] = make(map[rolesdomain.Role]bool)
	}
	m.roles[a.UserID][a.Role] = true
	return nil
}

func (m *memRolesRepo) Revoke(_ context.Context, userID string, role rolesdomain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles[userID], role)
	return nil
}

// captureSender records outbound SMS for assertions.
type captureSender struct {
	sent chan [2]string
}

func (c *captureSender) Send(_ context.Context, phone, message string) error {
	c.sent <- [2]string{phone, message}
	return nil
}

// fixture wires the full HTTP handler over the local provider and in-memory
// repositories.
type fixture struct {
	handler      http.Handler
	provider     *local.Provider
	tokens       *security.TokenProvider
	activityRepo *memActivityRepo
	trustRepo    *memTrustRepo
	rolesRepo    *memRolesRepo
	sms          *captureSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	p := local.New([]byte(testSecret), testIssuer, time.Hour)
	tokens := security.NewTokenProvider([]byte(testSecret), testIssuer, time.Hour)

	activityRepo := &memActivityRepo{}
	recorder := &syncRecorder{repo: activityRepo}
	trustRepo := newMemTrustRepo()
	rolesRepo := newMemRolesRepo()

	store := CookieStore{}
	trustSvc := trust.NewService(trustRepo, store, recorder)
	recoverySvc := recovery.NewService(&memRecoveryRepo{}, recorder)
	sessionSvc := devicesession.NewService(newMemSessionRepo(), store, recorder)
	loginSvc := login.NewService(p, trustSvc, recoverySvc, recorder)
	enrollSvc := enrollment.NewService(p, recorder)
	rolesSvc := roles.NewService(rolesRepo, recorder)
	sms := &captureSender{sent: make(chan [2]string, 4)}

	handler := New(Deps{
		Login:      loginSvc,
		Enrollment: enrollSvc,
		Recovery:   recoverySvc,
		Trust:      trustSvc,
		Sessions:   sessionSvc,
		Activity:   activity.NewService(activityRepo),
		Recorder:   recorder,
		Roles:      rolesSvc,
		Provider:   p,
		Tokens:     tokens,
		Notify:     notify.NewDispatcher(sms, nil),
	})

	return &fixture{
		handler:      handler,
		provider:     p,
		tokens:       tokens,
		activityRepo: activityRepo,
		trustRepo:    trustRepo,
		rolesRepo:    rolesRepo,
		sms:          sms,
	}
}

func (f *fixture) createUser(t *testing.T, email, password string) *provider.User {
	t.Helper()
	u, err := f.provider.CreateUser(context.Background(), email, password, "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

type request struct {
	method  string
	path    string
	token   string
	body    interface{}
	cookies []*http.Cookie
}

func (f *fixture) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("User-Agent", chromeMacUA)
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, request{method: http.MethodGet, path: "/healthz"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, request{method: http.MethodGet, path: "/metrics"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/mfa/enroll"},
		{http.MethodGet, "/api/v1/trusted-devices"},
		{http.MethodGet, "/api/v1/device-sessions"},
		{http.MethodPost, "/api/v1/recovery-codes"},
	}
	for _, p := range paths {
		w := f.do(t, request{method: p.method, path: p.path})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, w.Code)
		}
	}

	w := f.do(t, request{method: http.MethodGet, path: "/api/v1/trusted-devices", token: "garbage"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}
}
