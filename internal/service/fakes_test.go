package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type memOTPStore struct {
	mu      sync.Mutex
	records map[string]*models.OTPRecord
	claims  map[string]time.Time
}

func newMemOTPStore() *memOTPStore {
	return &memOTPStore{
		records: make(map[string]*models.OTPRecord),
		claims:  make(map[string]time.Time),
	}
}

func (s *memOTPStore) ClaimSlot(_ context.Context, phone string, cooldown time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.claims[phone]; ok && time.Now().Before(until) {
		return time.Until(until), nil
	}
	s.claims[phone] = time.Now().Add(cooldown)
	return 0, nil
}

func (s *memOTPStore) ReleaseSlot(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, phone)
	return nil
}

func (s *memOTPStore) Save(_ context.Context, record *models.OTPRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.records[record.Phone] = &copied
	return nil
}

func (s *memOTPStore) Get(_ context.Context, phone string) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[phone]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *memOTPStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone)
	return nil
}

type sentMessage struct {
	Phone string
	Code  string
}

type fakeGateway struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func (g *fakeGateway) Send(_ context.Context, phone, code string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.sent = append(g.sent, sentMessage{Phone: phone, Code: code})
	return "msg-1", nil
}

func (g *fakeGateway) lastCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return ""
	}
	return g.sent[len(g.sent)-1].Code
}

type memTokenStore struct {
	mu      sync.Mutex
	saved   map[string]*models.RefreshTokenData
	revoked map[string]time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{
		saved:   make(map[string]*models.RefreshTokenData),
		revoked: make(map[string]time.Time),
	}
}

func (s *memTokenStore) Save(_ context.Context, tokenData *models.RefreshTokenData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tokenData
	s.saved[tokenData.JTI] = &copied
	return nil
}

func (s *memTokenStore) Get(_ context.Context, jti string) (*models.RefreshTokenData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokenData, ok := s.saved[jti]
	if !ok {
		return nil, nil
	}
	copied := *tokenData
	return &copied, nil
}

func (s *memTokenStore) MarkRevoked(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	return nil
}

func (s *memTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) GetByPhoneNumber(_ context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[phone]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.PhoneNumber]; ok {
		return apperr.New(apperr.KindConflict, "user with this phone number already exists")
	}
	user.DateJoined = time.Now()
	copied := *user
	s.users[user.PhoneNumber] = &copied
	return nil
}

type memProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	claims   map[string]string
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{
		profiles: make(map[string]*models.Profile),
		claims:   make(map[string]string),
	}
}

func (s *memProfileStore) Get(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (s *memProfileStore) Put(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

func (s *memProfileStore) ClaimUsername(_ context.Context, username, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.claims[username]; ok && owner != userID {
		return apperr.New(apperr.KindConflict, "this username is already taken")
	}
	s.claims[username] = userID
	return nil
}

func (s *memProfileStore) ReleaseUsername(_ context.Context, username, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.claims[username]; ok && owner == userID {
		delete(s.claims, username)
	}
	return nil
}

func (s *memProfileStore) GetUserIDByUsername(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims[username], nil
}
