package services

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
	"github.com/reospicespowders/product-backend-sub002/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	mu sync.Mutex

	surveys       map[uint]*models.Survey
	invites       map[uint][]string
	attempts      map[uint]*models.Attempt
	results       map[uint]*models.Result
	users         map[string]*models.User
	nextAttemptID uint
	nextResultID  uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		surveys:       make(map[uint]*models.Survey),
		invites:       make(map[uint][]string),
		attempts:      make(map[uint]*models.Attempt),
		results:       make(map[uint]*models.Result),
		users:         make(map[string]*models.User),
		nextAttemptID: 1,
		nextResultID:  1,
	}
}

func (m *mockRepository) Survey() repositories.SurveyRepository   { return (*mockSurveyRepo)(m) }
func (m *mockRepository) Attempt() repositories.AttemptRepository { return (*mockAttemptRepo)(m) }
func (m *mockRepository) Result() repositories.ResultRepository   { return (*mockResultRepo)(m) }
func (m *mockRepository) User() repositories.UserRepository       { return (*mockUserRepo)(m) }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== SURVEYS =====

type mockSurveyRepo mockRepository

func (m *mockSurveyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	survey, ok := m.surveys[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return survey, nil
}

func (m *mockSurveyRepo) GetWithInvites(ctx context.Context, tx *gorm.DB, id uint) (*models.Survey, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *mockSurveyRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SurveyFilters) ([]*models.Survey, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	surveys := make([]*models.Survey, 0, len(m.surveys))
	for _, s := range m.surveys {
		surveys = append(surveys, s)
	}
	return surveys, int64(len(surveys)), nil
}

func (m *mockSurveyRepo) InvitedEmails(ctx context.Context, tx *gorm.DB, surveyID uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invites[surveyID], nil
}

// ===== ATTEMPTS =====

type mockAttemptRepo mockRepository

func (m *mockAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt.ID = m.nextAttemptID
	m.nextAttemptID++
	m.attempts[attempt.ID] = attempt
	return nil
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return attempt, nil
}

func (m *mockAttemptRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempts := make([]*models.Attempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		attempts = append(attempts, a)
	}
	return attempts, int64(len(attempts)), nil
}

func (m *mockAttemptRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempts := make([]*models.Attempt, 0)
	for id := uint(1); id < m.nextAttemptID; id++ {
		if a, ok := m.attempts[id]; ok && a.OwnerID == ownerID {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

func (m *mockAttemptRepo) GetByRespondent(ctx context.Context, tx *gorm.DB, ownerID uint, email string) ([]*models.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempts := make([]*models.Attempt, 0)
	for id := uint(1); id < m.nextAttemptID; id++ {
		if a, ok := m.attempts[id]; ok && a.OwnerID == ownerID && strings.EqualFold(a.RespondentEmail, email) {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

func (m *mockAttemptRepo) CountByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error) {
	attempts, _ := m.GetByOwner(ctx, tx, ownerID)
	return int64(len(attempts)), nil
}

// ===== RESULTS =====

type mockResultRepo mockRepository

func (m *mockResultRepo) Upsert(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.results {
		if existing.OwnerID == result.OwnerID &&
			existing.RespondentEmail == result.RespondentEmail &&
			existing.AttemptID == result.AttemptID {
			result.ID = existing.ID
			m.results[existing.ID] = result
			return nil
		}
	}
	result.ID = m.nextResultID
	m.nextResultID++
	m.results[result.ID] = result
	return nil
}

func (m *mockResultRepo) Update(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.ID] = result
	return nil
}

func (m *mockResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return result, nil
}

func (m *mockResultRepo) GetByAttempt(ctx context.Context, tx *gorm.DB, ownerID uint, email string, attemptID uint) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		if r.OwnerID == ownerID && r.RespondentEmail == email && r.AttemptID == attemptID {
			return r, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockResultRepo) GetByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]*models.Result, 0)
	for id := uint(1); id < m.nextResultID; id++ {
		if r, ok := m.results[id]; ok && r.OwnerID == ownerID {
			results = append(results, r)
		}
	}
	return results, nil
}

func (m *mockResultRepo) GetByRespondent(ctx context.Context, tx *gorm.DB, ownerID uint, email string) ([]*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]*models.Result, 0)
	for id := uint(1); id < m.nextResultID; id++ {
		if r, ok := m.results[id]; ok && r.OwnerID == ownerID && strings.EqualFold(r.RespondentEmail, email) {
			results = append(results, r)
		}
	}
	return results, nil
}

func (m *mockResultRepo) DeleteByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, r := range m.results {
		if r.OwnerID == ownerID {
			delete(m.results, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockResultRepo) CountByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) (int64, error) {
	results, _ := m.GetByOwner(ctx, tx, ownerID)
	return int64(len(results)), nil
}

// ===== USERS =====

type mockUserRepo mockRepository

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmails(ctx context.Context, emails []string) (map[string]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*models.User)
	for _, email := range emails {
		if user, ok := m.users[strings.ToLower(email)]; ok {
			found[strings.ToLower(email)] = user
		}
	}
	return found, nil
}
