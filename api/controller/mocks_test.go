package controller_test

import (
	"context"
	"errors"
	"io"

	"pagebuilder-go-server/api/middleware"
	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"

	"github.com/stretchr/testify/mock"
)

// ========== MockPageRepository ==========

type MockPageRepository struct {
	mock.Mock
}

func (m *MockPageRepository) GetByPageID(pageID string) (*entity.Page, error) {
	args := m.Called(pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Page), args.Error(1)
}

func (m *MockPageRepository) ListByOwner(ownerID string) ([]entity.Page, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Page), args.Error(1)
}

func (m *MockPageRepository) Create(page *entity.Page) error {
	return m.Called(page).Error(0)
}

func (m *MockPageRepository) UpdateComponents(pageID string, components []byte, oldVersion, newVersion int64) error {
	return m.Called(pageID, components, oldVersion, newVersion).Error(0)
}

func (m *MockPageRepository) UpdatePage(page *entity.Page, oldVersion int64) error {
	return m.Called(page, oldVersion).Error(0)
}

func (m *MockPageRepository) UpdateMeta(pageID, title, slug string, status entity.PageStatus) error {
	return m.Called(pageID, title, slug, status).Error(0)
}

func (m *MockPageRepository) Delete(pageID string) error {
	return m.Called(pageID).Error(0)
}

// ========== MockPageService ==========

type MockPageService struct {
	mock.Mock
}

func (m *MockPageService) GetPageState(pageID string) ([]byte, int64, error) {
	args := m.Called(pageID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(int64), args.Error(2)
}

func (m *MockPageService) PageExists(pageID string) (bool, error) {
	args := m.Called(pageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPageService) SavePageState(pageID string, state []byte, oldVersion, newVersion int64) error {
	return m.Called(pageID, state, oldVersion, newVersion).Error(0)
}

// ========== MockUserRepository ==========

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(user *entity.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUserRepository) GetByID(userID string) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

// ========== fakes ==========

// tokenVerifier "token-<userID>" 形式的 token 视为有效
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (middleware.Identity, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return middleware.Identity{}, errors.New("bad token")
	}
	return middleware.Identity{UserID: token[len(prefix):]}, nil
}

type fakeStorage struct {
	calls int
}

func (s *fakeStorage) Put(_ context.Context, key, _ string, _ int64, body io.Reader) (string, error) {
	s.calls++
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", domainErrors.ErrUploadFailed
	}
	return "/uploads/" + key, nil
}

type fakeAuthenticator struct {
	token string
	err   error
}

func (a fakeAuthenticator) Login(_ context.Context, _, _ string) (string, error) {
	return a.token, a.err
}
