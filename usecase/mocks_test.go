package usecase

import (
	"context"
	"io"
	"sync"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"

	"github.com/stretchr/testify/mock"
)

// ========== MockPageRepository ==========
// 实现 repository.PageRepository 接口，用于 PageUseCase 的单元测试

type MockPageRepository struct {
	mock.Mock
}

func (m *MockPageRepository) GetByPageID(pageID string) (*entity.Page, error) {
	args := m.Called(pageID)
	// 处理 nil 情况
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
	args := m.Called(page)
	return args.Error(0)
}

func (m *MockPageRepository) UpdateComponents(pageID string, components []byte, oldVersion, newVersion int64) error {
	args := m.Called(pageID, components, oldVersion, newVersion)
	return args.Error(0)
}

func (m *MockPageRepository) UpdatePage(page *entity.Page, oldVersion int64) error {
	args := m.Called(page, oldVersion)
	return args.Error(0)
}

func (m *MockPageRepository) UpdateMeta(pageID, title, slug string, status entity.PageStatus) error {
	args := m.Called(pageID, title, slug, status)
	return args.Error(0)
}

func (m *MockPageRepository) Delete(pageID string) error {
	args := m.Called(pageID)
	return args.Error(0)
}

// ========== MockPageService (用于 Hub) ==========
// 因为 PageUseCase 需要真实的 Hub，而 Hub 需要 PageService

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
	args := m.Called(pageID, state, oldVersion, newVersion)
	return args.Error(0)
}

// ========== MockUserRepository ==========

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(userID string) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

// ========== fakeStorage ==========
// 记录上传内容；err 非 nil 时模拟存储失败

type fakeStorage struct {
	mu    sync.Mutex
	calls int
	keys  []string
	types []string
	data  [][]byte
	err   error
}

func (s *fakeStorage) Put(_ context.Context, key, contentType string, _ int64, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", domainErrors.ErrUploadFailed
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	s.types = append(s.types, contentType)
	s.data = append(s.data, data)
	return "https://cdn.example.com/" + key, nil
}

// ========== fakeAuthenticator ==========

type fakeAuthenticator struct {
	token string
	err   error
}

func (a *fakeAuthenticator) Login(_ context.Context, _, _ string) (string, error) {
	return a.token, a.err
}
