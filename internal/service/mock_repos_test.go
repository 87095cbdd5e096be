package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Bzrkr/raspisanie/internal/model"
	"github.com/Bzrkr/raspisanie/internal/repository"
)

// ── Mock WeekRepository ──

type mockWeekRepo struct {
	week int
	err  error
}

func (m *mockWeekRepo) Current(_ context.Context) (int, error) {
	return m.week, m.err
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	teachers []model.Teacher
	err      error
}

func (m *mockEmployeeRepo) List(_ context.Context) ([]model.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teachers, nil
}

// ── Mock FeedRepository（并发安全，记录最大并发数）──

type mockFeedRepo struct {
	mu       sync.Mutex
	feeds    map[string]model.TeacherScheduleFeed
	failing  map[string]bool
	calls    int
	inFlight int
	maxSeen  int
}

func newMockFeedRepo() *mockFeedRepo {
	return &mockFeedRepo{
		feeds:   make(map[string]model.TeacherScheduleFeed),
		failing: make(map[string]bool),
	}
}

func (m *mockFeedRepo) GetByTeacher(_ context.Context, urlID string) (model.TeacherScheduleFeed, error) {
	m.mu.Lock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	feed, ok := m.feeds[urlID]
	fail := m.failing[urlID]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if fail {
		return model.TeacherScheduleFeed{}, errors.New("HTTP 500")
	}
	if !ok {
		return model.EmptyFeed(), nil
	}
	return feed, nil
}

// testRepos 聚合 mock repo 便于 seed 数据
type testRepos struct {
	week     *mockWeekRepo
	employee *mockEmployeeRepo
	feed     *mockFeedRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		week:     &mockWeekRepo{},
		employee: &mockEmployeeRepo{},
		feed:     newMockFeedRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Week:     r.week,
		Employee: r.employee,
		Feed:     r.feed,
	}
}
