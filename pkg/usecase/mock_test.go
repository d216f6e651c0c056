package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// MockRegistry is a mock implementation of Registry returning queued errors per call
type MockRegistry struct {
	mu           sync.Mutex
	publishFunc  func(ctx context.Context, cred *model.Credential, req *model.PublishRequest) error
	promoteFunc  func(ctx context.Context, cred *model.Credential, req *model.PromoteRequest) error
	publishCalls []*model.PublishRequest
	promoteCalls []*model.PromoteRequest
}

func (m *MockRegistry) Publish(ctx context.Context, cred *model.Credential, req *model.PublishRequest) error {
	m.mu.Lock()
	m.publishCalls = append(m.publishCalls, req)
	m.mu.Unlock()
	if m.publishFunc != nil {
		return m.publishFunc(ctx, cred, req)
	}
	return errors.New("mock not configured")
}

func (m *MockRegistry) Promote(ctx context.Context, cred *model.Credential, req *model.PromoteRequest) error {
	m.mu.Lock()
	m.promoteCalls = append(m.promoteCalls, req)
	m.mu.Unlock()
	if m.promoteFunc != nil {
		return m.promoteFunc(ctx, cred, req)
	}
	return errors.New("mock not configured")
}

func (m *MockRegistry) PublishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.publishCalls)
}

// sequence returns a publish func yielding errs in order, then nil
func sequence(errs ...error) func(ctx context.Context, cred *model.Credential, req *model.PublishRequest) error {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, cred *model.Credential, req *model.PublishRequest) error {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(errs) {
			return nil
		}
		err := errs[i]
		i++
		return err
	}
}

// MockCredentialProvider records acquisitions and releases
type MockCredentialProvider struct {
	mu       sync.Mutex
	err      error
	acquired []string
	released int
}

func (m *MockCredentialProvider) Acquire(ctx context.Context, ref string) (*model.Credential, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquired = append(m.acquired, ref)
	if m.err != nil {
		return nil, nil, m.err
	}
	cred := &model.Credential{Ref: ref, Token: "token-" + ref}
	return cred, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.released++
		cred.Clear()
	}, nil
}

func (m *MockCredentialProvider) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// MockReporter records reports
type MockReporter struct {
	mu      sync.Mutex
	err     error
	reports []*model.RunReport
}

func (m *MockReporter) Report(ctx context.Context, report *model.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return m.err
}

func (m *MockReporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}
