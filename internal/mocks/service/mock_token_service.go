package service

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTokenService is a mock type for the TokenService type.
type MockTokenService struct {
	mock.Mock
}

type MockTokenService_Expecter struct {
	mock *mock.Mock
}

func (_m *MockTokenService) EXPECT() *MockTokenService_Expecter {
	return &MockTokenService_Expecter{mock: &_m.Mock}
}

// Issue provides a mock function with given fields: accountID
func (_m *MockTokenService) Issue(accountID uuid.UUID) (string, error) {
	ret := _m.Called(accountID)

	if len(ret) == 0 {
		panic("no return value specified for Issue")
	}

	if rf, ok := ret.Get(0).(func(uuid.UUID) (string, error)); ok {
		return rf(accountID)
	}

	var r0 string
	if rf, ok := ret.Get(0).(func(uuid.UUID) string); ok {
		r0 = rf(accountID)
	} else {
		r0 = ret.Get(0).(string)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(uuid.UUID) error); ok {
		r1 = rf(accountID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockTokenService_Issue_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Issue'
type MockTokenService_Issue_Call struct {
	*mock.Call
}

// Issue is a helper method to define mock.On call
func (_e *MockTokenService_Expecter) Issue(accountID any) *MockTokenService_Issue_Call {
	return &MockTokenService_Issue_Call{Call: _e.mock.On("Issue", accountID)}
}

func (_c *MockTokenService_Issue_Call) Run(run func(accountID uuid.UUID)) *MockTokenService_Issue_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(uuid.UUID))
	})

	return _c
}

func (_c *MockTokenService_Issue_Call) Return(_a0 string, _a1 error) *MockTokenService_Issue_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockTokenService_Issue_Call) RunAndReturn(run func(uuid.UUID) (string, error)) *MockTokenService_Issue_Call {
	_c.Call.Return(run)

	return _c
}

// Verify provides a mock function with given fields: token
func (_m *MockTokenService) Verify(token string) (uuid.UUID, error) {
	ret := _m.Called(token)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	if rf, ok := ret.Get(0).(func(string) (uuid.UUID, error)); ok {
		return rf(token)
	}

	var r0 uuid.UUID
	if rf, ok := ret.Get(0).(func(string) uuid.UUID); ok {
		r0 = rf(token)
	} else {
		r0 = ret.Get(0).(uuid.UUID)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(string) error); ok {
		r1 = rf(token)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockTokenService_Verify_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Verify'
type MockTokenService_Verify_Call struct {
	*mock.Call
}

// Verify is a helper method to define mock.On call
func (_e *MockTokenService_Expecter) Verify(token any) *MockTokenService_Verify_Call {
	return &MockTokenService_Verify_Call{Call: _e.mock.On("Verify", token)}
}

func (_c *MockTokenService_Verify_Call) Run(run func(token string)) *MockTokenService_Verify_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string))
	})

	return _c
}

func (_c *MockTokenService_Verify_Call) Return(_a0 uuid.UUID, _a1 error) *MockTokenService_Verify_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockTokenService_Verify_Call) RunAndReturn(run func(string) (uuid.UUID, error)) *MockTokenService_Verify_Call {
	_c.Call.Return(run)

	return _c
}

// NewMockTokenService creates a new instance of MockTokenService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTokenService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenService {
	m := &MockTokenService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
