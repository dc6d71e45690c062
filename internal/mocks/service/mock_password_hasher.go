package service

import (
	"github.com/stretchr/testify/mock"
)

// MockPasswordHasher is a mock type for the PasswordHasher type.
type MockPasswordHasher struct {
	mock.Mock
}

type MockPasswordHasher_Expecter struct {
	mock *mock.Mock
}

func (_m *MockPasswordHasher) EXPECT() *MockPasswordHasher_Expecter {
	return &MockPasswordHasher_Expecter{mock: &_m.Mock}
}

// Hash provides a mock function with given fields: transportHash
func (_m *MockPasswordHasher) Hash(transportHash string) (string, error) {
	ret := _m.Called(transportHash)

	if len(ret) == 0 {
		panic("no return value specified for Hash")
	}

	if rf, ok := ret.Get(0).(func(string) (string, error)); ok {
		return rf(transportHash)
	}

	var r0 string
	if rf, ok := ret.Get(0).(func(string) string); ok {
		r0 = rf(transportHash)
	} else {
		r0 = ret.Get(0).(string)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(string) error); ok {
		r1 = rf(transportHash)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockPasswordHasher_Hash_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Hash'
type MockPasswordHasher_Hash_Call struct {
	*mock.Call
}

// Hash is a helper method to define mock.On call
func (_e *MockPasswordHasher_Expecter) Hash(transportHash any) *MockPasswordHasher_Hash_Call {
	return &MockPasswordHasher_Hash_Call{Call: _e.mock.On("Hash", transportHash)}
}

func (_c *MockPasswordHasher_Hash_Call) Run(run func(transportHash string)) *MockPasswordHasher_Hash_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string))
	})

	return _c
}

func (_c *MockPasswordHasher_Hash_Call) Return(_a0 string, _a1 error) *MockPasswordHasher_Hash_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockPasswordHasher_Hash_Call) RunAndReturn(run func(string) (string, error)) *MockPasswordHasher_Hash_Call {
	_c.Call.Return(run)

	return _c
}

// Check provides a mock function with given fields: transportHash, storageHash
func (_m *MockPasswordHasher) Check(transportHash string, storageHash string) bool {
	ret := _m.Called(transportHash, storageHash)

	if len(ret) == 0 {
		panic("no return value specified for Check")
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func(string, string) bool); ok {
		r0 = rf(transportHash, storageHash)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

// MockPasswordHasher_Check_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Check'
type MockPasswordHasher_Check_Call struct {
	*mock.Call
}

// Check is a helper method to define mock.On call
func (_e *MockPasswordHasher_Expecter) Check(transportHash any, storageHash any) *MockPasswordHasher_Check_Call {
	return &MockPasswordHasher_Check_Call{Call: _e.mock.On("Check", transportHash, storageHash)}
}

func (_c *MockPasswordHasher_Check_Call) Run(run func(transportHash string, storageHash string)) *MockPasswordHasher_Check_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string), args[1].(string))
	})

	return _c
}

func (_c *MockPasswordHasher_Check_Call) Return(_a0 bool) *MockPasswordHasher_Check_Call {
	_c.Call.Return(_a0)

	return _c
}

func (_c *MockPasswordHasher_Check_Call) RunAndReturn(run func(string, string) bool) *MockPasswordHasher_Check_Call {
	_c.Call.Return(run)

	return _c
}

// NewMockPasswordHasher creates a new instance of MockPasswordHasher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
