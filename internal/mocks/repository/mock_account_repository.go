package repository

import (
	"context"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock type for the AccountRepository type.
type MockAccountRepository struct {
	mock.Mock
}

type MockAccountRepository_Expecter struct {
	mock *mock.Mock
}

func (_m *MockAccountRepository) EXPECT() *MockAccountRepository_Expecter {
	return &MockAccountRepository_Expecter{mock: &_m.Mock}
}

// FindByEmail provides a mock function with given fields: ctx, email
func (_m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for FindByEmail")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (*entity.Account, error)); ok {
		return rf(ctx, email)
	}

	var r0 *entity.Account
	if rf, ok := ret.Get(0).(func(context.Context, string) *entity.Account); ok {
		r0 = rf(ctx, email)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*entity.Account)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, email)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAccountRepository_FindByEmail_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'FindByEmail'
type MockAccountRepository_FindByEmail_Call struct {
	*mock.Call
}

// FindByEmail is a helper method to define mock.On call
func (_e *MockAccountRepository_Expecter) FindByEmail(ctx any, email any) *MockAccountRepository_FindByEmail_Call {
	return &MockAccountRepository_FindByEmail_Call{Call: _e.mock.On("FindByEmail", ctx, email)}
}

func (_c *MockAccountRepository_FindByEmail_Call) Run(run func(ctx context.Context, email string)) *MockAccountRepository_FindByEmail_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string))
	})

	return _c
}

func (_c *MockAccountRepository_FindByEmail_Call) Return(_a0 *entity.Account, _a1 error) *MockAccountRepository_FindByEmail_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAccountRepository_FindByEmail_Call) RunAndReturn(run func(context.Context, string) (*entity.Account, error)) *MockAccountRepository_FindByEmail_Call {
	_c.Call.Return(run)

	return _c
}

// FindByID provides a mock function with given fields: ctx, id
func (_m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for FindByID")
	}

	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) (*entity.Account, error)); ok {
		return rf(ctx, id)
	}

	var r0 *entity.Account
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) *entity.Account); ok {
		r0 = rf(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*entity.Account)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID) error); ok {
		r1 = rf(ctx, id)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAccountRepository_FindByID_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'FindByID'
type MockAccountRepository_FindByID_Call struct {
	*mock.Call
}

// FindByID is a helper method to define mock.On call
func (_e *MockAccountRepository_Expecter) FindByID(ctx any, id any) *MockAccountRepository_FindByID_Call {
	return &MockAccountRepository_FindByID_Call{Call: _e.mock.On("FindByID", ctx, id)}
}

func (_c *MockAccountRepository_FindByID_Call) Run(run func(ctx context.Context, id uuid.UUID)) *MockAccountRepository_FindByID_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(uuid.UUID))
	})

	return _c
}

func (_c *MockAccountRepository_FindByID_Call) Return(_a0 *entity.Account, _a1 error) *MockAccountRepository_FindByID_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAccountRepository_FindByID_Call) RunAndReturn(run func(context.Context, uuid.UUID) (*entity.Account, error)) *MockAccountRepository_FindByID_Call {
	_c.Call.Return(run)

	return _c
}

// Create provides a mock function with given fields: ctx, email, passwordHash
func (_m *MockAccountRepository) Create(ctx context.Context, email string, passwordHash string) (*entity.Account, error) {
	ret := _m.Called(ctx, email, passwordHash)

	if len(ret) == 0 {
		panic("no return value specified for Create")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*entity.Account, error)); ok {
		return rf(ctx, email, passwordHash)
	}

	var r0 *entity.Account
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *entity.Account); ok {
		r0 = rf(ctx, email, passwordHash)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*entity.Account)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, email, passwordHash)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAccountRepository_Create_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Create'
type MockAccountRepository_Create_Call struct {
	*mock.Call
}

// Create is a helper method to define mock.On call
func (_e *MockAccountRepository_Expecter) Create(ctx any, email any, passwordHash any) *MockAccountRepository_Create_Call {
	return &MockAccountRepository_Create_Call{Call: _e.mock.On("Create", ctx, email, passwordHash)}
}

func (_c *MockAccountRepository_Create_Call) Run(run func(ctx context.Context, email string, passwordHash string)) *MockAccountRepository_Create_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string), args[2].(string))
	})

	return _c
}

func (_c *MockAccountRepository_Create_Call) Return(_a0 *entity.Account, _a1 error) *MockAccountRepository_Create_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAccountRepository_Create_Call) RunAndReturn(run func(context.Context, string, string) (*entity.Account, error)) *MockAccountRepository_Create_Call {
	_c.Call.Return(run)

	return _c
}

// UpdateAuthState provides a mock function with given fields: ctx, id, expectedVersion, state
func (_m *MockAccountRepository) UpdateAuthState(ctx context.Context, id uuid.UUID, expectedVersion int64, state entity.AuthState) (*entity.Account, error) {
	ret := _m.Called(ctx, id, expectedVersion, state)

	if len(ret) == 0 {
		panic("no return value specified for UpdateAuthState")
	}

	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID, int64, entity.AuthState) (*entity.Account, error)); ok {
		return rf(ctx, id, expectedVersion, state)
	}

	var r0 *entity.Account
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID, int64, entity.AuthState) *entity.Account); ok {
		r0 = rf(ctx, id, expectedVersion, state)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*entity.Account)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID, int64, entity.AuthState) error); ok {
		r1 = rf(ctx, id, expectedVersion, state)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAccountRepository_UpdateAuthState_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'UpdateAuthState'
type MockAccountRepository_UpdateAuthState_Call struct {
	*mock.Call
}

// UpdateAuthState is a helper method to define mock.On call
func (_e *MockAccountRepository_Expecter) UpdateAuthState(ctx any, id any, expectedVersion any, state any) *MockAccountRepository_UpdateAuthState_Call {
	return &MockAccountRepository_UpdateAuthState_Call{Call: _e.mock.On("UpdateAuthState", ctx, id, expectedVersion, state)}
}

func (_c *MockAccountRepository_UpdateAuthState_Call) Run(run func(ctx context.Context, id uuid.UUID, expectedVersion int64, state entity.AuthState)) *MockAccountRepository_UpdateAuthState_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(uuid.UUID), args[2].(int64), args[3].(entity.AuthState))
	})

	return _c
}

func (_c *MockAccountRepository_UpdateAuthState_Call) Return(_a0 *entity.Account, _a1 error) *MockAccountRepository_UpdateAuthState_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAccountRepository_UpdateAuthState_Call) RunAndReturn(run func(context.Context, uuid.UUID, int64, entity.AuthState) (*entity.Account, error)) *MockAccountRepository_UpdateAuthState_Call {
	_c.Call.Return(run)

	return _c
}

// NewMockAccountRepository creates a new instance of MockAccountRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
