package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockAuthUsecase is a mock type for the AuthUsecase type.
type MockAuthUsecase struct {
	mock.Mock
}

type MockAuthUsecase_Expecter struct {
	mock *mock.Mock
}

func (_m *MockAuthUsecase) EXPECT() *MockAuthUsecase_Expecter {
	return &MockAuthUsecase_Expecter{mock: &_m.Mock}
}

// Register provides a mock function with given fields: ctx, input
func (_m *MockAuthUsecase) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	ret := _m.Called(ctx, input)

	if len(ret) == 0 {
		panic("no return value specified for Register")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *usecase.RegisterInput) (*usecase.AuthOutput, error)); ok {
		return rf(ctx, input)
	}

	var r0 *usecase.AuthOutput
	if rf, ok := ret.Get(0).(func(context.Context, *usecase.RegisterInput) *usecase.AuthOutput); ok {
		r0 = rf(ctx, input)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*usecase.AuthOutput)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *usecase.RegisterInput) error); ok {
		r1 = rf(ctx, input)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAuthUsecase_Register_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Register'
type MockAuthUsecase_Register_Call struct {
	*mock.Call
}

// Register is a helper method to define mock.On call
func (_e *MockAuthUsecase_Expecter) Register(ctx any, input any) *MockAuthUsecase_Register_Call {
	return &MockAuthUsecase_Register_Call{Call: _e.mock.On("Register", ctx, input)}
}

func (_c *MockAuthUsecase_Register_Call) Run(run func(ctx context.Context, input *usecase.RegisterInput)) *MockAuthUsecase_Register_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*usecase.RegisterInput))
	})

	return _c
}

func (_c *MockAuthUsecase_Register_Call) Return(_a0 *usecase.AuthOutput, _a1 error) *MockAuthUsecase_Register_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAuthUsecase_Register_Call) RunAndReturn(run func(context.Context, *usecase.RegisterInput) (*usecase.AuthOutput, error)) *MockAuthUsecase_Register_Call {
	_c.Call.Return(run)

	return _c
}

// Login provides a mock function with given fields: ctx, input
func (_m *MockAuthUsecase) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	ret := _m.Called(ctx, input)

	if len(ret) == 0 {
		panic("no return value specified for Login")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *usecase.LoginInput) (*usecase.AuthOutput, error)); ok {
		return rf(ctx, input)
	}

	var r0 *usecase.AuthOutput
	if rf, ok := ret.Get(0).(func(context.Context, *usecase.LoginInput) *usecase.AuthOutput); ok {
		r0 = rf(ctx, input)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*usecase.AuthOutput)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *usecase.LoginInput) error); ok {
		r1 = rf(ctx, input)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAuthUsecase_Login_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Login'
type MockAuthUsecase_Login_Call struct {
	*mock.Call
}

// Login is a helper method to define mock.On call
func (_e *MockAuthUsecase_Expecter) Login(ctx any, input any) *MockAuthUsecase_Login_Call {
	return &MockAuthUsecase_Login_Call{Call: _e.mock.On("Login", ctx, input)}
}

func (_c *MockAuthUsecase_Login_Call) Run(run func(ctx context.Context, input *usecase.LoginInput)) *MockAuthUsecase_Login_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*usecase.LoginInput))
	})

	return _c
}

func (_c *MockAuthUsecase_Login_Call) Return(_a0 *usecase.AuthOutput, _a1 error) *MockAuthUsecase_Login_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAuthUsecase_Login_Call) RunAndReturn(run func(context.Context, *usecase.LoginInput) (*usecase.AuthOutput, error)) *MockAuthUsecase_Login_Call {
	_c.Call.Return(run)

	return _c
}

// Logout provides a mock function with given fields: ctx, authCtx
func (_m *MockAuthUsecase) Logout(ctx context.Context, authCtx *usecase.AuthContext) error {
	ret := _m.Called(ctx, authCtx)

	if len(ret) == 0 {
		panic("no return value specified for Logout")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *usecase.AuthContext) error); ok {
		r0 = rf(ctx, authCtx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockAuthUsecase_Logout_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Logout'
type MockAuthUsecase_Logout_Call struct {
	*mock.Call
}

// Logout is a helper method to define mock.On call
func (_e *MockAuthUsecase_Expecter) Logout(ctx any, authCtx any) *MockAuthUsecase_Logout_Call {
	return &MockAuthUsecase_Logout_Call{Call: _e.mock.On("Logout", ctx, authCtx)}
}

func (_c *MockAuthUsecase_Logout_Call) Run(run func(ctx context.Context, authCtx *usecase.AuthContext)) *MockAuthUsecase_Logout_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*usecase.AuthContext))
	})

	return _c
}

func (_c *MockAuthUsecase_Logout_Call) Return(_a0 error) *MockAuthUsecase_Logout_Call {
	_c.Call.Return(_a0)

	return _c
}

func (_c *MockAuthUsecase_Logout_Call) RunAndReturn(run func(context.Context, *usecase.AuthContext) error) *MockAuthUsecase_Logout_Call {
	_c.Call.Return(run)

	return _c
}

// Me provides a mock function with given fields: ctx, authCtx
func (_m *MockAuthUsecase) Me(ctx context.Context, authCtx *usecase.AuthContext) (*entity.AccountSummary, error) {
	ret := _m.Called(ctx, authCtx)

	if len(ret) == 0 {
		panic("no return value specified for Me")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *usecase.AuthContext) (*entity.AccountSummary, error)); ok {
		return rf(ctx, authCtx)
	}

	var r0 *entity.AccountSummary
	if rf, ok := ret.Get(0).(func(context.Context, *usecase.AuthContext) *entity.AccountSummary); ok {
		r0 = rf(ctx, authCtx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*entity.AccountSummary)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *usecase.AuthContext) error); ok {
		r1 = rf(ctx, authCtx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAuthUsecase_Me_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Me'
type MockAuthUsecase_Me_Call struct {
	*mock.Call
}

// Me is a helper method to define mock.On call
func (_e *MockAuthUsecase_Expecter) Me(ctx any, authCtx any) *MockAuthUsecase_Me_Call {
	return &MockAuthUsecase_Me_Call{Call: _e.mock.On("Me", ctx, authCtx)}
}

func (_c *MockAuthUsecase_Me_Call) Run(run func(ctx context.Context, authCtx *usecase.AuthContext)) *MockAuthUsecase_Me_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*usecase.AuthContext))
	})

	return _c
}

func (_c *MockAuthUsecase_Me_Call) Return(_a0 *entity.AccountSummary, _a1 error) *MockAuthUsecase_Me_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAuthUsecase_Me_Call) RunAndReturn(run func(context.Context, *usecase.AuthContext) (*entity.AccountSummary, error)) *MockAuthUsecase_Me_Call {
	_c.Call.Return(run)

	return _c
}

// Authenticate provides a mock function with given fields: ctx, token
func (_m *MockAuthUsecase) Authenticate(ctx context.Context, token string) (*usecase.AuthContext, error) {
	ret := _m.Called(ctx, token)

	if len(ret) == 0 {
		panic("no return value specified for Authenticate")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (*usecase.AuthContext, error)); ok {
		return rf(ctx, token)
	}

	var r0 *usecase.AuthContext
	if rf, ok := ret.Get(0).(func(context.Context, string) *usecase.AuthContext); ok {
		r0 = rf(ctx, token)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*usecase.AuthContext)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, token)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockAuthUsecase_Authenticate_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Authenticate'
type MockAuthUsecase_Authenticate_Call struct {
	*mock.Call
}

// Authenticate is a helper method to define mock.On call
func (_e *MockAuthUsecase_Expecter) Authenticate(ctx any, token any) *MockAuthUsecase_Authenticate_Call {
	return &MockAuthUsecase_Authenticate_Call{Call: _e.mock.On("Authenticate", ctx, token)}
}

func (_c *MockAuthUsecase_Authenticate_Call) Run(run func(ctx context.Context, token string)) *MockAuthUsecase_Authenticate_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string))
	})

	return _c
}

func (_c *MockAuthUsecase_Authenticate_Call) Return(_a0 *usecase.AuthContext, _a1 error) *MockAuthUsecase_Authenticate_Call {
	_c.Call.Return(_a0, _a1)

	return _c
}

func (_c *MockAuthUsecase_Authenticate_Call) RunAndReturn(run func(context.Context, string) (*usecase.AuthContext, error)) *MockAuthUsecase_Authenticate_Call {
	_c.Call.Return(run)

	return _c
}

// NewMockAuthUsecase creates a new instance of MockAuthUsecase. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAuthUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuthUsecase {
	m := &MockAuthUsecase{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
