package mocks

import "github.com/stretchr/testify/mock"

type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendUsernameRecoveryMail(email, username string) error {
	args := m.Called(email, username)
	return args.Error(0)
}

func (m *MockMailManager) SendPasswordResetMail(email, resetLink string) error {
	args := m.Called(email, resetLink)
	return args.Error(0)
}
