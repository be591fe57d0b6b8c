package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendWelcomeMail(email, name string) error {
	args := m.Called(email, name)
	return args.Error(0)
}

func (m *MockMailManager) SendPasswordResetMail(email, name, rawToken string) error {
	args := m.Called(email, name, rawToken)
	return args.Error(0)
}

func (m *MockMailManager) SendReservationDecisionMail(email, name, origin, destination, decision string) error {
	args := m.Called(email, name, origin, destination, decision)
	return args.Error(0)
}

func (m *MockMailManager) SendTripCancelledMail(email, name, origin, destination string, departureAt time.Time) error {
	args := m.Called(email, name, origin, destination, departureAt)
	return args.Error(0)
}
