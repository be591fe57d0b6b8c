package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStorageManager struct {
	mock.Mock
}

func (m *MockStorageManager) Save(name string, content io.Reader) (string, error) {
	args := m.Called(name, content)
	return args.String(0), args.Error(1)
}

func (m *MockStorageManager) Delete(relativePath string) error {
	args := m.Called(relativePath)
	return args.Error(0)
}
