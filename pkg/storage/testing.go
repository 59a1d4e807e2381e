package storage

import (
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kolabformat/kolabformat/pkg/kolab"
)

// MockStore is a shared mock for unit testing
type MockStore struct {
	mock.Mock
}

var _ Store = &MockStore{}

// AddObject mock function
func (m *MockStore) AddObject(o Object) (string, error) {
	args := m.Called(o)
	return args.String(0), args.Error(1)
}

// GetObject mock function
func (m *MockStore) GetObject(folder, id string) (Object, error) {
	args := m.Called(folder, id)
	o, _ := args.Get(0).(Object)
	return o, args.Error(1)
}

// GetObjects mock function
func (m *MockStore) GetObjects(folder string) ([]Object, error) {
	args := m.Called(folder)
	objs, _ := args.Get(0).([]Object)
	return objs, args.Error(1)
}

// FindByMessageID mock function
func (m *MockStore) FindByMessageID(folder, messageID string) (Object, error) {
	args := m.Called(folder, messageID)
	o, _ := args.Get(0).(Object)
	return o, args.Error(1)
}

// RemoveObject mock function
func (m *MockStore) RemoveObject(folder, id string) error {
	args := m.Called(folder, id)
	return args.Error(0)
}

// PurgeObjects mock function
func (m *MockStore) PurgeObjects(folder string) error {
	args := m.Called(folder)
	return args.Error(0)
}

// VisitFolders accepts a function that will be called with the objects in each folder while it
// continues to return true.
func (m *MockStore) VisitFolders(f func([]Object) (cont bool)) error {
	return nil
}

// MockObject is a shared mock for unit testing
type MockObject struct {
	mock.Mock
}

var _ Object = &MockObject{}

// Folder mock function
func (m *MockObject) Folder() string {
	args := m.Called()
	return args.String(0)
}

// ID mock function
func (m *MockObject) ID() string {
	args := m.Called()
	return args.String(0)
}

// MessageID mock function
func (m *MockObject) MessageID() string {
	args := m.Called()
	return args.String(0)
}

// Subject mock function
func (m *MockObject) Subject() string {
	args := m.Called()
	return args.String(0)
}

// Date mock function
func (m *MockObject) Date() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

// Type mock function
func (m *MockObject) Type() kolab.ObjectType {
	args := m.Called()
	return args.Get(0).(kolab.ObjectType)
}

// Source mock function
func (m *MockObject) Source() (io.ReadCloser, error) {
	args := m.Called()
	r, _ := args.Get(0).(io.ReadCloser)
	return r, args.Error(1)
}

// Size mock function
func (m *MockObject) Size() int64 {
	args := m.Called()
	return int64(args.Int(0))
}
