// Package vfsmock is a gomock-generated-style test double for vfs.File,
// the other external collaborator interface spec.md §6 names (the ELF
// image / swap file backing object).
package vfsmock

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockFile is a mock of the vfs.File interface.
type MockFile struct {
	ctrl     *gomock.Controller
	recorder *MockFileRecorder
}

// MockFileRecorder is the call-recorder for MockFile.
type MockFileRecorder struct {
	mock *MockFile
}

// NewMockFile returns a new mock of vfs.File.
func NewMockFile(ctrl *gomock.Controller) *MockFile {
	m := &MockFile{ctrl: ctrl}
	m.recorder = &MockFileRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockFile) EXPECT() *MockFileRecorder {
	return m.recorder
}

func (m *MockFile) ReadAt(p []byte, off int64) (int, error) {
	ret := m.ctrl.Call(m, "ReadAt", p, off)
	err, _ := ret[1].(error)
	return ret[0].(int), err
}

func (mr *MockFileRecorder) ReadAt(p, off interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadAt", reflect.TypeOf((*MockFile)(nil).ReadAt), p, off)
}

func (m *MockFile) WriteAt(p []byte, off int64) (int, error) {
	ret := m.ctrl.Call(m, "WriteAt", p, off)
	err, _ := ret[1].(error)
	return ret[0].(int), err
}

func (mr *MockFileRecorder) WriteAt(p, off interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteAt", reflect.TypeOf((*MockFile)(nil).WriteAt), p, off)
}
