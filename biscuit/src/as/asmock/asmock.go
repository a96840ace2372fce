// Package asmock provides gomock-generated-style test doubles for the
// as.Provider and as.Registry collaborators spec.md §6 names as
// external to this subsystem, in the shape `mockgen` itself would
// produce. Hand-written rather than run through mockgen, since this
// module's build never invokes the Go toolchain directly.
package asmock

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"as"
	"defs"
	"mem"
	"vfs"
)

// MockProvider is a mock of the as.Provider interface.
type MockProvider struct {
	ctrl     *gomock.Controller
	recorder *MockProviderRecorder
}

// MockProviderRecorder is the call-recorder for MockProvider.
type MockProviderRecorder struct {
	mock *MockProvider
}

// NewMockProvider returns a new mock of as.Provider.
func NewMockProvider(ctrl *gomock.Controller) *MockProvider {
	m := &MockProvider{ctrl: ctrl}
	m.recorder = &MockProviderRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockProvider) EXPECT() *MockProviderRecorder {
	return m.recorder
}

func (m *MockProvider) TextBase() mem.Va_t {
	ret := m.ctrl.Call(m, "TextBase")
	return ret[0].(mem.Va_t)
}

func (mr *MockProviderRecorder) TextBase() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TextBase", reflect.TypeOf((*MockProvider)(nil).TextBase))
}

func (m *MockProvider) TextPages() int {
	ret := m.ctrl.Call(m, "TextPages")
	return ret[0].(int)
}

func (mr *MockProviderRecorder) TextPages() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TextPages", reflect.TypeOf((*MockProvider)(nil).TextPages))
}

func (m *MockProvider) DataBase() mem.Va_t {
	ret := m.ctrl.Call(m, "DataBase")
	return ret[0].(mem.Va_t)
}

func (mr *MockProviderRecorder) DataBase() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DataBase", reflect.TypeOf((*MockProvider)(nil).DataBase))
}

func (m *MockProvider) DataPages() int {
	ret := m.ctrl.Call(m, "DataPages")
	return ret[0].(int)
}

func (mr *MockProviderRecorder) DataPages() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DataPages", reflect.TypeOf((*MockProvider)(nil).DataPages))
}

func (m *MockProvider) TextHeader() as.ProgHeader {
	ret := m.ctrl.Call(m, "TextHeader")
	return ret[0].(as.ProgHeader)
}

func (mr *MockProviderRecorder) TextHeader() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TextHeader", reflect.TypeOf((*MockProvider)(nil).TextHeader))
}

func (m *MockProvider) DataHeader() as.ProgHeader {
	ret := m.ctrl.Call(m, "DataHeader")
	return ret[0].(as.ProgHeader)
}

func (mr *MockProviderRecorder) DataHeader() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DataHeader", reflect.TypeOf((*MockProvider)(nil).DataHeader))
}

func (m *MockProvider) InitialOffsetText() uintptr {
	ret := m.ctrl.Call(m, "InitialOffsetText")
	return ret[0].(uintptr)
}

func (mr *MockProviderRecorder) InitialOffsetText() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InitialOffsetText", reflect.TypeOf((*MockProvider)(nil).InitialOffsetText))
}

func (m *MockProvider) InitialOffsetData() uintptr {
	ret := m.ctrl.Call(m, "InitialOffsetData")
	return ret[0].(uintptr)
}

func (mr *MockProviderRecorder) InitialOffsetData() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InitialOffsetData", reflect.TypeOf((*MockProvider)(nil).InitialOffsetData))
}

func (m *MockProvider) ELF() vfs.File {
	ret := m.ctrl.Call(m, "ELF")
	return ret[0].(vfs.File)
}

func (mr *MockProviderRecorder) ELF() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ELF", reflect.TypeOf((*MockProvider)(nil).ELF))
}

func (m *MockProvider) Valid() bool {
	ret := m.ctrl.Call(m, "Valid")
	return ret[0].(bool)
}

func (mr *MockProviderRecorder) Valid() *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Valid", reflect.TypeOf((*MockProvider)(nil).Valid))
}

// MockRegistry is a mock of the as.Registry interface.
type MockRegistry struct {
	ctrl     *gomock.Controller
	recorder *MockRegistryRecorder
}

// MockRegistryRecorder is the call-recorder for MockRegistry.
type MockRegistryRecorder struct {
	mock *MockRegistry
}

// NewMockRegistry returns a new mock of as.Registry.
func NewMockRegistry(ctrl *gomock.Controller) *MockRegistry {
	m := &MockRegistry{ctrl: ctrl}
	m.recorder = &MockRegistryRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRegistry) EXPECT() *MockRegistryRecorder {
	return m.recorder
}

func (m *MockRegistry) Get(pid defs.Pid_t) (as.Provider, bool) {
	ret := m.ctrl.Call(m, "Get", pid)
	p, _ := ret[0].(as.Provider)
	return p, ret[1].(bool)
}

func (mr *MockRegistryRecorder) Get(pid interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockRegistry)(nil).Get), pid)
}
