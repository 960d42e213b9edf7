package services

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"labelcli/internal/layout"
	"labelcli/internal/license"
)

// MockLicenseManager is a mock for the LicenseManager interface
type MockLicenseManager struct {
	mock.Mock
}

func (m *MockLicenseManager) LoadLicense() (license.Record, bool) {
	args := m.Called()
	return args.Get(0).(license.Record), args.Bool(1)
}

func (m *MockLicenseManager) Activate(ctx context.Context, email, key string) (license.Record, error) {
	args := m.Called(ctx, email, key)
	return args.Get(0).(license.Record), args.Error(1)
}

func (m *MockLicenseManager) Status() license.Info {
	args := m.Called()
	return args.Get(0).(license.Info)
}

// MockLicenseService is a mock for the LicenseService interface
type MockLicenseService struct {
	mock.Mock
}

func (m *MockLicenseService) GetStatus(ctx context.Context) (*LicenseStatusResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LicenseStatusResponse), args.Error(1)
}

func (m *MockLicenseService) Activate(ctx context.Context, req ActivationRequest) (*LicenseStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LicenseStatusResponse), args.Error(1)
}

func (m *MockLicenseService) RequireLicense(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLayoutService is a mock for the LayoutService interface
type MockLayoutService struct {
	mock.Mock
}

func (m *MockLayoutService) DefaultRequest() LayoutRequest {
	args := m.Called()
	return args.Get(0).(LayoutRequest)
}

func (m *MockLayoutService) Compute(ctx context.Context, req LayoutRequest) (*layout.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*layout.Result), args.Error(1)
}

func (m *MockLayoutService) Preview(ctx context.Context, req LayoutRequest) (*layout.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*layout.Page), args.Error(1)
}

// MockImportService is a mock for the ImportService interface
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportWorkbook(ctx context.Context, filename string, r io.Reader) (*ImportResponse, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ImportResponse), args.Error(1)
}
