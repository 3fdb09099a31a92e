package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVehicleAndList(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	_, err := s.AddVehicle(tenant, "Gol", "AB123CD", nil)
	require.NoError(t, err)
	_, err = s.AddVehicle(tenant, "Corsa", "", nil)
	require.NoError(t, err)

	vehicles, err := s.ListVehicles(tenant)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, "Corsa", vehicles[0].Name)

	_, err = s.AddVehicle(tenant, "", "XY987ZW", nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestListVehiclesDoesNotLeakAcrossTenants(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	_, err := s.AddVehicle(tenantA, "Gol", "AB123CD", nil)
	require.NoError(t, err)

	theirs, err := s.ListVehicles(tenantB)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestAddVehicleServiceCrossTenantVehicle(t *testing.T) {
	s := newTestStore(t)
	tenantA := createTestTenant(t, s, "Casa A")
	tenantB := createTestTenant(t, s, "Casa B")

	vehicle, err := s.AddVehicle(tenantA, "Gol", "AB123CD", nil)
	require.NoError(t, err)

	// Another tenant's vehicle is indistinguishable from a missing one.
	_, err = s.AddVehicleService(tenantB, VehicleServiceInput{
		VehicleID:   vehicle.ID,
		ServiceType: "oil_change",
		Cost:        decimal.NewFromInt(90),
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	record, err := s.AddVehicleService(tenantA, VehicleServiceInput{
		VehicleID:   vehicle.ID,
		ServiceType: "oil_change",
		Cost:        decimal.NewFromInt(90),
		Notes:       "10w40",
	})
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, record.VehicleID)
	assert.False(t, record.ServiceDate.IsZero())
}

func TestAddVehicleServiceValidation(t *testing.T) {
	s := newTestStore(t)
	tenant := createTestTenant(t, s, "Casa")

	vehicle, err := s.AddVehicle(tenant, "Gol", "AB123CD", nil)
	require.NoError(t, err)

	_, err = s.AddVehicleService(tenant, VehicleServiceInput{VehicleID: vehicle.ID})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = s.AddVehicleService(tenant, VehicleServiceInput{
		VehicleID:   vehicle.ID,
		ServiceType: "tires",
		Cost:        decimal.NewFromInt(-5),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
