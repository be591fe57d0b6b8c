package vehicles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func daysFromNow(days int) *time.Time {
	t := now.Add(time.Duration(days) * 24 * time.Hour)
	return &t
}

func TestDocumentMetaStatuses(t *testing.T) {
	testCases := []struct {
		name      string
		expiresAt *time.Time
		photoURL  string
		status    string
	}{
		{"Valid", daysFromNow(90), "soat.pdf", DocValid},
		{"ExpiringAtThirtyDays", daysFromNow(30), "soat.pdf", DocExpiring},
		{"ExpiringSoon", daysFromNow(5), "soat.pdf", DocExpiring},
		{"Expired", daysFromNow(-1), "soat.pdf", DocExpired},
		{"Missing", nil, "", DocMissing},
		{"InvalidNoDate", nil, "soat.pdf", DocInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			meta := DocumentMeta(tc.expiresAt, tc.photoURL, now)
			assert.Equal(t, tc.status, meta.Status)
		})
	}
}

func testVehicle(status string, soatDays, licenseDays int) *schemas.Vehicle {
	return &schemas.Vehicle{
		Plate:             "ABC123",
		Status:            status,
		SoatPhotoURL:      "soat.pdf",
		LicensePhotoURL:   "license.pdf",
		SoatExpiration:    daysFromNow(soatDays),
		LicenseExpiration: daysFromNow(licenseDays),
	}
}

func TestBuildMetaHealthyVerifiedVehicle(t *testing.T) {
	meta := BuildMeta(testVehicle(schemas.VehicleVerified, 90, 200), now)

	assert.True(t, meta.DocumentsOk)
	assert.True(t, meta.CanActivate)
	assert.False(t, meta.CanRequestReview)
	assert.Empty(t, meta.Warnings)
	assert.Equal(t, "Verificado", meta.StatusLabel)
	assert.Equal(t, "info", meta.Severity)
}

func TestBuildMetaPendingVehicleCanRequestReview(t *testing.T) {
	meta := BuildMeta(testVehicle(schemas.VehiclePending, 90, 200), now)

	assert.True(t, meta.CanRequestReview)
	assert.False(t, meta.CanActivate)
	assert.Equal(t, "warning", meta.Severity)
}

func TestBuildMetaExpiredSoatBlocksEverything(t *testing.T) {
	meta := BuildMeta(testVehicle(schemas.VehicleVerified, -1, 200), now)

	assert.False(t, meta.DocumentsOk)
	assert.False(t, meta.CanActivate)
	assert.False(t, meta.CanRequestReview)
	assert.Contains(t, meta.Warnings, "El SOAT está vencido.")
}

func TestBuildMetaExpiringLicenseWarnsButStaysUsable(t *testing.T) {
	meta := BuildMeta(testVehicle(schemas.VehicleVerified, 90, 10), now)

	assert.True(t, meta.DocumentsOk)
	assert.True(t, meta.CanActivate)
	assert.Contains(t, meta.Warnings, "La licencia vence pronto.")
}

func TestBuildMetaRejectedVehicle(t *testing.T) {
	meta := BuildMeta(testVehicle(schemas.VehicleRejected, 90, 200), now)

	assert.True(t, meta.CanRequestReview)
	assert.Equal(t, "Rechazado", meta.StatusLabel)
	assert.Equal(t, "error", meta.Severity)
}

func TestBuildMetaUnderReviewCannotRequestAgain(t *testing.T) {
	meta := BuildMeta(testVehicle(schemas.VehicleUnderReview, 90, 200), now)

	assert.False(t, meta.CanRequestReview)
	assert.False(t, meta.CanActivate)
}

func TestDocumentsValid(t *testing.T) {
	assert.True(t, DocumentsValid(testVehicle(schemas.VehicleVerified, 90, 200), now))
	assert.False(t, DocumentsValid(testVehicle(schemas.VehicleVerified, -1, 200), now))
	assert.False(t, DocumentsValid(testVehicle(schemas.VehicleVerified, 90, -1), now))

	missing := testVehicle(schemas.VehicleVerified, 90, 200)
	missing.SoatExpiration = nil
	assert.False(t, DocumentsValid(missing, now))
}
