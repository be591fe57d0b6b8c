// Package vehicles holds the pure decoration logic computed on every vehicle
// read. Everything here is deterministic given the vehicle and a clock value.
package vehicles

import (
	"time"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
)

// Document statuses.
const (
	DocValid    = "valid"
	DocExpiring = "expiring"
	DocExpired  = "expired"
	DocMissing  = "missing"
	DocInvalid  = "invalid"
)

// ExpiringWindow is how close to expiry a document is flagged as expiring.
const ExpiringWindow = 30 * 24 * time.Hour

// DocumentMeta computes the state of one document from its expiration date
// and photo path.
func DocumentMeta(expiresAt *time.Time, photoURL string, now time.Time) schemas.DocumentMetaDTO {
	if expiresAt == nil {
		if photoURL == "" {
			return schemas.DocumentMetaDTO{Status: DocMissing}
		}
		return schemas.DocumentMetaDTO{Status: DocInvalid}
	}

	daysLeft := int(expiresAt.Sub(now).Hours() / 24)
	meta := schemas.DocumentMetaDTO{ExpiresAt: expiresAt, DaysLeft: &daysLeft}

	switch {
	case expiresAt.Before(now):
		meta.Status = DocExpired
	case expiresAt.Sub(now) <= ExpiringWindow:
		meta.Status = DocExpiring
	default:
		meta.Status = DocValid
	}

	return meta
}

// DocumentsValid reports whether both expirations are present and not past.
// This is the gate used by trip creation and vehicle activation; the driver
// role switch applies the same expiration check in its SQL query.
func DocumentsValid(v *schemas.Vehicle, now time.Time) bool {
	return v.SoatExpiration != nil && !v.SoatExpiration.Before(now) &&
		v.LicenseExpiration != nil && !v.LicenseExpiration.Before(now)
}

// BuildMeta derives the full decoration block for a vehicle read.
func BuildMeta(v *schemas.Vehicle, now time.Time) schemas.VehicleMetaDTO {
	soat := DocumentMeta(v.SoatExpiration, v.SoatPhotoURL, now)
	license := DocumentMeta(v.LicenseExpiration, v.LicensePhotoURL, now)

	warnings := make([]string, 0, 4)
	warnings = append(warnings, documentWarnings("El SOAT", soat)...)
	warnings = append(warnings, documentWarnings("La licencia", license)...)

	documentsOk := docUsable(soat.Status) && docUsable(license.Status)

	label, severity := statusPresentation(v.Status)

	return schemas.VehicleMetaDTO{
		Soat:             soat,
		License:          license,
		Warnings:         warnings,
		DocumentsOk:      documentsOk,
		CanRequestReview: documentsOk && canRequestReview(v.Status),
		CanActivate:      v.Status == schemas.VehicleVerified && documentsOk,
		StatusLabel:      label,
		Severity:         severity,
	}
}

func docUsable(status string) bool {
	return status == DocValid || status == DocExpiring
}

func canRequestReview(status string) bool {
	switch status {
	case schemas.VehiclePending, schemas.VehicleRejected, schemas.VehicleNeedsUpdate:
		return true
	default:
		return false
	}
}

func documentWarnings(subject string, meta schemas.DocumentMetaDTO) []string {
	switch meta.Status {
	case DocExpired:
		return []string{subject + " está vencido."}
	case DocExpiring:
		return []string{subject + " vence pronto."}
	case DocMissing:
		return []string{subject + " no ha sido cargado."}
	case DocInvalid:
		return []string{subject + " no tiene fecha de vencimiento."}
	default:
		return nil
	}
}

func statusPresentation(status string) (string, string) {
	switch status {
	case schemas.VehiclePending:
		return "Pendiente de verificación", "warning"
	case schemas.VehicleUnderReview:
		return "En revisión", "info"
	case schemas.VehicleVerified:
		return "Verificado", "info"
	case schemas.VehicleRejected:
		return "Rechazado", "error"
	case schemas.VehicleNeedsUpdate:
		return "Requiere actualización", "warning"
	default:
		return status, "info"
	}
}
