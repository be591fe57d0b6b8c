package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/interfaces"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/validators"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/vehicles"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
}

type VehicleHdl interface {
	ListVehicles(c *gin.Context)
	CreateVehicle(c *gin.Context)
	UpdateVehicle(c *gin.Context)
	DeleteVehicle(c *gin.Context)
	ActivateVehicle(c *gin.Context)
	ValidateVehicle(c *gin.Context)
	RequestReview(c *gin.Context)
	AddPickupPoint(c *gin.Context)
	UpdatePickupPoint(c *gin.Context)
	DeletePickupPoint(c *gin.Context)
}

type VehicleHandler struct {
	DatabaseManager managers.DatabaseMgr
	StorageManager  managers.StorageMgr
	Validator       *validators.Validator
}

func NewVehicleHandler(databaseManager *managers.DatabaseMgr, storageManager *managers.StorageMgr) VehicleHdl {
	return &VehicleHandler{
		DatabaseManager: *databaseManager,
		StorageManager:  *storageManager,
		Validator:       validators.GetValidator(),
	}
}

func capacityBounds() (int, int) {
	min, max := 1, 8
	if raw := os.Getenv("VEHICLE_MIN_CAPACITY"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			min = v
		}
	}
	if raw := os.Getenv("VEHICLE_MAX_CAPACITY"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			max = v
		}
	}
	return min, max
}

func uploadSizeLimit() int64 {
	maxMB := int64(5)
	if raw := os.Getenv("UPLOAD_MAX_SIZE_MB"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			maxMB = v
		}
	}
	return maxMB << 20
}

// ListVehicles returns the caller's vehicles, each decorated with its meta block.
func (handler *VehicleHandler) ListVehicles(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	queryString := "SELECT " + vehicleColumns + " FROM wheels_schema.vehicles WHERE owner_id = $1 ORDER BY created_at"
	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	now := time.Now()
	result := make([]schemas.VehicleDTO, 0)
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		result = append(result, schemas.VehicleDTO{Vehicle: *vehicle, Meta: vehicles.BuildMeta(vehicle, now)})
	}
	rows.Close()

	for i := range result {
		points, err := loadVehiclePickupPoints(ctx, handler.DatabaseManager.GetPool(), result[i].ID)
		if err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		result[i].PickupPoints = points
	}

	utils.WriteAndLogResponse(c, result, http.StatusOK)
}

// CreateVehicle registers a vehicle for the caller from a JSON or multipart
// payload. Successful creation grants the driver role and adopts the vehicle
// as active when none is set.
func (handler *VehicleHandler) CreateVehicle(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	payload, savedBlobs, err := handler.readVehiclePayload(c)
	if err != nil {
		for _, blob := range savedBlobs {
			_ = handler.StorageManager.Delete(blob)
		}
		return
	}

	rollbackBlobs := func() {
		for _, blob := range savedBlobs {
			if delErr := handler.StorageManager.Delete(blob); delErr != nil {
				utils.LogMessageWithFields(c, "warn", "Blob rollback failed: "+delErr.Error())
			}
		}
	}

	if fieldErrors := validateVehiclePayload(payload); len(fieldErrors) > 0 {
		rollbackBlobs()
		utils.WriteAndLogError(c, vehicleValidationError(fieldErrors), http.StatusBadRequest, errors.New(fieldErrors[0].Error))
		return
	}

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		rollbackBlobs()
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	if err = checkPlateTaken(transactionCtx, c, tx, validators.NormalizePlate(payload.Plate)); err != nil {
		rollbackBlobs()
		return
	}

	now := time.Now()
	vehicleId, err := insertVehicle(transactionCtx, tx, uuid.MustParse(userId), payload, now)
	if err != nil {
		rollbackBlobs()
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Grant the driver role when missing and adopt the vehicle when the
	// owner has no active one
	queryString := `UPDATE wheels_schema.users SET
		roles = CASE WHEN $1 = ANY(roles) THEN roles ELSE array_append(roles, $1) END,
		active_vehicle = COALESCE(active_vehicle, $2),
		updated_at = $3
		WHERE user_id = $4`
	if _, err = tx.Exec(transactionCtx, queryString, schemas.RoleDriver, vehicleId, now, userId); err != nil {
		rollbackBlobs()
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	vehicle, err := fetchVehicleTx(transactionCtx, tx, vehicleId.String())
	if err != nil {
		rollbackBlobs()
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		rollbackBlobs()
		return
	}

	utils.WriteAndLogResponse(c, schemas.VehicleDTO{Vehicle: *vehicle, Meta: vehicles.BuildMeta(vehicle, now)}, http.StatusCreated)
}

// UpdateVehicle applies a field-wise partial update. Material mutations reset
// the verification status to pending and clear the review metadata. A
// supplied pickupPoints list fully replaces the prior one.
func (handler *VehicleHandler) UpdateVehicle(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	vehicleId := c.Param(utils.VehicleIdKey)

	updateRequest, savedBlobs, err := handler.readVehicleUpdate(c)
	if err != nil {
		for _, blob := range savedBlobs {
			_ = handler.StorageManager.Delete(blob)
		}
		return
	}
	// Saved blobs are rolled back unless the update commits
	committed := false
	defer func() {
		if committed {
			return
		}
		for _, blob := range savedBlobs {
			if delErr := handler.StorageManager.Delete(blob); delErr != nil {
				utils.LogMessageWithFields(c, "warn", "Blob rollback failed: "+delErr.Error())
			}
		}
	}()

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	vehicle, err := fetchVehicleTx(transactionCtx, tx, vehicleId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.VehicleNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if vehicle.OwnerID.String() != userId {
		err = errors.New("vehicle not owned by caller")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	originalPlate := vehicle.Plate
	material := applyVehicleUpdate(vehicle, updateRequest)

	minCap, maxCap := capacityBounds()
	if vehicle.Capacity < minCap || vehicle.Capacity > maxCap {
		err = fmt.Errorf("capacity outside [%d,%d]", minCap, maxCap)
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}
	if !validators.PlateValid(vehicle.Plate) {
		err = errors.New("plate does not match the accepted formats")
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	if vehicle.Plate != originalPlate {
		// Plate unchanged after normalization is not a conflict
		if err = checkPlateTaken(transactionCtx, c, tx, vehicle.Plate); err != nil {
			return
		}
	}

	now := time.Now()
	if material {
		vehicle.Status = schemas.VehiclePending
		vehicle.StatusUpdatedAt = &now
		vehicle.RequestedReviewAt = nil
		vehicle.ReviewedAt = nil
		vehicle.ReviewedBy = nil
		vehicle.VerificationNotes = ""
	}

	queryString := `UPDATE wheels_schema.vehicles SET
		plate = $1, brand = $2, model = $3, capacity = $4, year = $5, color = $6,
		vehicle_photo_url = $7, soat_photo_url = $8, license_photo_url = $9,
		soat_expiration = $10, license_number = $11, license_expiration = $12,
		status = $13, status_updated_at = $14, requested_review_at = $15,
		reviewed_at = $16, reviewed_by = $17, verification_notes = $18, updated_at = $19
		WHERE vehicle_id = $20`
	if _, err = tx.Exec(transactionCtx, queryString, vehicle.Plate, vehicle.Brand, vehicle.Model,
		vehicle.Capacity, vehicle.Year, vehicle.Color, vehicle.VehiclePhotoURL, vehicle.SoatPhotoURL,
		vehicle.LicensePhotoURL, vehicle.SoatExpiration, vehicle.LicenseNumber, vehicle.LicenseExpiration,
		vehicle.Status, vehicle.StatusUpdatedAt, vehicle.RequestedReviewAt, vehicle.ReviewedAt,
		vehicle.ReviewedBy, vehicle.VerificationNotes, now, vehicleId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if updateRequest.PickupPoints != nil {
		if err = replaceVehiclePickupPoints(transactionCtx, tx, vehicle.ID, updateRequest.PickupPoints); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}
	committed = true

	vehicle.UpdatedAt = now
	utils.WriteAndLogResponse(c, schemas.VehicleDTO{Vehicle: *vehicle, Meta: vehicles.BuildMeta(vehicle, now)}, http.StatusOK)
}

// DeleteVehicle removes a vehicle unless future scheduled or full trips
// reference it, then recomputes the owner's driver capability.
func (handler *VehicleHandler) DeleteVehicle(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	vehicleId := c.Param(utils.VehicleIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	vehicle, err := fetchVehicleTx(transactionCtx, tx, vehicleId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.VehicleNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if vehicle.OwnerID.String() != userId {
		err = errors.New("vehicle not owned by caller")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	var blockingTrips int
	queryString := `SELECT COUNT(*) FROM wheels_schema.trips
		WHERE vehicle_id = $1 AND status IN ($2, $3) AND departure_at >= $4`
	if err = tx.QueryRow(transactionCtx, queryString, vehicleId, schemas.TripScheduled, schemas.TripFull, time.Now()).Scan(&blockingTrips); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if blockingTrips > 0 {
		err = errors.New("vehicle referenced by future trips")
		utils.WriteAndLogError(c, schemas.BlockedByActiveTrips, http.StatusBadRequest, err)
		return
	}

	queryString = "DELETE FROM wheels_schema.vehicles WHERE vehicle_id = $1"
	if _, err = tx.Exec(transactionCtx, queryString, vehicleId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Recompute driver capability: prefer a vehicle with valid documents,
	// then the oldest
	var nextVehicle uuid.UUID
	now := time.Now()
	queryString = `SELECT vehicle_id FROM wheels_schema.vehicles WHERE owner_id = $1
		ORDER BY (soat_expiration >= $2 AND license_expiration >= $2) DESC, created_at LIMIT 1`
	scanErr := tx.QueryRow(transactionCtx, queryString, userId, now).Scan(&nextVehicle)

	switch {
	case errors.Is(scanErr, pgx.ErrNoRows):
		queryString = `UPDATE wheels_schema.users SET
			roles = array_remove(roles, $1), active_role = $2, active_vehicle = NULL, updated_at = $3
			WHERE user_id = $4`
		if _, err = tx.Exec(transactionCtx, queryString, schemas.RoleDriver, schemas.RolePassenger, now, userId); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	case scanErr != nil:
		err = scanErr
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	default:
		queryString = "UPDATE wheels_schema.users SET active_vehicle = $1, updated_at = $2 WHERE user_id = $3"
		if _, err = tx.Exec(transactionCtx, queryString, nextVehicle, now, userId); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"message": "vehicle deleted"}, http.StatusOK)
}

// ActivateVehicle selects the vehicle as the owner's active one. Requires
// verified status and valid documents.
func (handler *VehicleHandler) ActivateVehicle(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	vehicleId := c.Param(utils.VehicleIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	vehicle, err := fetchVehicleTx(transactionCtx, tx, vehicleId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.VehicleNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if vehicle.OwnerID.String() != userId {
		err = errors.New("vehicle not owned by caller")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	now := time.Now()
	if vehicle.Status != schemas.VehicleVerified || !vehicles.DocumentsValid(vehicle, now) {
		err = errors.New("vehicle not verified or documents expired")
		utils.WriteAndLogError(c, schemas.DocumentsInvalid, http.StatusBadRequest, err)
		return
	}

	queryString := "UPDATE wheels_schema.users SET active_vehicle = $1, updated_at = $2 WHERE user_id = $3"
	if _, err = tx.Exec(transactionCtx, queryString, vehicleId, now, userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, schemas.VehicleDTO{Vehicle: *vehicle, Meta: vehicles.BuildMeta(vehicle, now)}, http.StatusOK)
}

// ValidateVehicle dry-runs payload validation without persisting anything.
// It binds the body itself so field errors are reported instead of rejected.
func (handler *VehicleHandler) ValidateVehicle(c *gin.Context) {
	payload := &schemas.VehiclePayload{}
	if err := c.ShouldBindJSON(payload); err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}
	if err := handler.Validator.SanitizeData(payload); err != nil {
		utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	fieldErrors := validateVehiclePayload(payload)
	utils.WriteAndLogResponse(c, schemas.ValidationResultDTO{
		Valid:  len(fieldErrors) == 0,
		Errors: fieldErrors,
	}, http.StatusOK)
}

// RequestReview moves a pending, rejected or needs_update vehicle to
// under_review, provided its documents are not expired.
func (handler *VehicleHandler) RequestReview(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	vehicleId := c.Param(utils.VehicleIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	now := time.Now()
	queryString := `UPDATE wheels_schema.vehicles SET
		status = $1, status_updated_at = $2, requested_review_at = $2, updated_at = $2
		WHERE vehicle_id = $3 AND owner_id = $4 AND status IN ($5, $6, $7)
		AND soat_expiration >= $2 AND license_expiration >= $2`
	tag, err := tx.Exec(transactionCtx, queryString, schemas.VehicleUnderReview, now, vehicleId, userId,
		schemas.VehiclePending, schemas.VehicleRejected, schemas.VehicleNeedsUpdate)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if tag.RowsAffected() == 0 {
		// Re-read to explain the refusal
		vehicle, readErr := fetchVehicleTx(transactionCtx, tx, vehicleId)
		switch {
		case errors.Is(readErr, pgx.ErrNoRows):
			err = readErr
			utils.WriteAndLogError(c, schemas.VehicleNotFound, http.StatusNotFound, err)
		case readErr != nil:
			err = readErr
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		case vehicle.OwnerID.String() != userId:
			err = errors.New("vehicle not owned by caller")
			utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		case !vehicles.DocumentsValid(vehicle, now):
			err = errors.New("documents expired")
			utils.WriteAndLogError(c, schemas.ExpiredDocument, http.StatusBadRequest, err)
		default:
			err = errors.New("status does not allow requesting review")
			utils.WriteAndLogError(c, schemas.InvalidTransition, http.StatusBadRequest, err)
		}
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"status": schemas.VehicleUnderReview}, http.StatusOK)
}

// AddPickupPoint appends a pickup point to a vehicle the caller owns.
func (handler *VehicleHandler) AddPickupPoint(c *gin.Context) {
	handler.mutatePickupPoint(c, func(ctx context.Context, tx pgx.Tx, vehicleId string, request *schemas.PickupPointRequest, pointId string) error {
		queryString := `INSERT INTO wheels_schema.vehicle_pickup_points (point_id, vehicle_id, name, description, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6)`
		_, err := tx.Exec(ctx, queryString, uuid.New(), vehicleId,
			strings.TrimSpace(request.Name), request.Description, request.Lat, request.Lng)
		return err
	}, http.StatusCreated)
}

// UpdatePickupPoint rewrites one pickup point in place.
func (handler *VehicleHandler) UpdatePickupPoint(c *gin.Context) {
	handler.mutatePickupPoint(c, func(ctx context.Context, tx pgx.Tx, vehicleId string, request *schemas.PickupPointRequest, pointId string) error {
		queryString := `UPDATE wheels_schema.vehicle_pickup_points SET name = $1, description = $2, lat = $3, lng = $4
			WHERE point_id = $5 AND vehicle_id = $6`
		tag, err := tx.Exec(ctx, queryString, strings.TrimSpace(request.Name), request.Description,
			request.Lat, request.Lng, pointId, vehicleId)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}, http.StatusOK)
}

// DeletePickupPoint removes one pickup point from the vehicle catalog.
func (handler *VehicleHandler) DeletePickupPoint(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	vehicleId := c.Param(utils.VehicleIdKey)
	pointId := c.Param(utils.PointIdKey)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	if err = checkVehicleOwnership(transactionCtx, c, tx, vehicleId, userId); err != nil {
		return
	}

	queryString := "DELETE FROM wheels_schema.vehicle_pickup_points WHERE point_id = $1 AND vehicle_id = $2"
	tag, err := tx.Exec(transactionCtx, queryString, pointId, vehicleId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if tag.RowsAffected() == 0 {
		err = errors.New("pickup point not found")
		utils.WriteAndLogError(c, schemas.PickupPointNotFound, http.StatusNotFound, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"message": "pickup point deleted"}, http.StatusOK)
}

type pickupPointMutation func(ctx context.Context, tx pgx.Tx, vehicleId string, request *schemas.PickupPointRequest, pointId string) error

func (handler *VehicleHandler) mutatePickupPoint(c *gin.Context, mutate pickupPointMutation, successStatus int) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	vehicleId := c.Param(utils.VehicleIdKey)
	pointId := c.Param(utils.PointIdKey)

	request := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.PickupPointRequest)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	if err = checkVehicleOwnership(transactionCtx, c, tx, vehicleId, userId); err != nil {
		return
	}

	if err = mutate(transactionCtx, tx, vehicleId, request, pointId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.PickupPointNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"message": "pickup point saved"}, successStatus)
}

// readVehicleUpdate extracts the partial update from a JSON or multipart
// request, saving uploaded documents through the blob store.
func (handler *VehicleHandler) readVehicleUpdate(c *gin.Context) (*schemas.UpdateVehicleRequest, []string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		updateRequest := &schemas.UpdateVehicleRequest{}
		if err := c.ShouldBindJSON(updateRequest); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return nil, nil, err
		}
		if err := handler.Validator.SanitizeData(updateRequest); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return nil, nil, err
		}
		if err := handler.Validator.Validate.Struct(updateRequest); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return nil, nil, err
		}
		return updateRequest, nil, nil
	}

	updateRequest := &schemas.UpdateVehicleRequest{}
	formString := func(field string) *string {
		if value, ok := c.GetPostForm(field); ok {
			return &value
		}
		return nil
	}

	updateRequest.Plate = formString("plate")
	updateRequest.Brand = formString("brand")
	updateRequest.Model = formString("model")
	updateRequest.Color = formString("color")
	updateRequest.LicenseNumber = formString("licenseNumber")
	if raw, ok := c.GetPostForm("capacity"); ok {
		if capacity, err := strconv.Atoi(raw); err == nil {
			updateRequest.Capacity = &capacity
		}
	}
	if raw, ok := c.GetPostForm("year"); ok {
		if year, err := strconv.Atoi(raw); err == nil {
			updateRequest.Year = &year
		}
	}
	if raw, ok := c.GetPostForm("soatExpiration"); ok {
		if soat, err := time.Parse(time.RFC3339, raw); err == nil {
			updateRequest.SoatExpiration = &soat
		}
	}
	if raw, ok := c.GetPostForm("licenseExpiration"); ok {
		if license, err := time.Parse(time.RFC3339, raw); err == nil {
			updateRequest.LicenseExpiration = &license
		}
	}

	var savedBlobs []string
	saveUpload := func(field string, target **string) error {
		fileHeader, err := c.FormFile(field)
		if err != nil {
			return nil
		}

		var path string
		if uploadErr := handler.saveUpload(fileHeader, &path, &savedBlobs); uploadErr != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, uploadErr)
			return uploadErr
		}
		*target = &path
		return nil
	}

	if err := saveUpload("vehiclePhoto", &updateRequest.VehiclePhotoURL); err != nil {
		return nil, savedBlobs, err
	}
	if err := saveUpload("soatPhoto", &updateRequest.SoatPhotoURL); err != nil {
		return nil, savedBlobs, err
	}
	if err := saveUpload("licensePhoto", &updateRequest.LicensePhotoURL); err != nil {
		return nil, savedBlobs, err
	}

	return updateRequest, savedBlobs, nil
}

// readVehiclePayload extracts the vehicle payload from a JSON or multipart
// request. Uploaded files are saved through the blob store; the returned
// paths let the caller roll them back on failure.
func (handler *VehicleHandler) readVehiclePayload(c *gin.Context) (*schemas.VehiclePayload, []string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		payload := &schemas.VehiclePayload{}
		if err := c.ShouldBindJSON(payload); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return nil, nil, err
		}
		if err := handler.Validator.SanitizeData(payload); err != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return nil, nil, err
		}
		return payload, nil, nil
	}

	payload := &schemas.VehiclePayload{
		Plate:         c.PostForm("plate"),
		Brand:         c.PostForm("brand"),
		Model:         c.PostForm("model"),
		Color:         c.PostForm("color"),
		LicenseNumber: c.PostForm("licenseNumber"),
	}

	if capacity, err := strconv.Atoi(c.PostForm("capacity")); err == nil {
		payload.Capacity = capacity
	}
	if year, err := strconv.Atoi(c.PostForm("year")); err == nil {
		payload.Year = &year
	}
	if soat, err := time.Parse(time.RFC3339, c.PostForm("soatExpiration")); err == nil {
		payload.SoatExpiration = &soat
	}
	if license, err := time.Parse(time.RFC3339, c.PostForm("licenseExpiration")); err == nil {
		payload.LicenseExpiration = &license
	}

	var savedBlobs []string
	saveUpload := func(field string, target *string) error {
		fileHeader, err := c.FormFile(field)
		if err != nil {
			// Absent files are fine, the URL fields may carry paths instead
			return nil
		}

		if uploadErr := handler.saveUpload(fileHeader, target, &savedBlobs); uploadErr != nil {
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, uploadErr)
			return uploadErr
		}
		return nil
	}

	if err := saveUpload("vehiclePhoto", &payload.VehiclePhotoURL); err != nil {
		return nil, savedBlobs, err
	}
	if err := saveUpload("soatPhoto", &payload.SoatPhotoURL); err != nil {
		return nil, savedBlobs, err
	}
	if err := saveUpload("licensePhoto", &payload.LicensePhotoURL); err != nil {
		return nil, savedBlobs, err
	}

	return payload, savedBlobs, nil
}

func (handler *VehicleHandler) saveUpload(fileHeader *multipart.FileHeader, target *string, savedBlobs *[]string) error {
	if fileHeader.Size > uploadSizeLimit() {
		return fmt.Errorf("file %s exceeds the upload size limit", fileHeader.Filename)
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return fmt.Errorf("file type %s is not allowed", contentType)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	relative, err := handler.StorageManager.Save(fileHeader.Filename, file)
	if err != nil {
		return err
	}

	*savedBlobs = append(*savedBlobs, relative)
	*target = relative
	return nil
}

// validateVehiclePayload collects the field-level failures surfaced by the
// dry-run endpoint and enforced on create.
func validateVehiclePayload(payload *schemas.VehiclePayload) []schemas.FieldErrorDTO {
	var fieldErrors []schemas.FieldErrorDTO

	if !validators.PlateValid(payload.Plate) {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "plate", Error: "plate must match ABC123 or ABC12D"})
	}
	if payload.Brand == "" {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "brand", Error: "brand is required"})
	}
	if payload.Model == "" {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "model", Error: "model is required"})
	}

	minCap, maxCap := capacityBounds()
	if payload.Capacity < minCap || payload.Capacity > maxCap {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "capacity", Error: fmt.Sprintf("capacity must be between %d and %d", minCap, maxCap)})
	}

	now := time.Now()
	if payload.SoatExpiration == nil || payload.SoatExpiration.Before(now) {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "soatExpiration", Error: "SOAT expiration must be in the future"})
	}
	if payload.LicenseNumber == "" {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "licenseNumber", Error: "license number is required"})
	}
	if payload.LicenseExpiration == nil || payload.LicenseExpiration.Before(now) {
		fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: "licenseExpiration", Error: "license expiration must be in the future"})
	}

	return fieldErrors
}

// vehicleValidationError picks the taxonomy code for the first field failure.
func vehicleValidationError(fieldErrors []schemas.FieldErrorDTO) *schemas.CustomError {
	for _, fieldError := range fieldErrors {
		if fieldError.Field == "soatExpiration" || fieldError.Field == "licenseExpiration" {
			return schemas.ExpiredDocument
		}
	}
	return schemas.BadRequest
}

// applyVehicleUpdate merges the partial update into the vehicle and reports
// whether a material field changed.
func applyVehicleUpdate(vehicle *schemas.Vehicle, update *schemas.UpdateVehicleRequest) bool {
	material := false

	setString := func(target *string, value *string, isMaterial bool) {
		if value != nil && *value != *target {
			*target = *value
			material = material || isMaterial
		}
	}

	if update.Plate != nil {
		normalized := validators.NormalizePlate(*update.Plate)
		if normalized != vehicle.Plate {
			vehicle.Plate = normalized
			material = true
		}
	}
	setString(&vehicle.Brand, update.Brand, true)
	setString(&vehicle.Model, update.Model, true)
	if update.Capacity != nil && *update.Capacity != vehicle.Capacity {
		vehicle.Capacity = *update.Capacity
		material = true
	}
	if update.Year != nil {
		vehicle.Year = update.Year
	}
	setString(&vehicle.Color, update.Color, false)
	setString(&vehicle.VehiclePhotoURL, update.VehiclePhotoURL, false)
	setString(&vehicle.SoatPhotoURL, update.SoatPhotoURL, true)
	setString(&vehicle.LicensePhotoURL, update.LicensePhotoURL, true)
	setString(&vehicle.LicenseNumber, update.LicenseNumber, true)
	if update.SoatExpiration != nil && (vehicle.SoatExpiration == nil || !update.SoatExpiration.Equal(*vehicle.SoatExpiration)) {
		vehicle.SoatExpiration = update.SoatExpiration
		material = true
	}
	if update.LicenseExpiration != nil && (vehicle.LicenseExpiration == nil || !update.LicenseExpiration.Equal(*vehicle.LicenseExpiration)) {
		vehicle.LicenseExpiration = update.LicenseExpiration
		material = true
	}

	return material
}

const vehicleColumns = `vehicle_id, owner_id, plate, brand, model, capacity, year, color,
	vehicle_photo_url, soat_photo_url, license_photo_url,
	soat_expiration, license_number, license_expiration,
	status, status_updated_at, requested_review_at, reviewed_at, reviewed_by,
	verification_notes, created_at, updated_at`

func scanVehicle(row pgx.Row) (*schemas.Vehicle, error) {
	vehicle := &schemas.Vehicle{}
	err := row.Scan(&vehicle.ID, &vehicle.OwnerID, &vehicle.Plate, &vehicle.Brand, &vehicle.Model,
		&vehicle.Capacity, &vehicle.Year, &vehicle.Color, &vehicle.VehiclePhotoURL,
		&vehicle.SoatPhotoURL, &vehicle.LicensePhotoURL, &vehicle.SoatExpiration,
		&vehicle.LicenseNumber, &vehicle.LicenseExpiration, &vehicle.Status,
		&vehicle.StatusUpdatedAt, &vehicle.RequestedReviewAt, &vehicle.ReviewedAt,
		&vehicle.ReviewedBy, &vehicle.VerificationNotes, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func fetchVehicleTx(ctx context.Context, tx pgx.Tx, vehicleId string) (*schemas.Vehicle, error) {
	queryString := "SELECT " + vehicleColumns + " FROM wheels_schema.vehicles WHERE vehicle_id = $1"
	return scanVehicle(tx.QueryRow(ctx, queryString, vehicleId))
}

func checkVehicleOwnership(ctx context.Context, c *gin.Context, tx pgx.Tx, vehicleId, userId string) error {
	var ownerId uuid.UUID
	queryString := "SELECT owner_id FROM wheels_schema.vehicles WHERE vehicle_id = $1"
	if err := tx.QueryRow(ctx, queryString, vehicleId).Scan(&ownerId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.VehicleNotFound, http.StatusNotFound, err)
			return err
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return err
	}

	if ownerId.String() != userId {
		err := errors.New("vehicle not owned by caller")
		utils.WriteAndLogError(c, schemas.Forbidden, http.StatusForbidden, err)
		return err
	}

	return nil
}

func loadVehiclePickupPoints(ctx context.Context, pool interfaces.PgxPoolIface, vehicleId uuid.UUID) ([]schemas.PickupPoint, error) {
	queryString := `SELECT point_id, name, description, lat, lng
		FROM wheels_schema.vehicle_pickup_points WHERE vehicle_id = $1 ORDER BY name`
	rows, err := pool.Query(ctx, queryString, vehicleId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]schemas.PickupPoint, 0)
	for rows.Next() {
		point := schemas.PickupPoint{}
		if err := rows.Scan(&point.ID, &point.Name, &point.Description, &point.Lat, &point.Lng); err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, nil
}

func replaceVehiclePickupPoints(ctx context.Context, tx pgx.Tx, vehicleId uuid.UUID, points []schemas.PickupPointRequest) error {
	queryString := "DELETE FROM wheels_schema.vehicle_pickup_points WHERE vehicle_id = $1"
	if _, err := tx.Exec(ctx, queryString, vehicleId); err != nil {
		return err
	}

	for _, point := range points {
		queryString = `INSERT INTO wheels_schema.vehicle_pickup_points (point_id, vehicle_id, name, description, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.Exec(ctx, queryString, uuid.New(), vehicleId,
			strings.TrimSpace(point.Name), point.Description, point.Lat, point.Lng); err != nil {
			return err
		}
	}

	return nil
}
