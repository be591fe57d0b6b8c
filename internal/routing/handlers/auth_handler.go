package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/interfaces"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/managers"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/validators"
)

// resetTokenTTL is deliberately the tighter of the two windows the product
// has used for password resets.
const resetTokenTTL = 15 * time.Minute

type AuthHdl interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Me(c *gin.Context)
	UpdateProfile(c *gin.Context)
	Logout(c *gin.Context)
	SwitchRole(c *gin.Context)
	ForgotPassword(c *gin.Context)
	ResetPassword(c *gin.Context)
}

type AuthHandler struct {
	DatabaseManager   managers.DatabaseMgr
	JWTManager        managers.JWTMgr
	MailManager       managers.MailMgr
	RevocationManager managers.RevocationMgr
	Validator         *validators.Validator
}

func NewAuthHandler(databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr,
	mailManager *managers.MailMgr, revocationManager *managers.RevocationMgr) AuthHdl {
	return &AuthHandler{
		DatabaseManager:   *databaseManager,
		JWTManager:        *jwtManager,
		MailManager:       *mailManager,
		RevocationManager: *revocationManager,
		Validator:         validators.GetValidator(),
	}
}

// Register creates a new account. Driver registrations create the vehicle in
// the same transaction and adopt it as the active vehicle.
func (handler *AuthHandler) Register(c *gin.Context) {
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	registrationRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.RegistrationRequest)
	email := strings.ToLower(registrationRequest.Email)

	// Check if the email or university id is taken
	if err = checkEmailUniversityIdTaken(transactionCtx, c, tx, email, registrationRequest.UniversityID); err != nil {
		return
	}

	role := registrationRequest.Role
	if role == "" {
		role = schemas.RolePassenger
	}

	if role == schemas.RoleDriver {
		if registrationRequest.Vehicle == nil {
			err = errors.New("driver registration without vehicle payload")
			utils.WriteAndLogError(c, schemas.BadRequest, http.StatusBadRequest, err)
			return
		}
		if err = checkVehicleDocuments(c, registrationRequest.Vehicle); err != nil {
			return
		}
		if err = checkPlateTaken(transactionCtx, c, tx, validators.NormalizePlate(registrationRequest.Vehicle.Plate)); err != nil {
			return
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registrationRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	userId := uuid.New()
	createdAt := time.Now()
	roles := []string{schemas.RolePassenger}
	if role == schemas.RoleDriver {
		roles = append(roles, schemas.RoleDriver)
	}

	queryString := `INSERT INTO wheels_schema.users
		(user_id, email, password, first_name, last_name, university_id, phone, photo_url, roles, active_role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	if _, err = tx.Exec(transactionCtx, queryString, userId, email, hashedPassword,
		registrationRequest.FirstName, registrationRequest.LastName, registrationRequest.UniversityID,
		registrationRequest.Phone, registrationRequest.PhotoURL, roles, role, createdAt); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	var vehicleId *uuid.UUID
	if role == schemas.RoleDriver {
		id, insertErr := insertVehicle(transactionCtx, tx, userId, registrationRequest.Vehicle, createdAt)
		if insertErr != nil {
			err = insertErr
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		vehicleId = &id

		queryString = "UPDATE wheels_schema.users SET active_vehicle = $1 WHERE user_id = $2"
		if _, err = tx.Exec(transactionCtx, queryString, id, userId); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	// The welcome mail must not fail the registration
	if mailErr := handler.MailManager.SendWelcomeMail(email, registrationRequest.FirstName); mailErr != nil {
		utils.LogMessageWithFields(c, "warn", "Welcome mail failed: "+mailErr.Error())
	}

	user := &schemas.User{
		ID:            userId,
		Email:         email,
		FirstName:     registrationRequest.FirstName,
		LastName:      registrationRequest.LastName,
		UniversityID:  registrationRequest.UniversityID,
		Phone:         registrationRequest.Phone,
		PhotoURL:      registrationRequest.PhotoURL,
		Roles:         roles,
		ActiveRole:    role,
		ActiveVehicle: vehicleId,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	utils.WriteAndLogResponse(c, user, http.StatusCreated)
}

// Login verifies credentials and issues a bearer token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (handler *AuthHandler) Login(c *gin.Context) {
	loginRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.LoginRequest)
	email := strings.ToLower(loginRequest.Email)

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	var userId uuid.UUID
	var hashedPassword string
	queryString := "SELECT user_id, password FROM wheels_schema.users WHERE email = $1"
	if err := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, email).Scan(&userId, &hashedPassword); err != nil {
		utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, errors.New("unknown email"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(loginRequest.Password)); err != nil {
		utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, err)
		return
	}

	token, err := handler.JWTManager.GenerateJWT(userId.String(), email)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.TokenDTO{Token: token}, http.StatusOK)
}

// Me returns the authenticated user's profile.
func (handler *AuthHandler) Me(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	ctx, cancel := context.WithDeadline(c.Request.Context(), time.Now().Add(10*time.Second))
	defer cancel()

	user, err := fetchUser(ctx, handler.DatabaseManager.GetPool(), userId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(c, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, user, http.StatusOK)
}

// UpdateProfile applies a field-wise partial update to the mutable profile
// fields.
func (handler *AuthHandler) UpdateProfile(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	updateRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.UpdateProfileRequest)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	queryString := `UPDATE wheels_schema.users SET
		first_name = COALESCE($1, first_name),
		last_name = COALESCE($2, last_name),
		phone = COALESCE($3, phone),
		photo_url = COALESCE($4, photo_url),
		emergency_contact = COALESCE($5, emergency_contact),
		preferred_payment_method = COALESCE($6, preferred_payment_method),
		updated_at = $7
		WHERE user_id = $8`
	if _, err = tx.Exec(transactionCtx, queryString, updateRequest.FirstName, updateRequest.LastName,
		updateRequest.Phone, updateRequest.PhotoURL, updateRequest.EmergencyContact,
		updateRequest.PreferredPaymentMethod, time.Now(), userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	user, err := fetchUserTx(transactionCtx, tx, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, user, http.StatusOK)
}

// Logout revokes the presented token server-side until it expires.
func (handler *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(utils.BearerTokenKey.String())
	claims, ok := c.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	if token == "" || !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	exp := time.Now().Add(managers.TokenTTL)
	if expClaim, err := claims.GetExpirationTime(); err == nil && expClaim != nil {
		exp = expClaim.Time
	}

	if err := handler.RevocationManager.Revoke(c.Request.Context(), token, exp); err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"message": "logged out"}, http.StatusOK)
}

// SwitchRole changes the caller's active role. Switching to driver requires a
// verified vehicle with valid documents; the first eligible vehicle is
// adopted when no active vehicle is set.
func (handler *AuthHandler) SwitchRole(c *gin.Context) {
	userId, _, ok := currentUser(c)
	if !ok {
		utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	roleRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.RoleSwitchRequest)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	user, err := fetchUserTx(transactionCtx, tx, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !containsRole(user.Roles, roleRequest.Role) {
		err = errors.New("role not in capability set")
		utils.WriteAndLogError(c, schemas.RoleNotEnabled, http.StatusForbidden, err)
		return
	}

	if roleRequest.Role == schemas.RoleDriver {
		var eligibleVehicle uuid.UUID
		queryString := `SELECT vehicle_id FROM wheels_schema.vehicles
			WHERE owner_id = $1 AND status = $2 AND soat_expiration >= $3 AND license_expiration >= $3
			ORDER BY created_at LIMIT 1`
		if err = tx.QueryRow(transactionCtx, queryString, userId, schemas.VehicleVerified, time.Now()).Scan(&eligibleVehicle); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				utils.WriteAndLogError(c, schemas.DocumentsInvalid, http.StatusBadRequest, errors.New("no verified vehicle with valid documents"))
				return
			}
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}

		if user.ActiveVehicle == nil {
			queryString = "UPDATE wheels_schema.users SET active_vehicle = $1 WHERE user_id = $2"
			if _, err = tx.Exec(transactionCtx, queryString, eligibleVehicle, userId); err != nil {
				utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
				return
			}
			user.ActiveVehicle = &eligibleVehicle
		}
	}

	queryString := "UPDATE wheels_schema.users SET active_role = $1, updated_at = $2 WHERE user_id = $3"
	if _, err = tx.Exec(transactionCtx, queryString, roleRequest.Role, time.Now(), userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	user.ActiveRole = roleRequest.Role
	utils.WriteAndLogResponse(c, user, http.StatusOK)
}

// ForgotPassword always answers 200 to avoid user enumeration. For known
// accounts it stores the sha-256 hash of a fresh secret and mails the raw
// secret out-of-band.
func (handler *AuthHandler) ForgotPassword(c *gin.Context) {
	forgotRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.ForgotPasswordRequest)
	email := strings.ToLower(forgotRequest.Email)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	var userId uuid.UUID
	var firstName string
	queryString := "SELECT user_id, first_name FROM wheels_schema.users WHERE email = $1"
	if err = tx.QueryRow(transactionCtx, queryString, email).Scan(&userId, &firstName); err != nil {
		// Unknown address: same answer, nothing persisted
		_ = tx.Rollback(transactionCtx)
		cancel()
		err = nil
		utils.WriteAndLogResponse(c, gin.H{"message": "if the account exists, a reset mail was sent"}, http.StatusOK)
		return
	}

	secret := make([]byte, 32)
	if _, err = rand.Read(secret); err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}
	rawToken := hex.EncodeToString(secret)
	tokenHash := hashResetToken(rawToken)

	// A new token retires any prior unused ones
	queryString = "UPDATE wheels_schema.password_resets SET used = TRUE WHERE user_id = $1 AND used = FALSE"
	if _, err = tx.Exec(transactionCtx, queryString, userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = `INSERT INTO wheels_schema.password_resets (reset_id, user_id, token_hash, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)`
	now := time.Now()
	if _, err = tx.Exec(transactionCtx, queryString, uuid.New(), userId, tokenHash, now.Add(resetTokenTTL), now); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	if mailErr := handler.MailManager.SendPasswordResetMail(email, firstName, rawToken); mailErr != nil {
		utils.LogMessageWithFields(c, "warn", "Password reset mail failed: "+mailErr.Error())
	}

	utils.WriteAndLogResponse(c, gin.H{"message": "if the account exists, a reset mail was sent"}, http.StatusOK)
}

// ResetPassword redeems a raw reset token exactly once and rewrites the
// password in the same transaction.
func (handler *AuthHandler) ResetPassword(c *gin.Context) {
	resetRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.ResetPasswordRequest)
	tokenHash := hashResetToken(resetRequest.Token)

	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer utils.RollbackTransaction(c, tx, transactionCtx, cancel, err)

	var resetId, userId uuid.UUID
	var expiresAt time.Time
	var used bool
	queryString := "SELECT reset_id, user_id, expires_at, used FROM wheels_schema.password_resets WHERE token_hash = $1"
	if err = tx.QueryRow(transactionCtx, queryString, tokenHash).Scan(&resetId, &userId, &expiresAt, &used); err != nil {
		utils.WriteAndLogError(c, schemas.TokenInvalidOrExpired, http.StatusBadRequest, errors.New("unknown reset token"))
		return
	}

	if used || time.Now().After(expiresAt) {
		err = errors.New("reset token used or expired")
		utils.WriteAndLogError(c, schemas.TokenInvalidOrExpired, http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(resetRequest.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE wheels_schema.users SET password = $1, updated_at = $2 WHERE user_id = $3"
	if _, err = tx.Exec(transactionCtx, queryString, hashedPassword, time.Now(), userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "UPDATE wheels_schema.password_resets SET used = TRUE WHERE reset_id = $1"
	if _, err = tx.Exec(transactionCtx, queryString, resetId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, gin.H{"message": "password updated"}, http.StatusOK)
}

func hashResetToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// currentUser extracts the caller's id and email from the JWT claims.
func currentUser(c *gin.Context) (string, string, bool) {
	claims, ok := c.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	if !ok {
		return "", "", false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return "", "", false
	}
	email, _ := claims["email"].(string)

	return sub, email, true
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

const userColumns = `user_id, email, first_name, last_name, university_id, phone, photo_url,
	roles, active_role, active_vehicle, emergency_contact, preferred_payment_method, created_at, updated_at`

func scanUser(row pgx.Row) (*schemas.User, error) {
	user := &schemas.User{}
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.UniversityID,
		&user.Phone, &user.PhotoURL, &user.Roles, &user.ActiveRole, &user.ActiveVehicle,
		&user.EmergencyContact, &user.PreferredPaymentMethod, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func fetchUser(ctx context.Context, pool interfaces.PgxPoolIface, userId string) (*schemas.User, error) {
	queryString := "SELECT " + userColumns + " FROM wheels_schema.users WHERE user_id = $1"
	return scanUser(pool.QueryRow(ctx, queryString, userId))
}

func fetchUserTx(ctx context.Context, tx pgx.Tx, userId string) (*schemas.User, error) {
	queryString := "SELECT " + userColumns + " FROM wheels_schema.users WHERE user_id = $1"
	return scanUser(tx.QueryRow(ctx, queryString, userId))
}

// checkEmailUniversityIdTaken checks if the email or university id is taken.
func checkEmailUniversityIdTaken(ctx context.Context, c *gin.Context, tx pgx.Tx, email, universityId string) error {
	queryString := "SELECT email FROM wheels_schema.users WHERE email = $1 OR university_id = $2"
	rows, err := tx.Query(ctx, queryString, email, universityId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		err = errors.New("email or university id taken")
		utils.WriteAndLogError(c, schemas.DuplicateEmail, http.StatusConflict, err)
		return err
	}

	return nil
}

func checkPlateTaken(ctx context.Context, c *gin.Context, tx pgx.Tx, plate string) error {
	queryString := "SELECT plate FROM wheels_schema.vehicles WHERE plate = $1"
	rows, err := tx.Query(ctx, queryString, plate)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		err = errors.New("plate taken")
		utils.WriteAndLogError(c, schemas.DuplicatePlate, http.StatusConflict, err)
		return err
	}

	return nil
}

// checkVehicleDocuments rejects document expirations in the past.
func checkVehicleDocuments(c *gin.Context, payload *schemas.VehiclePayload) error {
	now := time.Now()
	if payload.SoatExpiration == nil || payload.SoatExpiration.Before(now) ||
		payload.LicenseExpiration == nil || payload.LicenseExpiration.Before(now) {
		err := errors.New("document expiration in the past")
		utils.WriteAndLogError(c, schemas.ExpiredDocument, http.StatusBadRequest, err)
		return err
	}
	return nil
}

// insertVehicle persists a new vehicle in pending status and returns its id.
func insertVehicle(ctx context.Context, tx pgx.Tx, ownerId uuid.UUID, payload *schemas.VehiclePayload, now time.Time) (uuid.UUID, error) {
	vehicleId := uuid.New()
	queryString := `INSERT INTO wheels_schema.vehicles
		(vehicle_id, owner_id, plate, brand, model, capacity, year, color,
		 vehicle_photo_url, soat_photo_url, license_photo_url,
		 soat_expiration, license_number, license_expiration,
		 status, status_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16, $16)`
	_, err := tx.Exec(ctx, queryString, vehicleId, ownerId, validators.NormalizePlate(payload.Plate),
		payload.Brand, payload.Model, payload.Capacity, payload.Year, payload.Color,
		payload.VehiclePhotoURL, payload.SoatPhotoURL, payload.LicensePhotoURL,
		payload.SoatExpiration, payload.LicenseNumber, payload.LicenseExpiration,
		schemas.VehiclePending, now)
	if err != nil {
		return uuid.UUID{}, err
	}

	return vehicleId, nil
}
