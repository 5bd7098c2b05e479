// Package handlers implements the credential and recovery flows: account
// registration, login with transparent legacy credential migration, username
// recovery and the password reset token lifecycle.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"tfc-server/internal/config"
	"tfc-server/internal/managers"
	"tfc-server/internal/schemas"
	"tfc-server/internal/utils"
)

type AuthHdl interface {
	RegisterUser(c *gin.Context)
	LoginUser(c *gin.Context)
	RecoverUsername(c *gin.Context)
	ForgotPassword(c *gin.Context)
	ResetPassword(c *gin.Context)
}

type AuthHandler struct {
	DatabaseManager managers.DatabaseMgr
	MailManager     managers.MailMgr
	Config          *config.Config
}

func NewAuthHandler(databaseManager managers.DatabaseMgr, mailManager managers.MailMgr, cfg *config.Config) AuthHdl {
	return &AuthHandler{
		DatabaseManager: databaseManager,
		MailManager:     mailManager,
		Config:          cfg,
	}
}

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInvalidResetToken  = errors.New("invalid or expired reset token")
)

// Both recovery flows answer with the same confirmation whether or not the
// email matches an account, so the response cannot be used to enumerate
// accounts.
const (
	passwordResetConfirmation    = "If an account with that email exists, a password reset link has been sent."
	usernameRecoveryConfirmation = "If an account with that email exists, an email with your username has been sent."
	passwordResetSuccess         = "Your password has been reset successfully."
)

const resetTokenTTL = 24 * time.Hour

const userColumns = "user_id, username, email, password, name, age, gender, weight, height"

// RegisterUser creates a new account. Uniqueness of username and email is
// enforced by the database constraints, so concurrent registrations with the
// same identifier cannot both succeed.
func (handler *AuthHandler) RegisterUser(c *gin.Context) {
	registrationRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.RegistrationRequest)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(c, tx, transactionCtx, cancel, err) }()

	hashedPassword, err := utils.HashPassword(registrationRequest.Password)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Insert the user into the database
	userId := uuid.New()
	createdAt := time.Now()

	queryString := "INSERT INTO tfc_schema.users (user_id, username, email, password, name, age, gender, weight, height, created_at) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"
	if _, err = tx.Exec(transactionCtx, queryString, userId, registrationRequest.Username, registrationRequest.Email,
		hashedPassword, registrationRequest.Name, registrationRequest.Age, registrationRequest.Gender,
		registrationRequest.Weight, registrationRequest.Height, createdAt); err != nil {
		writeUniqueViolationOrDatabaseError(c, err)
		return
	}

	// Commit the transaction
	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	userDto := &schemas.UserDTO{
		ID:       userId.String(),
		Username: registrationRequest.Username,
		Email:    registrationRequest.Email,
		Name:     registrationRequest.Name,
		Age:      registrationRequest.Age,
		Gender:   registrationRequest.Gender,
		Weight:   registrationRequest.Weight,
		Height:   registrationRequest.Height,
	}

	// Send success response
	utils.WriteAndLogResponse(c, userDto, http.StatusCreated)
}

// LoginUser authenticates the user by username or email. An unknown
// identifier and a wrong password return the same response. A legacy
// plaintext credential that matches is re-hashed and persisted in the same
// transaction before the login succeeds.
func (handler *AuthHandler) LoginUser(c *gin.Context) {
	loginRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.LoginRequest)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(c, tx, transactionCtx, cancel, err) }()

	user, found, err := findUserByIdentifier(transactionCtx, tx, loginRequest.Identifier)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if !found {
		err = errInvalidCredentials
		utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, err)
		return
	}

	match, legacyPlaintext := utils.VerifyPassword(user.Password, loginRequest.Password)
	if !match {
		err = errInvalidCredentials
		utils.WriteAndLogError(c, schemas.InvalidCredentials, http.StatusUnauthorized, err)
		return
	}

	if legacyPlaintext {
		// Transparently upgrade the stored credential before returning
		var newHash string
		if newHash, err = utils.HashPassword(loginRequest.Password); err != nil {
			utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
			return
		}

		queryString := "UPDATE tfc_schema.users SET password = $1 WHERE user_id = $2"
		if _, err = tx.Exec(transactionCtx, queryString, newHash, user.ID); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		utils.LogMessageWithFields(c, "info", "Upgraded legacy credential for user "+user.Username)
	}

	// Commit the transaction
	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	// Send success response
	utils.WriteAndLogResponse(c, userToDTO(user), http.StatusOK)
}

// RecoverUsername emails the user their username. The confirmation message is
// identical whether or not the email matches an account.
func (handler *AuthHandler) RecoverUsername(c *gin.Context) {
	recoverRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.RecoverUsernameRequest)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(c, tx, transactionCtx, cancel, err) }()

	user, found, err := findUser(transactionCtx, tx, "email", recoverRequest.Email)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	if found {
		if err = handler.MailManager.SendUsernameRecoveryMail(recoverRequest.Email, user.Username); err != nil {
			utils.WriteAndLogError(c, schemas.EmailNotSent, http.StatusInternalServerError, err)
			return
		}
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: usernameRecoveryConfirmation}, http.StatusOK)
}

// ForgotPassword issues a reset token valid for 24 hours and emails the reset
// link. The token is committed before the mail is sent: if delivery fails the
// user simply requests a fresh link. The confirmation message is identical
// whether or not the email matches an account.
func (handler *AuthHandler) ForgotPassword(c *gin.Context) {
	forgotRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.ForgotPasswordRequest)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(c, tx, transactionCtx, cancel, err) }()

	user, found, err := findUser(transactionCtx, tx, "email", forgotRequest.Email)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	var resetLink string
	if found {
		var token string
		if token, err = utils.GenerateResetToken(); err != nil {
			utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
			return
		}

		tokenId := uuid.New()
		expiresAt := time.Now().Add(resetTokenTTL)

		queryString := "INSERT INTO tfc_schema.reset_tokens (token_id, user_id, token, expires_at) VALUES ($1, $2, $3, $4)"
		if _, err = tx.Exec(transactionCtx, queryString, tokenId, user.ID, token, expiresAt); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}

		resetLink = handler.Config.FrontendBaseURL + "/reset-password?token=" + token
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	if found {
		if err = handler.MailManager.SendPasswordResetMail(forgotRequest.Email, resetLink); err != nil {
			utils.WriteAndLogError(c, schemas.EmailNotSent, http.StatusInternalServerError, err)
			return
		}
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: passwordResetConfirmation}, http.StatusOK)
}

// ResetPassword completes a password reset. The token row is locked for the
// duration of the transaction, the password update and the token deletion
// commit together, and an expired token is deleted on access. A token can
// therefore never authorize two resets.
func (handler *AuthHandler) ResetPassword(c *gin.Context) {
	resetRequest := c.MustGet(utils.SanitizedPayloadKey.String()).(*schemas.ResetPasswordRequest)

	// Begin a new transaction
	tx, transactionCtx, cancel := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil || transactionCtx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(c, tx, transactionCtx, cancel, err) }()

	userId, expiresAt, found, err := resolveResetToken(transactionCtx, tx, resetRequest.Token)
	if err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if !found {
		err = errInvalidResetToken
		utils.WriteAndLogError(c, schemas.InvalidToken, http.StatusUnauthorized, err)
		return
	}

	if time.Now().After(expiresAt) {
		// Reap the stale token on access, then report it as invalid
		queryString := "DELETE FROM tfc_schema.reset_tokens WHERE token = $1"
		if _, err = tx.Exec(transactionCtx, queryString, resetRequest.Token); err != nil {
			utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
			return
		}
		utils.WriteAndLogError(c, schemas.InvalidToken, http.StatusUnauthorized, errInvalidResetToken)
		return
	}

	hashedPassword, err := utils.HashPassword(resetRequest.NewPassword)
	if err != nil {
		utils.WriteAndLogError(c, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Update the password first, then consume the token, in one transaction
	queryString := "UPDATE tfc_schema.users SET password = $1 WHERE user_id = $2"
	if _, err = tx.Exec(transactionCtx, queryString, hashedPassword, userId); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString = "DELETE FROM tfc_schema.reset_tokens WHERE token = $1"
	if _, err = tx.Exec(transactionCtx, queryString, resetRequest.Token); err != nil {
		utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx, transactionCtx, cancel); err != nil {
		return
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: passwordResetSuccess}, http.StatusOK)
}

// findUserByIdentifier resolves a login identifier that may be a username or
// an email address. A username match takes precedence.
func findUserByIdentifier(ctx context.Context, tx pgx.Tx, identifier string) (*schemas.User, bool, error) {
	user, found, err := findUser(ctx, tx, "username", identifier)
	if err != nil || found {
		return user, found, err
	}
	return findUser(ctx, tx, "email", identifier)
}

// findUser retrieves a user by exact match on the given column.
func findUser(ctx context.Context, tx pgx.Tx, column, value string) (*schemas.User, bool, error) {
	queryString := "SELECT " + userColumns + " FROM tfc_schema.users WHERE " + column + " = $1"
	rows, err := tx.Query(ctx, queryString, value)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}

	var userId uuid.UUID
	user := &schemas.User{}
	if err := rows.Scan(&userId, &user.Username, &user.Email, &user.Password,
		&user.Name, &user.Age, &user.Gender, &user.Weight, &user.Height); err != nil {
		return nil, false, err
	}
	user.ID = &userId

	return user, true, nil
}

// resolveResetToken looks up the token row and locks it, so a concurrent
// completion with the same token blocks until this transaction finishes.
func resolveResetToken(ctx context.Context, tx pgx.Tx, token string) (uuid.UUID, time.Time, bool, error) {
	queryString := "SELECT user_id, expires_at FROM tfc_schema.reset_tokens WHERE token = $1 FOR UPDATE"
	rows, err := tx.Query(ctx, queryString, token)
	if err != nil {
		return uuid.UUID{}, time.Time{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return uuid.UUID{}, time.Time{}, false, rows.Err()
	}

	var userId uuid.UUID
	var expiresAt pgtype.Timestamptz
	if err := rows.Scan(&userId, &expiresAt); err != nil {
		return uuid.UUID{}, time.Time{}, false, err
	}

	return userId, expiresAt.Time, true, nil
}

// writeUniqueViolationOrDatabaseError maps a unique constraint violation to
// the taxonomy error naming the conflicting field.
func writeUniqueViolationOrDatabaseError(c *gin.Context, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if pgErr.ConstraintName == "users_email_key" {
			utils.WriteAndLogError(c, schemas.EmailTaken, http.StatusConflict, err)
			return
		}
		utils.WriteAndLogError(c, schemas.UsernameTaken, http.StatusConflict, err)
		return
	}

	utils.WriteAndLogError(c, schemas.DatabaseError, http.StatusInternalServerError, err)
}

func userToDTO(user *schemas.User) *schemas.UserDTO {
	return &schemas.UserDTO{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
		Age:      user.Age,
		Gender:   user.Gender,
		Weight:   user.Weight,
		Height:   user.Height,
	}
}
