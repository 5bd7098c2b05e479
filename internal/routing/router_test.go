package routing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tfc-server/internal/config"
	"tfc-server/internal/managers/mocks"
	"tfc-server/internal/utils"
)

// User is the request payload shape used across the tests.
type User struct {
	UserId         string `json:"id,omitempty"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	HashedPassword string `json:"-"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Age            string `json:"age"`
	Gender         string `json:"gender"`
	Weight         string `json:"weight"`
	Height         string `json:"height"`
}

var userColumns = []string{"user_id", "username", "email", "password", "name", "age", "gender", "weight", "height"}

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		FrontendBaseURL: "http://localhost:19006",
	}
}

func setupMocks(t *testing.T) (*mocks.MockDatabaseManager, *mocks.MockMailManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	poolMock, err := pgxmock.NewPool()
	if err != nil {
		log.Errorf("Error creating mock database pool: %v", err)
	}

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	mailMgrMock := &mocks.MockMailManager{}

	return databaseMgrMock, mailMgrMock
}

func errorBody(code, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
}

func invalidCredentialsBody() map[string]interface{} {
	return errorBody("ERR-004", "Invalid username/email or password.")
}

func invalidTokenBody() map[string]interface{} {
	return errorBody("ERR-005", "The reset token is invalid or has expired. Please request a new password reset.")
}

func TestUserRegistration(t *testing.T) {
	createUserRequest := func() User {
		return User{
			Username: "testUser",
			Password: "test.Password123",
			Email:    "test@example.com",
			Name:     "Test User",
			Age:      "25",
			Gender:   "other",
			Weight:   "70",
			Height:   "175",
		}
	}

	testCases := []struct {
		name   string
		user   User
		status int
	}{
		{"ValidRegistration", createUserRequest(), http.StatusCreated},
		{"InvalidEmail", func() User { u := createUserRequest(); u.Email = "test@example@.com"; return u }(), http.StatusBadRequest},
		{"MissingPassword", func() User { u := createUserRequest(); u.Password = ""; return u }(), http.StatusBadRequest},
		{"DuplicateUsername", createUserRequest(), http.StatusConflict},
		{"DuplicateEmail", createUserRequest(), http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			databaseMgrMock, mailMgrMock := setupMocks(t)

			router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())

			server := httptest.NewServer(router)
			defer server.Close()

			poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)

			// Mock database calls
			insertArgs := []interface{}{
				pgxmock.AnyArg(), tc.user.Username, tc.user.Email, pgxmock.AnyArg(),
				tc.user.Name, tc.user.Age, tc.user.Gender, tc.user.Weight, tc.user.Height, pgxmock.AnyArg(),
			}

			switch tc.name {
			case "InvalidEmail", "MissingPassword":
				// Rejected by validation before any database call
			case "DuplicateUsername":
				poolMock.ExpectBegin()
				poolMock.ExpectExec("INSERT INTO tfc_schema.users").WithArgs(insertArgs...).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
				poolMock.ExpectRollback()
			case "DuplicateEmail":
				poolMock.ExpectBegin()
				poolMock.ExpectExec("INSERT INTO tfc_schema.users").WithArgs(insertArgs...).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
				poolMock.ExpectRollback()
			default:
				poolMock.ExpectBegin()
				poolMock.ExpectExec("INSERT INTO tfc_schema.users").WithArgs(insertArgs...).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				poolMock.ExpectCommit()
			}

			expect := httpexpect.Default(t, server.URL)
			response := expect.POST("/api/users").WithJSON(tc.user).Expect().Status(tc.status)

			switch tc.name {
			case "ValidRegistration":
				body := response.JSON().Object()
				body.HasValue("username", tc.user.Username)
				body.HasValue("email", tc.user.Email)
				body.HasValue("name", tc.user.Name)
				body.NotContainsKey("password")
				body.Value("id").String().NotEmpty()
			case "InvalidEmail", "MissingPassword":
				response.JSON().IsEqual(errorBody("ERR-001", "The request body is invalid. Please check the request body and try again."))
			case "DuplicateUsername":
				response.JSON().IsEqual(errorBody("ERR-002", "The username is already taken. Please try another username."))
			case "DuplicateEmail":
				response.JSON().IsEqual(errorBody("ERR-003", "The email is already registered. Please try another email."))
			}

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestUserLogin(t *testing.T) {
	userId := uuid.New().String()
	password := "test.Password123"
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	userRow := func(storedPassword string) *pgxmock.Rows {
		return pgxmock.NewRows(userColumns).
			AddRow(userId, "testUser", "test@example.com", storedPassword, "Test User", "25", "other", "70", "175")
	}

	t.Run("ValidLoginByUsername", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE username").
			WithArgs("testUser").WillReturnRows(userRow(hash))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		body := expect.POST("/api/users/login").
			WithJSON(map[string]string{"identifier": "testUser", "password": password}).
			Expect().Status(http.StatusOK).JSON().Object()
		body.HasValue("username", "testUser")
		body.HasValue("id", userId)
		body.NotContainsKey("password")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("ValidLoginByEmail", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE username").
			WithArgs("test@example.com").WillReturnRows(pgxmock.NewRows(userColumns))
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("test@example.com").WillReturnRows(userRow(hash))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		body := expect.POST("/api/users/login").
			WithJSON(map[string]string{"identifier": "test@example.com", "password": password}).
			Expect().Status(http.StatusOK).JSON().Object()
		body.HasValue("username", "testUser")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnknownUserAndWrongPasswordAreIndistinguishable", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)

		// Unknown identifier: both lookups come back empty
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE username").
			WithArgs("ghost").WillReturnRows(pgxmock.NewRows(userColumns))
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("ghost").WillReturnRows(pgxmock.NewRows(userColumns))
		poolMock.ExpectRollback()

		// Known identifier, wrong password
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE username").
			WithArgs("testUser").WillReturnRows(userRow(hash))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		unknownResponse := expect.POST("/api/users/login").
			WithJSON(map[string]string{"identifier": "ghost", "password": password}).
			Expect().Status(http.StatusUnauthorized)
		wrongPasswordResponse := expect.POST("/api/users/login").
			WithJSON(map[string]string{"identifier": "testUser", "password": "wrong.Password123"}).
			Expect().Status(http.StatusUnauthorized)

		unknownResponse.JSON().IsEqual(invalidCredentialsBody())
		wrongPasswordResponse.JSON().IsEqual(invalidCredentialsBody())
		require.Equal(t, unknownResponse.Body().Raw(), wrongPasswordResponse.Body().Raw())

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("LegacyPlaintextUpgrade", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE username").
			WithArgs("testUser").WillReturnRows(userRow(password))
		poolMock.ExpectExec("UPDATE tfc_schema.users SET password").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/users/login").
			WithJSON(map[string]string{"identifier": "testUser", "password": password}).
			Expect().Status(http.StatusOK).
			JSON().Object().HasValue("username", "testUser")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestRecoverUsername(t *testing.T) {
	userId := uuid.New().String()

	t.Run("KnownEmailSendsMail", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		mailMgrMock.On("SendUsernameRecoveryMail", "test@example.com", "testUser").Return(nil)

		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("test@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(userId, "testUser", "test@example.com", "hash", "Test User", "25", "other", "70", "175"))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/auth/recover-username").
			WithJSON(map[string]string{"email": "test@example.com"}).
			Expect().Status(http.StatusOK).
			JSON().Object().
			HasValue("message", "If an account with that email exists, an email with your username has been sent.")

		mailMgrMock.AssertExpectations(t)
		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnknownEmailSameConfirmation", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)

		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("ghost@example.com").WillReturnRows(pgxmock.NewRows(userColumns))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/auth/recover-username").
			WithJSON(map[string]string{"email": "ghost@example.com"}).
			Expect().Status(http.StatusOK).
			JSON().Object().
			HasValue("message", "If an account with that email exists, an email with your username has been sent.")

		mailMgrMock.AssertNotCalled(t, "SendUsernameRecoveryMail", mock.Anything, mock.Anything)
		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("DeliveryFailure", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		mailMgrMock.On("SendUsernameRecoveryMail", "test@example.com", "testUser").
			Return(errors.New("mailgun: connection refused"))

		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("test@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(userId, "testUser", "test@example.com", "hash", "Test User", "25", "other", "70", "175"))
		poolMock.ExpectCommit()
		// The deferred rollback fires after the commit and is ignored
		poolMock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/auth/recover-username").
			WithJSON(map[string]string{"email": "test@example.com"}).
			Expect().Status(http.StatusInternalServerError).
			JSON().IsEqual(errorBody("ERR-006", "The email could not be sent. Please try again later."))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestForgotPassword(t *testing.T) {
	userId := uuid.New().String()

	t.Run("KnownAndUnknownEmailReturnIdenticalConfirmation", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		mailMgrMock.On("SendPasswordResetMail", "test@example.com", mock.MatchedBy(func(link string) bool {
			return strings.HasPrefix(link, "http://localhost:19006/reset-password?token=")
		})).Return(nil)

		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)

		// Known email: token issued and committed, then mail sent
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("test@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(userId, "testUser", "test@example.com", "hash", "Test User", "25", "other", "70", "175"))
		poolMock.ExpectExec("INSERT INTO tfc_schema.reset_tokens").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()

		// Unknown email: nothing issued, same confirmation
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT (.+) FROM tfc_schema.users WHERE email").
			WithArgs("ghost@example.com").WillReturnRows(pgxmock.NewRows(userColumns))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		knownResponse := expect.POST("/api/auth/forgot-password").
			WithJSON(map[string]string{"email": "test@example.com"}).
			Expect().Status(http.StatusOK)
		unknownResponse := expect.POST("/api/auth/forgot-password").
			WithJSON(map[string]string{"email": "ghost@example.com"}).
			Expect().Status(http.StatusOK)

		require.Equal(t, knownResponse.Body().Raw(), unknownResponse.Body().Raw())
		knownResponse.JSON().Object().
			HasValue("message", "If an account with that email exists, a password reset link has been sent.")

		mailMgrMock.AssertExpectations(t)
		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestResetPassword(t *testing.T) {
	userId := uuid.New().String()
	token := "0WOr7tDikxWKbBY0HrZC6JiYOXSf1a2bCdEfGhIjKlM" // opaque as far as the server is concerned

	t.Run("ValidTokenResetsPasswordAndConsumesToken", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, expires_at FROM tfc_schema.reset_tokens").
			WithArgs(token).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
				AddRow(userId, time.Now().Add(time.Hour)))
		poolMock.ExpectExec("UPDATE tfc_schema.users SET password").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectExec("DELETE FROM tfc_schema.reset_tokens").
			WithArgs(token).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/auth/reset-password").
			WithJSON(map[string]string{"token": token, "newPassword": "new.Password123"}).
			Expect().Status(http.StatusOK).
			JSON().Object().HasValue("message", "Your password has been reset successfully.")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnknownTokenRejected", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, expires_at FROM tfc_schema.reset_tokens").
			WithArgs(token).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/auth/reset-password").
			WithJSON(map[string]string{"token": token, "newPassword": "new.Password123"}).
			Expect().Status(http.StatusUnauthorized).
			JSON().IsEqual(invalidTokenBody())

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("ExpiredTokenReapedOnAccess", func(t *testing.T) {
		databaseMgrMock, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, testConfig())
		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, expires_at FROM tfc_schema.reset_tokens").
			WithArgs(token).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).
				AddRow(userId, time.Now().Add(-time.Hour)))
		poolMock.ExpectExec("DELETE FROM tfc_schema.reset_tokens").
			WithArgs(token).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/auth/reset-password").
			WithJSON(map[string]string{"token": token, "newPassword": "new.Password123"}).
			Expect().Status(http.StatusUnauthorized).
			JSON().IsEqual(invalidTokenBody())

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}
