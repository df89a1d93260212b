package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const selectUserByEmail = `SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT`

func userRows(user models.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}).
		AddRow(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, time.Now(), time.Now())
}

func postLogin(t *testing.T, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/auth/login", LoginHandler)

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestLoginHandler_Success(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := models.User{
		ID:           uuid.New(),
		Name:         "Site Admin",
		Email:        "admin@example.com",
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
	}

	sqlMock.ExpectQuery(escapeSQL(selectUserByEmail)).WillReturnRows(userRows(user))

	rr := postLogin(t, LoginPayload{Email: user.Email, Password: "password123"})

	assert.Equal(t, http.StatusOK, rr.Code)
	var response LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, user.ID.String(), response.UserID)
	assert.Equal(t, models.RoleAdmin, response.Role)

	claims, err := auth.ValidateToken(response.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := models.User{ID: uuid.New(), Email: "editor@example.com", PasswordHash: string(hashedPassword), Role: models.RoleEditor}

	sqlMock.ExpectQuery(escapeSQL(selectUserByEmail)).WillReturnRows(userRows(user))

	rr := postLogin(t, LoginPayload{Email: user.Email, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid email or password")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoginHandler_UnknownUser(t *testing.T) {
	sqlMock.ExpectQuery(escapeSQL(selectUserByEmail)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rr := postLogin(t, LoginPayload{Email: "nobody@example.com", Password: "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoginHandler_DatabaseError(t *testing.T) {
	sqlMock.ExpectQuery(escapeSQL(selectUserByEmail)).WillReturnError(errors.New("connection refused"))

	rr := postLogin(t, LoginPayload{Email: "admin@example.com", Password: "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoginHandler_InvalidPayload(t *testing.T) {
	rr := postLogin(t, gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid request payload")
}
