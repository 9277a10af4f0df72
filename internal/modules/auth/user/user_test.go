package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/pkg/dbtest"
	jwtpkg "github.com/jdforge/core/internal/pkg/jwt"
	"github.com/jdforge/core/internal/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

var allowList = validation.NewDomainAllowList([]string{"gmail.com", "outlook.com"})

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := dbtest.New(t)
	return NewService(db, allowList, nil, time.Hour, nil), mock
}

func newRouter(svc *Service, userID, sessionID string) *gin.Engine {
	r := gin.New()
	authMW := func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeySID, sessionID)
		c.Next()
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), authMW)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

const validRegistration = `{"username":"alice","email":"alice@gmail.com","password1":"s3cret-pass","password2":"s3cret-pass",
	"security_question":"first_pet","security_answer":"Fluffy"}`

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE username = \\?").
		WithArgs("alice").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\?").
		WithArgs("alice@gmail.com").WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `user_profiles`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/register", validRegistration)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, msgRegistered, decode(t, w)["message"])
}

func TestRegisterStoresAnswerAsSubmitted(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `user_profiles`").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "first_pet", "  Fluffy ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := strings.Replace(validRegistration, `"security_answer":"Fluffy"`, `"security_answer":"  Fluffy "`, 1)
	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/register", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegisterPasswordMismatchTouchesNothing(t *testing.T) {
	svc, _ := newTestService(t)

	body := strings.Replace(validRegistration, `"password2":"s3cret-pass"`, `"password2":"other-pass"`, 1)
	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w)
	assert.Equal(t, "password_match", res["check"])
	assert.Equal(t, msgPasswordMismatch, res["message"])
}

func TestRegisterPipelineOrder(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t,
		[]string{"password_match", "username_unique", "email_unique", "email_domain", "security_question"},
		svc.registerChecks.Names())
	assert.Equal(t,
		[]string{"current_password", "security_answer", "new_password_match", "new_password_differs"},
		svc.passwordChecks.Names())
}

func TestNewServiceLogsPipelines(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, _ := dbtest.New(t)
	NewService(db, allowList, nil, time.Hour, zap.New(core))

	entries := logs.FilterMessage("validation pipelines ready").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, []interface{}{"username_unique", "email_unique", "email_domain"}, fields["profile"])
}

func TestRegisterUsernameTaken(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE username = \\?").
		WillReturnRows(countRows(1))

	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/register", validRegistration)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgUsernameTaken, decode(t, w)["message"])
}

func TestRegisterRejectsDomain(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE username = \\?").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\?").WillReturnRows(countRows(0))

	body := strings.Replace(validRegistration, "alice@gmail.com", "alice@corp.example", 1)
	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w)
	assert.Equal(t, "email_domain", res["check"])
	assert.Equal(t, msgDomainNotAllowed, res["message"])
}

func TestRegisterSecurityQuestion(t *testing.T) {
	cases := map[string]struct {
		question, answer, message string
	}{
		"unknown question": {"favorite_car", "Mini", msgChooseQuestion},
		"blank answer":     {"first_pet", "   ", msgProvideAnswer},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, mock := newTestService(t)
			mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
			mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))

			_, err := svc.Register(context.Background(), &RegisterDTO{
				Username: "bob", Email: "bob@outlook.com", Password1: "password1", Password2: "password1",
				SecurityQuestion: tc.question, SecurityAnswer: tc.answer,
			})
			r, ok := validation.AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, "security_question", r.Check)
			assert.Equal(t, tc.message, r.Message)
		})
	}
}

func TestRegisterDuplicateKeyRace(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry 'alice@gmail.com' for key 'idx_users_email'"})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), &RegisterDTO{
		Username: "alice", Email: "alice@gmail.com", Password1: "password1", Password2: "password1",
		SecurityQuestion: "first_pet", SecurityAnswer: "Fluffy",
	})
	r, ok := validation.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "email_unique", r.Check)
}

func TestRegisterBindingRejectsBadUsername(t *testing.T) {
	svc, _ := newTestService(t)
	body := strings.Replace(validRegistration, `"username":"alice"`, `"username":"al ice!"`, 1)
	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

var userColumns = []string{"id", "username", "email", "password", "created_at"}

func TestLoginSetsCookie(t *testing.T) {
	jwtpkg.SetSecret("user-test")
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE username = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("user-1", "alice", "alice@gmail.com", hash(t, "s3cret-pass"), time.Now()))
	mock.ExpectExec("UPDATE `users` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `user_sessions`").WillReturnResult(sqlmock.NewResult(0, 1))

	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, "Welcome back, alice!", res["message"])

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.TokenCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, res["token"], cookie.Value)

	claims, err := jwtpkg.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE username = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("user-1", "alice", "alice@gmail.com", hash(t, "s3cret-pass"), time.Now()))

	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgInvalidCredentials, decode(t, w)["message"])
}

func TestLoginUnknownUser(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE username = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := do(newRouter(svc, "", ""), http.MethodPost, "/api/v1/auth/login", `{"username":"ghost","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectExec("UPDATE `user_sessions` SET `revoked_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := do(newRouter(svc, "user-1", "sess-1"), http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, msgLoggedOut, decode(t, w)["message"])
}

func expectUserWithProfile(t *testing.T, mock sqlmock.Sqlmock, password, answer string) {
	t.Helper()
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("user-1", "alice", "alice@gmail.com", hash(t, password), time.Now()))
	profiles := sqlmock.NewRows([]string{"id", "user_id", "security_question", "security_answer"})
	if answer != "" {
		profiles.AddRow("profile-1", "user-1", "first_pet", answer)
	}
	mock.ExpectQuery("SELECT \\* FROM `user_profiles` WHERE `user_profiles`.`user_id` = \\?").
		WillReturnRows(profiles)
}

const changeBody = `{"old_password":"old-pass-1","security_answer":"  fluffy ","new_password1":"new-pass-12","new_password2":"new-pass-12"}`

func TestChangePasswordKeepsCurrentSession(t *testing.T) {
	svc, mock := newTestService(t)
	expectUserWithProfile(t, mock, "old-pass-1", "Fluffy")
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET `password`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `user_sessions` SET `revoked_at`=.*id <> \\?").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "user-1", "sess-keep").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	w := do(newRouter(svc, "user-1", "sess-keep"), http.MethodPatch, "/api/v1/user/password", changeBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, msgPasswordChanged, decode(t, w)["message"])
}

func TestChangePasswordRejections(t *testing.T) {
	cases := []struct {
		name, stored, answer, body, check, message string
	}{
		{"wrong current password", "other-pass", "Fluffy", changeBody, "current_password", msgWrongOldPassword},
		{"wrong answer", "old-pass-1", "Rex", changeBody, "security_answer", msgWrongAnswer},
		{"missing profile", "old-pass-1", "", changeBody, "security_answer", msgProfileMissing},
		{"new passwords differ", "old-pass-1", "Fluffy",
			strings.Replace(changeBody, `"new_password2":"new-pass-12"`, `"new_password2":"new-pass-13"`, 1),
			"new_password_match", msgNewPasswordMismatch},
		{"same as current", "old-pass-1", "Fluffy",
			`{"old_password":"old-pass-1","security_answer":"Fluffy","new_password1":"old-pass-1","new_password2":"old-pass-1"}`,
			"new_password_differs", msgPasswordUnchanged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock := newTestService(t)
			expectUserWithProfile(t, mock, tc.stored, tc.answer)

			w := do(newRouter(svc, "user-1", "sess-1"), http.MethodPatch, "/api/v1/user/password", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			res := decode(t, w)
			assert.Equal(t, tc.check, res["check"])
			assert.Equal(t, tc.message, res["message"])
		})
	}
}

func TestUpdateProfileExcludesSelf(t *testing.T) {
	svc, mock := newTestService(t)
	expectUserWithProfile(t, mock, "pass-word-1", "Fluffy")
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE username = \\? AND id <> \\?").
		WithArgs("alice2", "user-1").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE email = \\? AND id <> \\?").
		WithArgs("alice@outlook.com", "user-1").WillReturnRows(countRows(0))
	mock.ExpectExec("UPDATE `users` SET").WillReturnResult(sqlmock.NewResult(0, 1))

	w := do(newRouter(svc, "user-1", "sess-1"), http.MethodPatch, "/api/v1/user/profile",
		`{"username":"alice2","email":"alice@Outlook.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, msgProfileUpdated, res["message"])
	assert.Equal(t, "alice@outlook.com", res["user"].(map[string]any)["email"])
}

func TestUpdateProfileWritesOnlyUsersRow(t *testing.T) {
	svc, mock := newTestService(t)
	expectUserWithProfile(t, mock, "pass-word-1", "Fluffy")
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectExec("UPDATE `users` SET `email`=\\?,`username`=\\?,`updated_at`=\\? WHERE id = \\?").
		WithArgs("bob@gmail.com", "bob", sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := do(newRouter(svc, "user-1", "sess-1"), http.MethodPatch, "/api/v1/user/profile",
		`{"username":"bob","email":"bob@gmail.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileRejectsDomainWithoutWriting(t *testing.T) {
	svc, mock := newTestService(t)
	expectUserWithProfile(t, mock, "pass-word-1", "Fluffy")
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(countRows(0))

	w := do(newRouter(svc, "user-1", "sess-1"), http.MethodPatch, "/api/v1/user/profile",
		`{"username":"alice","email":"alice@corp.example"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email_domain", decode(t, w)["check"])
}

func TestMeIncludesSecurityQuestion(t *testing.T) {
	svc, mock := newTestService(t)
	expectUserWithProfile(t, mock, "pass-word-1", "Fluffy")

	w := do(newRouter(svc, "user-1", "sess-1"), http.MethodGet, "/api/v1/user/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.Equal(t, "alice", res["username"])
	assert.NotContains(t, w.Body.String(), "Fluffy")
	q := res["security_question"].(map[string]any)
	assert.Equal(t, "first_pet", q["id"])
}

func TestSecurityQuestionsEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	w := do(newRouter(svc, "", ""), http.MethodGet, "/api/v1/auth/security-questions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 6)
}

func TestSessions(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("SELECT \\* FROM `user_sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "ip", "ua", "updated_at"}).
			AddRow("sess-1", "user-1", "10.0.0.1", "curl", time.Now()).
			AddRow("sess-2", "user-1", "10.0.0.2", "firefox", time.Now()))
	mock.ExpectExec("UPDATE `user_sessions` SET `revoked_at`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := newRouter(svc, "user-1", "sess-1")
	w := do(r, http.MethodGet, "/api/v1/user/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.True(t, body.Data[0].Current)
	assert.False(t, body.Data[1].Current)

	w = do(r, http.MethodDelete, "/api/v1/user/sessions/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
