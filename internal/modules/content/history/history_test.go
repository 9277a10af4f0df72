package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jdforge/core/internal/middleware"
	"github.com/jdforge/core/internal/pkg/dbtest"
	"github.com/jdforge/core/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var recordColumns = []string{"id", "created_at", "user_id", "question", "answer", "failed"}

func rowsFor(userID string, n int) *sqlmock.Rows {
	rows := sqlmock.NewRows(recordColumns)
	for i := 0; i < n; i++ {
		rows.AddRow("rec", time.Now(), userID, "Job Title: SRE", "**Requirements:**", false)
	}
	return rows
}

func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	}
}

func TestListOnlyReturnsOwnRecords(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, nil)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `generation_records` WHERE user_id = \\?").
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))
	mock.ExpectQuery("SELECT \\* FROM `generation_records` WHERE user_id = \\?.*ORDER BY created_at DESC").
		WillReturnRows(rowsFor("user-a", 2))

	records, p, err := svc.List(context.Background(), "user-a", pagination.Query{Page: 1, Size: 50})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		require.NotNil(t, r.UserID)
		assert.Equal(t, "user-a", *r.UserID)
	}
	assert.Equal(t, PageSize, p.Size)
}

func TestListPagesOfFive(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, nil)

	for _, n := range []int{5, 5, 2} {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `generation_records`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(12))
		mock.ExpectQuery("SELECT \\* FROM `generation_records`").
			WillReturnRows(rowsFor("user-a", n))
	}

	for i, want := range []int{5, 5, 2} {
		records, p, err := svc.List(context.Background(), "user-a", pagination.Query{Page: i + 1})
		require.NoError(t, err)
		assert.Len(t, records, want)
		assert.Equal(t, 3, p.TotalPage)
	}
}

func TestHandlerListParsesPage(t *testing.T) {
	db, mock := dbtest.New(t)
	r := gin.New()
	NewHandler(NewService(db, nil)).RegisterRoutes(r.Group("/api/v1"), asUser("user-a"))

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `generation_records`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))
	mock.ExpectQuery("SELECT \\* FROM `generation_records`").
		WillReturnRows(rowsFor("user-a", 5))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?page=abc&size=100", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			CurrentPage int  `json:"current_page"`
			Size        int  `json:"size"`
			HasNextPage bool `json:"has_next_page"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 5)
	assert.Equal(t, 1, body.Pagination.CurrentPage)
	assert.Equal(t, 5, body.Pagination.Size)
	assert.True(t, body.Pagination.HasNextPage)
}

func TestGetRendersAnswer(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, nil)

	mock.ExpectQuery("SELECT \\* FROM `generation_records` WHERE \\(id = \\? AND user_id = \\?\\)").
		WillReturnRows(rowsFor("user-a", 1))

	entry, err := svc.Get(context.Background(), "user-a", "rec")
	require.NoError(t, err)
	assert.Contains(t, entry.HTML, "<strong>REQUIREMENTS:</strong>")
}

func TestGetForeignRecordIsNotFound(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, nil)

	mock.ExpectQuery("SELECT \\* FROM `generation_records`").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := svc.Get(context.Background(), "user-b", "rec")
	assert.ErrorIs(t, err, errRecordNotFound)
}

func TestDeleteOwnRecord(t *testing.T) {
	db, mock := dbtest.New(t)
	r := gin.New()
	NewHandler(NewService(db, nil)).RegisterRoutes(r.Group("/api/v1"), asUser("user-a"))

	mock.ExpectExec("UPDATE `generation_records` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/history/rec", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), deletedMessage)
}

func TestDeleteOthersRecordIs404(t *testing.T) {
	db, mock := dbtest.New(t)
	r := gin.New()
	NewHandler(NewService(db, nil)).RegisterRoutes(r.Group("/api/v1"), asUser("user-b"))

	mock.ExpectExec("UPDATE `generation_records` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/history/rec", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "record not found")
}
