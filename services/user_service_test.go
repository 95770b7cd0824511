package services

import (
	"net/http"
	"testing"
	"time"

	"goblin-backend/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartingGoblinPoints_Bands(t *testing.T) {
	tests := []struct {
		name      string
		followers int64
		r         float64
		want      int64
	}{
		{"below threshold", 99, 0.5, 0},
		{"zero followers", 0, 0.99, 0},
		{"small band floor", 100, 0, 100},
		{"mid band floor", 1000, 0, 1000},
		{"big band floor", 10000, 0, 100000},
		{"mid band middle", 5000, 0.5, 1000 + 4500},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, startingGoblinPoints(tc.followers, tc.r))
		})
	}
}

func TestStartingGoblinPoints_BandCeilings(t *testing.T) {
	// Just under r=1 must stay inside each band's ceiling.
	r := 0.999999
	assert.LessOrEqual(t, startingGoblinPoints(100, r), int64(1000+100))
	assert.LessOrEqual(t, startingGoblinPoints(1000, r), int64(9000+1000+1))
	assert.LessOrEqual(t, startingGoblinPoints(10000, r), int64(900000+100000+1))
}

func TestGenerateReferralCode(t *testing.T) {
	db, _ := setupMockDB(t)
	svc := NewUserService(db)

	svc.Rand = func() float64 { return 0 }
	assert.Equal(t, "AAAAAA", svc.generateReferralCode())

	svc.Rand = func() float64 { return 0.5 }
	code := svc.generateReferralCode()
	assert.Len(t, code, 6)
	assert.Equal(t, "SSSSSS", code) // index 18 of the charset

	// every draw must land inside the charset
	svc.Rand = func() float64 { return 0.999999 }
	for _, ch := range svc.generateReferralCode() {
		assert.Contains(t, referralCodeChars, string(ch))
	}
}

func newUserTestApp(t *testing.T, r float64) (*fiber.App, sqlmock.Sqlmock, *UserService) {
	t.Helper()

	db, mock := setupMockDB(t)
	svc := NewUserService(db)
	svc.Rand = func() float64 { return r }

	app := fiber.New()
	app.Use(middleware.UserContextMiddleware())

	users := app.Group("/users")
	users.Post("/register", svc.Register)
	users.Get("/:username", svc.GetProfile)
	users.Post("/:username/wallet", middleware.RequireUser(), svc.SaveWallet)

	admin := app.Group("/admin", middleware.RequireUser(), middleware.RequireAdmin())
	admin.Post("/update-points", svc.UpdatePoints)

	return app, mock, svc
}

func userRows(id, username string, goblinPoints int64, referralCode string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "x_username", "followers_count", "goblin_points", "referral_points",
		"referral_code", "last_updated",
	}).AddRow(id, username, 500, goblinPoints, 0, referralCode, time.Now())
}

func TestRegister_RequiresUsername(t *testing.T) {
	app, _, _ := newUserTestApp(t, 0.5)

	status, body := doJSON(t, app, "POST", "/users/register", "",
		map[string]interface{}{"followersCount": 100})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "xUsername is required", body["error"])
}

func TestRegister_NewUser(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"referral_points"}).AddRow(0))
	mock.ExpectCommit()

	status, body := doJSON(t, app, "POST", "/users/register", "", map[string]interface{}{
		"xUsername":      "goblin_fan",
		"followersCount": 5000,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["created"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "goblin_fan", user["xUsername"])
	// 1k-10k band with r=0.5: 1000 + 4500
	assert.Equal(t, float64(5500), user["goblinPoints"])
	assert.Equal(t, "SSSSSS", user["referralCode"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_ExistingUserRefreshesProfile(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)
	id := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows(id, "goblin_fan", 5500, "SSSSSS"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, body := doJSON(t, app, "POST", "/users/register", "", map[string]interface{}{
		"xUsername":      "goblin_fan",
		"followersCount": 9999,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["created"])

	user := body["user"].(map[string]interface{})
	// points are never re-rolled for a returning user
	assert.Equal(t, float64(5500), user["goblinPoints"])
	assert.Equal(t, float64(9999), user["followersCount"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_WithReferralCreditsReferrer(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)
	referrerID := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"referral_points"}).AddRow(0))
	mock.ExpectCommit()

	// referrer lookup by code, then bonus increment plus audit row
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows(referrerID, "referrer", 10000, "FRIEND"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "referrals"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	status, body := doJSON(t, app, "POST", "/users/register", "", map[string]interface{}{
		"xUsername":      "new_goblin",
		"followersCount": 5000,
		"referralCode":   "FRIEND",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["created"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_UnknownReferralStillSucceeds(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"referral_points"}).AddRow(0))
	mock.ExpectCommit()

	// nobody owns this code; the bonus is skipped, signup still lands
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, body := doJSON(t, app, "POST", "/users/register", "", map[string]interface{}{
		"xUsername":      "new_goblin",
		"followersCount": 5000,
		"referralCode":   "NOBODY",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["created"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditReferrer_BonusIsFiveCentsOnTheDollar(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewUserService(db)
	referrerID := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows(referrerID, "referrer", 10000, "FRIEND"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "referrals"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	err := svc.creditReferrer("FRIEND", uuid.NewString(), 1000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_WithRank(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)
	id := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows(id, "goblin_fan", 5500, "SSSSSS"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	status, body := doJSON(t, app, "GET", "/users/goblin_fan", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "goblin_fan", body["xUsername"])
	assert.Equal(t, float64(5500), body["goblinPoints"])
	assert.Equal(t, float64(5), body["rank"]) // 4 players ahead
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_NotFound(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, body := doJSON(t, app, "GET", "/users/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])
}

func TestSaveWallet_Success(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, body := doJSON(t, app, "POST", "/users/goblin_fan/wallet", uuid.NewString(),
		map[string]string{"walletAddress": "0xabc123"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Wallet saved successfully", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWallet_UnknownUser(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	status, body := doJSON(t, app, "POST", "/users/ghost/wallet", uuid.NewString(),
		map[string]string{"walletAddress": "0xabc123"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])
}

func TestSaveWallet_MissingAddress(t *testing.T) {
	app, _, _ := newUserTestApp(t, 0.5)

	status, body := doJSON(t, app, "POST", "/users/goblin_fan/wallet", uuid.NewString(),
		map[string]string{"walletAddress": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing xUsername or walletAddress", body["error"])
}

func TestUpdatePoints_BulkSet(t *testing.T) {
	app, mock, _ := newUserTestApp(t, 0.5)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := buildJSONRequest(t, "POST", "/admin/update-points", map[string]interface{}{
		"users": []map[string]interface{}{
			{"_id": uuid.NewString(), "goblinPoints": 100},
			{"_id": uuid.NewString(), "goblinPoints": 200},
		},
	})
	req.Header.Set("X-User-ID", uuid.NewString())
	req.Header.Set("X-User-Roles", "admin")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSONBody(t, resp)
	assert.Equal(t, "Goblin points updated successfully", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePoints_NonAdminRejected(t *testing.T) {
	app, _, _ := newUserTestApp(t, 0.5)

	req := buildJSONRequest(t, "POST", "/admin/update-points",
		map[string]interface{}{"users": []map[string]interface{}{}})
	req.Header.Set("X-User-ID", uuid.NewString())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
