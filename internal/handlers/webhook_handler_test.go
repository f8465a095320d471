package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textshiftapp/textshift-backend/internal/plans"
	"github.com/textshiftapp/textshift-backend/internal/services"
	"github.com/textshiftapp/textshift-backend/internal/testutils"
	"gorm.io/gorm"
)

func setupWebhookApp(db *gorm.DB, secret string) *fiber.App {
	catalog := plans.NewCatalog(plans.ProductIDs{
		Starter:      "prod_starter",
		Professional: "prod_professional",
		Lifetime:     "prod_lifetime",
	})
	handler := NewWebhookHandler(services.NewSubscriptionService(db, catalog), secret)

	app := fiber.New()
	app.Post("/api/webhooks/polar", handler.HandlePolar)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/polar", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHandlePolar_ChatShapedBodyRejected(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	resp := postWebhook(t, app, `{"text":"deploy finished","blocks":[]}`, nil)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["message"], "Slack/Discord")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePolar_MissingTypeRejected(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	resp := postWebhook(t, app, `{"data":{"id":"co_1"}}`, nil)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePolar_MalformedJSONRejected(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	resp := postWebhook(t, app, `{not json`, nil)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePolar_UnknownEventAcknowledged(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	resp := postWebhook(t, app, `{"type":"benefit.granted","data":{"id":"b_1"}}`, nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["received"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePolar_ConfirmedCheckoutProcessed(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+) ON CONFLICT (.+) DO UPDATE SET (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	payload := `{"type":"checkout.updated","data":{"id":"co_1","status":"confirmed","subscriptionId":"sub_1","metadata":{"userId":"` + uuid.New().String() + `","planName":"Professional"}}}`
	resp := postWebhook(t, app, payload, nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["received"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePolar_ProcessingFailureReturns500(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+)`).WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	payload := `{"type":"checkout.updated","data":{"id":"co_1","status":"confirmed","metadata":{"userId":"` + uuid.New().String() + `","planName":"Starter"}}}`
	resp := postWebhook(t, app, payload, nil)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func signWebhook(secret, msgID, timestamp, body string) string {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "." + body))
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestHandlePolar_SignatureRequired(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	rawSecret := base64.StdEncoding.EncodeToString([]byte("topsecret"))
	app := setupWebhookApp(db, "whsec_"+rawSecret)

	body := `{"type":"benefit.granted","data":{"id":"b_1"}}`

	// No signature headers at all.
	resp := postWebhook(t, app, body, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Wrong signature.
	resp = postWebhook(t, app, body, map[string]string{
		"webhook-id":        "msg_1",
		"webhook-timestamp": "1700000000",
		"webhook-signature": "v1,bm90LXRoZS1yZWFsLXNpZ25hdHVyZQ==",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Correct signature.
	resp = postWebhook(t, app, body, map[string]string{
		"webhook-id":        "msg_1",
		"webhook-timestamp": "1700000000",
		"webhook-signature": signWebhook(rawSecret, "msg_1", "1700000000", body),
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandlePolar_NoSecretSkipsVerification(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()
	app := setupWebhookApp(db, "")

	resp := postWebhook(t, app, `{"type":"benefit.granted","data":{"id":"b_1"}}`, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
