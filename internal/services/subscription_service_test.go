package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textshiftapp/textshift-backend/internal/dto"
	"github.com/textshiftapp/textshift-backend/internal/plans"
	"github.com/textshiftapp/textshift-backend/internal/testutils"
	"gorm.io/gorm"
)

const subscriptionUpsert = `INSERT INTO "subscriptions" (.+) ON CONFLICT \("polar_subscription_id"\) DO UPDATE SET (.+)`

func testPlanCatalog() *plans.Catalog {
	return plans.NewCatalog(plans.ProductIDs{
		Starter:      "prod_starter",
		Professional: "prod_professional",
		Lifetime:     "prod_lifetime",
	})
}

func webhookEvent(t *testing.T, eventType string, data interface{}) *dto.PolarWebhookEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &dto.PolarWebhookEvent{Type: eventType, Data: raw}
}

func expectUpsert(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(subscriptionUpsert).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()
}

func TestHandleCheckout_Confirmed(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectUpsert(mock)

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "checkout.updated", dto.PolarCheckout{
		ID:             "co_1",
		Status:         "confirmed",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Professional",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCheckout_ReplayConverges(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	// Same event delivered twice: both deliveries run the same upsert
	// keyed on polar_subscription_id instead of failing on a duplicate.
	expectUpsert(mock)
	expectUpsert(mock)

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "checkout.created", dto.PolarCheckout{
		ID:     "co_replay",
		Status: "confirmed",
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Starter",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCheckout_NotConfirmedIsIgnored(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "checkout.created", dto.PolarCheckout{
		ID:     "co_2",
		Status: "open",
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Professional",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCheckout_MissingMetadataIsDropped(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "checkout.updated", dto.PolarCheckout{
		ID:     "co_3",
		Status: "confirmed",
	})

	// Dropped, not bounced: a retry can never supply the metadata.
	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCheckout_InvalidUserIDIsDropped(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "checkout.updated", dto.PolarCheckout{
		ID:     "co_4",
		Status: "confirmed",
		Metadata: map[string]string{
			"userId":   "not-a-uuid",
			"planName": "Professional",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleSubscriptionCreated(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectUpsert(mock)

	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "subscription.created", dto.PolarSubscription{
		ID:                 "sub_10",
		Status:             "trialing",
		CustomerID:         "cus_10",
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &end,
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Professional",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleSubscriptionUpdated_NoMetadataRequired(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	// Updates carry no metadata; the partial upsert still runs and an
	// out-of-order update creates a placeholder row on column defaults.
	expectUpsert(mock)

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "subscription.updated", dto.PolarSubscription{
		ID:     "sub_11",
		Status: "active",
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleSubscriptionCanceled(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectUpsert(mock)

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "subscription.revoked", dto.PolarSubscription{
		ID: "sub_12",
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleOrderCreated_Lifetime(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	expectUpsert(mock)

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "order.created", dto.PolarOrder{
		ID:         "order_1",
		CustomerID: "cus_20",
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Lifetime",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleOrderCreated_NonLifetimeIsIgnored(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "order.created", dto.PolarOrder{
		ID: "order_2",
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Professional",
		},
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleUnknownEventType(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := &dto.PolarWebhookEvent{Type: "benefit.granted", Data: json.RawMessage(`{}`)}

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWebhookEvent_DatabaseFailureSurfaces(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(subscriptionUpsert).WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "checkout.updated", dto.PolarCheckout{
		ID:     "co_err",
		Status: "confirmed",
		Metadata: map[string]string{
			"userId":   uuid.New().String(),
			"planName": "Starter",
		},
	})

	assert.Error(t, svc.HandleWebhookEvent(event))
}

func TestHandleSubscriptionUpdated_EmptyStatusNotAssigned(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	// Without a status in the payload the conflict assignments start at
	// current_period_start; an existing row's status survives untouched.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+) ON CONFLICT \("polar_subscription_id"\) DO UPDATE SET "current_period_start"=(.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	svc := NewSubscriptionService(db, testPlanCatalog())
	event := webhookEvent(t, "subscription.updated", dto.PolarSubscription{
		ID:               "sub_13",
		CurrentPeriodEnd: &end,
	})

	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.NoError(t, mock.ExpectationsWereMet())
}
