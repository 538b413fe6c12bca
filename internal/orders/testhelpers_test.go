package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type harness struct {
	conn   *gorm.DB
	repo   Repository
	outbox *outbox.Repository
	user   *models.User
	mat    *Materializer
}

func newHarness(t *testing.T, emitter outboxEmitter) *harness {
	t.Helper()
	conn := dbtest.Open(t)

	user := &models.User{ID: uuid.New(), Email: "kofi@example.com", FirstName: "Kofi", LastName: "Asante"}
	require.NoError(t, conn.Create(user).Error)

	outboxRepo := outbox.NewRepository(conn)
	if emitter == nil {
		emitter = outbox.NewService(outboxRepo, nil)
	}
	repo := NewRepository(conn)
	mat, err := NewMaterializer(MaterializerParams{
		DB:                dbpkg.FromGorm(conn),
		Repo:              repo,
		Users:             users.NewRepository(conn),
		Outbox:            emitter,
		NotificationDelay: 2 * time.Minute,
		Now:               func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	return &harness{conn: conn, repo: repo, outbox: outboxRepo, user: user, mat: mat}
}

func (h *harness) orderByReference(t *testing.T, reference string) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, h.conn.Where("payment_reference = ?", reference).Take(&order).Error)
	return &order
}

func sampleInput(reference string) MaterializeInput {
	return MaterializeInput{
		Reference:             reference,
		Provider:              "paystack",
		Channel:               "card",
		ProviderTransactionID: "4099260516",
		AmountMinorUnits:      15000,
		Currency:              "ghs",
		PaidAt:                time.Date(2026, 3, 14, 9, 29, 0, 0, time.UTC),
		Items: types.OrderItems{
			{ProductID: "p1", Title: "Shea Butter", Slug: "shea-butter", Price: decimal.NewFromInt(20), Quantity: 3},
			{ProductID: "p2", Title: "Kente Scarf", Slug: "kente-scarf", Price: decimal.NewFromInt(40), Quantity: 1},
		},
		ShippingInfo: types.ShippingInfo{
			Name:   "Kofi Asante",
			Email:  "Kofi@Example.com",
			Phone:  "+233200000000",
			Region: "Greater Accra",
			Street: "12 Ring Road",
			City:   "Accra",
		},
	}
}

type failingEmitter struct {
	err error
}

func (f failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) (uuid.UUID, error) {
	return uuid.Nil, f.err
}
