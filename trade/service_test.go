package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/internal/testutil"
	storemem "github.com/hupe1980/agriconnect/store/memory"
)

func seedStore(t *testing.T) (*storemem.Store, []string) {
	t.Helper()
	s := storemem.New()
	fixtures := []map[string]any{
		{"farmer_id": "FARMER_123", "product_name": "tomatoes", "payment_status": "PENDING_SETUP", "logistics_status": "PENDING_SETUP"},
		{"farmer_id": "FARMER_123", "product_name": "onions", "payment_status": "PAID", "logistics_status": "DELIVERED"},
		{"farmer_id": "FARMER_123", "product_name": "rice", "payment_status": "processing", "logistics_status": "PENDING_SETUP_LAD"},
		{"farmer_id": "FARMER_456", "product_name": "wheat", "payment_status": "PENDING_SETUP", "logistics_status": "PENDING_SETUP"},
		{"farmer_id": "FARMER_123", "product_name": "chili", "payment_status": nil},
	}
	ids := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		id, err := s.Create(context.Background(), f)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return s, ids
}

func products(recs []core.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.String("product_name"))
	}
	return out
}

func TestService_UpdateField(t *testing.T) {
	s, ids := seedStore(t)
	svc := NewService(s)

	res, err := svc.UpdateField(context.Background(), ids[0], "logistics_status", "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, "logistics_status", res.UpdatedField)
	assert.Contains(t, res.Summary, ids[0])

	rec, err := s.Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", rec.Fields["logistics_status"])
	assert.Equal(t, "tomatoes", rec.Fields["product_name"])
}

func TestService_UpdateField_UnknownFieldIsRejected(t *testing.T) {
	s, ids := seedStore(t)
	logger := &testutil.RecordingLogger{}
	svc := NewService(s, func(o *ServiceOptions) { o.Logger = logger })

	before, err := s.Get(context.Background(), ids[0])
	require.NoError(t, err)

	_, err = svc.UpdateField(context.Background(), ids[0], "logistic_status", "DELIVERED")
	assert.ErrorIs(t, err, core.ErrFieldNotFound)

	after, err := s.Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, logger.Count("WARN"))
}

func TestService_UpdateField_DoesNotWriteOnRejection(t *testing.T) {
	m := &mockStore{}
	m.On("Get", mock.Anything, "t-1").Return(testutil.NewRecordBuilder("t-1").Field("unit", "kg").Build(), nil)

	_, err := NewService(m).UpdateField(context.Background(), "t-1", "units", "quintal")
	assert.ErrorIs(t, err, core.ErrFieldNotFound)
	m.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_UpdateField_Errors(t *testing.T) {
	s, ids := seedStore(t)
	svc := NewService(s)

	_, err := svc.UpdateField(context.Background(), "", "unit", "kg")
	assert.ErrorIs(t, err, core.ErrMissingInput)
	_, err = svc.UpdateField(context.Background(), ids[0], "", "kg")
	assert.ErrorIs(t, err, core.ErrMissingInput)
	_, err = svc.UpdateField(context.Background(), ids[0], "unit", nil)
	assert.ErrorIs(t, err, core.ErrMissingInput)
	_, err = svc.UpdateField(context.Background(), "missing", "unit", "kg")
	assert.ErrorIs(t, err, core.ErrTradeNotFound)
}

func TestService_Query(t *testing.T) {
	s, _ := seedStore(t)
	logger := &testutil.RecordingLogger{}
	svc := NewService(s, func(o *ServiceOptions) { o.Logger = logger })

	recs, err := svc.Query(context.Background(), map[string]any{"payment_status": "PENDING_SETUP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tomatoes", "wheat"}, products(recs))

	recs, err = svc.Query(context.Background(), map[string]any{"farmer_id": "FARMER_456", "product_name": "onions"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wheat"}, products(recs))
	assert.Equal(t, 1, logger.Count("WARN"))
}

func TestService_QueryByType(t *testing.T) {
	s, ids := seedStore(t)
	svc := NewService(s)
	ctx := context.Background()

	recs, err := svc.QueryByType(ctx, QueryRequest{Type: QueryPendingPayments})
	require.NoError(t, err)
	assert.Equal(t, []string{"tomatoes"}, products(recs))

	recs, err = svc.QueryByType(ctx, QueryRequest{Type: QueryCompletedTrades})
	require.NoError(t, err)
	assert.Equal(t, []string{"onions"}, products(recs))

	recs, err = svc.QueryByType(ctx, QueryRequest{Type: QueryAllTrades, FarmerID: "FARMER_456"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wheat"}, products(recs))

	recs, err = svc.QueryByType(ctx, QueryRequest{Type: QueryAllTrades})
	require.NoError(t, err)
	assert.Len(t, recs, 4)

	recs, err = svc.QueryByType(ctx, QueryRequest{Type: QuerySpecificTradeInfo, TradeID: ids[2]})
	require.NoError(t, err)
	assert.Equal(t, []string{"rice"}, products(recs))

	_, err = svc.QueryByType(ctx, QueryRequest{Type: QuerySpecificTradeInfo})
	assert.ErrorIs(t, err, core.ErrMissingTradeID)

	_, err = svc.QueryByType(ctx, QueryRequest{Type: QuerySpecificTradeInfo, TradeID: "nope"})
	assert.ErrorIs(t, err, core.ErrTradeNotFound)
}
