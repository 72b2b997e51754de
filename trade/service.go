package trade

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/extract"
	"github.com/hupe1980/agriconnect/logging"
)

// QueryType selects one of the canned trade queries.
type QueryType string

const (
	QueryPendingPayments   QueryType = "PENDING_PAYMENTS"
	QueryCompletedTrades   QueryType = "COMPLETED_TRADES"
	QuerySpecificTradeInfo QueryType = "SPECIFIC_TRADE_INFO"
	QueryAllTrades         QueryType = "ALL_TRADES"
)

// SupportedFilterFields are the record fields Query filters on.
var SupportedFilterFields = []string{"farmer_id", "payment_status", "logistics_status"}

// QueryRequest is a canned query for one farmer's trades.
type QueryRequest struct {
	Type     QueryType `json:"query_type"`
	FarmerID string    `json:"farmer_id,omitempty"`
	TradeID  string    `json:"trade_id,omitempty"`
}

// UpdateResult summarizes a single field update.
type UpdateResult struct {
	TradeID      string `json:"trade_id"`
	UpdatedField string `json:"updated_field"`
	NewValue     any    `json:"new_value"`
	Summary      string `json:"summary"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	DefaultFarmerID string
	Logger          logging.Logger
}

// Service offers the trade operations outside the setup workflow.
type Service struct {
	*core.LoggerAdapter
	store         core.RecordStore
	defaultFarmer string
}

// NewService creates a Service over store.
func NewService(store core.RecordStore, optFns ...func(o *ServiceOptions)) *Service {
	opts := ServiceOptions{DefaultFarmerID: extract.DefaultFarmerID}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		store:         store,
		defaultFarmer: opts.DefaultFarmerID,
	}
}

// UpdateField sets one existing top-level field of a trade. Unknown field
// names are rejected with core.ErrFieldNotFound and nothing is written.
func (s *Service) UpdateField(ctx context.Context, tradeID, field string, value any) (*UpdateResult, error) {
	if strings.TrimSpace(tradeID) == "" || strings.TrimSpace(field) == "" || value == nil {
		return nil, fmt.Errorf("%w for update: trade ID, field to update, or new value", core.ErrMissingInput)
	}

	rec, err := s.store.Get(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("trade not found or error fetching trade: %w", err)
	}
	if !rec.Has(field) {
		s.LogWarn("Rejected update of unknown trade field", "trade_id", tradeID, "field", field)
		return nil, fmt.Errorf("%w: %s", core.ErrFieldNotFound, field)
	}

	if err := s.store.Update(ctx, tradeID, map[string]any{field: value}); err != nil {
		return nil, fmt.Errorf("update trade %s: %w", tradeID, err)
	}
	s.LogInfo("Trade field updated", "trade_id", tradeID, "field", field)

	return &UpdateResult{
		TradeID:      tradeID,
		UpdatedField: field,
		NewValue:     value,
		Summary:      fmt.Sprintf("Trade %s field %s updated to %v.", tradeID, field, value),
	}, nil
}

// Query returns trades matching every supported filter. Filters on other
// fields are dropped with a warning.
func (s *Service) Query(ctx context.Context, filters map[string]any) ([]core.Record, error) {
	applied := make(map[string]any, len(filters))
	var ignored []string
	for k, v := range filters {
		if isSupportedFilter(k) {
			applied[k] = v
			continue
		}
		ignored = append(ignored, k)
	}
	if len(ignored) > 0 {
		sort.Strings(ignored)
		s.LogWarn("Ignoring unsupported query filters", "fields", ignored)
	}

	records, err := s.store.Query(ctx, applied)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return records, nil
}

// QueryByType runs one of the canned queries. FarmerID defaults to the
// configured farmer.
func (s *Service) QueryByType(ctx context.Context, req QueryRequest) ([]core.Record, error) {
	farmer := req.FarmerID
	if farmer == "" {
		farmer = s.defaultFarmer
	}

	switch req.Type {
	case QueryPendingPayments:
		return s.Query(ctx, map[string]any{"farmer_id": farmer, "payment_status": PaymentPendingSetup})
	case QueryCompletedTrades:
		return s.Query(ctx, map[string]any{"farmer_id": farmer, "logistics_status": LogisticsDelivered, "payment_status": PaymentPaid})
	case QuerySpecificTradeInfo:
		if strings.TrimSpace(req.TradeID) == "" {
			return nil, fmt.Errorf("%w: please provide a valid trade ID for %s queries", core.ErrMissingTradeID, QuerySpecificTradeInfo)
		}
		rec, err := s.store.Get(ctx, req.TradeID)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve trade details: %w", err)
		}
		return []core.Record{rec}, nil
	default:
		return s.Query(ctx, map[string]any{"farmer_id": farmer})
	}
}

func isSupportedFilter(field string) bool {
	for _, f := range SupportedFilterFields {
		if f == field {
			return true
		}
	}
	return false
}
