package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/extract"
	"github.com/hupe1980/agriconnect/internal/util"
	"github.com/hupe1980/agriconnect/logging"
	"github.com/hupe1980/agriconnect/notify"
	"github.com/hupe1980/agriconnect/workflow"
)

// Stage names, which are also the RunState output keys.
const (
	StageInitiation   = "trade_initiation_result"
	StageLogistics    = "logistics_summary"
	StagePayment      = "payment_summary"
	StageNotification = "alert_notification_result"
)

// WorkflowName identifies the setup workflow in logs.
const WorkflowName = "new_trade_setup_workflow"

// EventTradeSetupCompleted is the event_type of the final notification.
const EventTradeSetupCompleted = "TRADE_SETUP_COMPLETED"

const summaryTemplate = "New trade for {{.ProductName}} with {{.BuyerName}} is fully set up. " +
	"Logistics status: {{.LogisticsStatus}}, Payment status: {{.PaymentStatus}}."

// SetupRequest starts a trade setup run.
type SetupRequest struct {
	FarmerMessage string               `json:"farmer_message"`
	Details       extract.TradeDetails `json:"extracted_details"`
}

// Result is the consolidated output of a completed run.
type Result struct {
	WorkflowStatus     string             `json:"workflow_status"`
	TradeID            string             `json:"trade_id"`
	FinalTradeData     map[string]any     `json:"final_trade_data"`
	NotificationResult core.PublishResult `json:"notification_result"`
	Summary            string             `json:"summary"`
}

// SetupOptions configures a SetupWorkflow.
type SetupOptions struct {
	Extractor       extract.Extractor
	Parser          DatetimeParser
	Policy          PaymentPolicy
	Topic           string
	DefaultFarmerID string
	Now             func() time.Time
	Logger          logging.Logger
}

// SetupWorkflow runs initiation, logistics, payment and notification in
// order. Any stage failure aborts the run.
type SetupWorkflow struct {
	*core.LoggerAdapter
	store   core.RecordStore
	channel core.NotificationChannel
	opts    SetupOptions
	engine  *workflow.Engine
}

// NewSetupWorkflow creates the trade setup workflow.
func NewSetupWorkflow(store core.RecordStore, channel core.NotificationChannel, optFns ...func(o *SetupOptions)) *SetupWorkflow {
	opts := SetupOptions{
		Extractor:       extract.Passthrough{},
		Policy:          DefaultPaymentPolicy,
		Topic:           notify.DefaultTopic,
		DefaultFarmerID: extract.DefaultFarmerID,
		Now:             time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parser.Now == nil {
		opts.Parser.Now = opts.Now
	}

	w := &SetupWorkflow{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		store:         store,
		channel:       channel,
		opts:          opts,
	}
	w.engine = workflow.New(WorkflowName, []workflow.Stage{
		workflow.NewStage(StageInitiation, workflow.StateInitiated, w.initiate),
		workflow.NewStage(StageLogistics, workflow.StateLogisticsSet, w.setLogistics),
		workflow.NewStage(StagePayment, workflow.StatePaymentSet, w.setPayment),
		workflow.NewStage(StageNotification, workflow.StateNotified, w.sendNotification),
	}, func(o *workflow.Options) {
		o.Logger = opts.Logger
	})
	return w
}

// Run executes the workflow. A failure is returned as a *workflow.StageError.
func (w *SetupWorkflow) Run(ctx context.Context, req SetupRequest) (*Result, error) {
	rs, err := w.engine.Run(ctx, map[string]any{
		"farmer_message":    req.FarmerMessage,
		"extracted_details": req.Details,
	})
	if err != nil {
		return nil, err
	}
	res, ok := rs.Value(StageNotification, "result")
	if !ok {
		return nil, errors.New("trade setup finished without a result")
	}
	return res.(*Result), nil
}

func (w *SetupWorkflow) initiate(ctx context.Context, rs *workflow.RunState) (map[string]any, error) {
	message, _ := rs.Input()["farmer_message"].(string)
	explicit, _ := rs.Input()["extracted_details"].(extract.TradeDetails)

	details, err := w.opts.Extractor.Extract(ctx, message, explicit)
	if err != nil {
		return nil, fmt.Errorf("extract trade details: %w", err)
	}

	fields := details.InitiationFields(w.opts.DefaultFarmerID)
	fields["logistics_status"] = LogisticsPendingSetup
	fields["payment_status"] = PaymentPendingSetup

	id, err := w.store.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create trade: %w", err)
	}
	w.LogInfo("Trade initiated", "trade_id", id, "product_name", fields["product_name"], "buyer_name", fields["buyer_name"])

	return map[string]any{
		"trade_id":                id,
		"original_farmer_message": message,
		"extracted_trade_data":    details,
	}, nil
}

func (w *SetupWorkflow) setLogistics(ctx context.Context, rs *workflow.RunState) (map[string]any, error) {
	id, err := tradeID(rs)
	if err != nil {
		return nil, err
	}
	details, _ := rs.Value(StageInitiation, "extracted_trade_data")
	d, _ := details.(extract.TradeDetails)

	payload := LogisticsFromDetails(d).Payload(w.opts.Parser)
	if err := w.store.Update(ctx, id, payload); err != nil {
		return nil, fmt.Errorf("update logistics: %w", err)
	}

	return map[string]any{
		"task_completed": "Logistics details setup",
		"trade_id":       id,
		"summary":        fmt.Sprintf("Logistics details for trade %s have been processed and updated.", id),
	}, nil
}

func (w *SetupWorkflow) setPayment(ctx context.Context, rs *workflow.RunState) (map[string]any, error) {
	id, err := tradeID(rs)
	if err != nil {
		return nil, err
	}
	details, _ := rs.Value(StageInitiation, "extracted_trade_data")
	d, _ := details.(extract.TradeDetails)

	terms := DefaultTerms
	if d.PaymentTermsNL != nil {
		terms = *d.PaymentTermsNL
	}
	status, medium := w.opts.Policy.Choose()

	if err := w.store.Update(ctx, id, map[string]any{
		"payment_status": status,
		"payment_medium": medium,
		"payment_terms":  terms,
	}); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	return map[string]any{
		"task_completed": "Payment details setup",
		"trade_id":       id,
		"summary":        fmt.Sprintf("Payment details for trade %s have been processed and updated with %s status via %s.", id, status, medium),
	}, nil
}

func (w *SetupWorkflow) sendNotification(ctx context.Context, rs *workflow.RunState) (map[string]any, error) {
	id, err := tradeID(rs)
	if err != nil {
		return nil, err
	}

	rec, err := w.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve final trade data: %w", err)
	}

	summary, err := util.RenderTemplate(summaryTemplate, struct {
		ProductName, BuyerName, LogisticsStatus, PaymentStatus string
	}{
		ProductName:     rec.String("product_name"),
		BuyerName:       rec.String("buyer_name"),
		LogisticsStatus: rec.String("logistics_status"),
		PaymentStatus:   rec.String("payment_status"),
	})
	if err != nil {
		return nil, err
	}

	final := rec.Flatten()
	published, err := w.channel.Publish(ctx, w.opts.Topic, map[string]any{
		"trade_id":   id,
		"status":     "Workflow Completed",
		"summary":    summary,
		"details":    final,
		"event_type": EventTradeSetupCompleted,
		"timestamp":  w.opts.Now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("publish notification: %w", err)
	}
	w.LogInfo("Trade setup notification published", "trade_id", id, "topic", w.opts.Topic, "message_id", published.MessageID)

	return map[string]any{
		"result": &Result{
			WorkflowStatus:     "completed",
			TradeID:            id,
			FinalTradeData:     final,
			NotificationResult: published,
			Summary:            summary,
		},
	}, nil
}

func tradeID(rs *workflow.RunState) (string, error) {
	id, ok := rs.String(StageInitiation, "trade_id")
	if !ok {
		return "", core.ErrMissingTradeID
	}
	return id, nil
}
