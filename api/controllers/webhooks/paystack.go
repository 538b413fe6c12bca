package webhooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	paystackwebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/paystack"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/paystack"
)

const maxWebhookBodyBytes = 1 << 20

// Public messages callers and Paystack dashboards see.
const (
	msgSecretMissing       = "Secret key missing"
	msgInvalidSignature    = "Invalid signature"
	msgInvalidPayload      = "Invalid payload"
	msgMissingRequiredData = "Missing required data"
	msgEventReceived       = "Event received"
	msgAlreadyProcessed    = "Order already processed"
	msgUserNotFound        = "User not found"
	msgMissingOrderDetails = "Missing order details for email"
	msgOrderCreated        = "Order created and email sent successfully"
	msgDatabaseError       = "Database error"
	msgProcessingFailed    = "Webhook processing failed"
)

type PaystackWebhookService interface {
	HandleChargeSuccess(ctx context.Context, event *paystackwebhook.Event) (*paystackwebhook.Result, error)
}

type PaystackSigner interface {
	SigningSecret() string
}

// PaystackWebhook verifies, parses and reconciles Paystack deliveries. Every
// path writes exactly one response.
func PaystackWebhook(svc PaystackWebhookService, client PaystackSigner, logg *logger.Logger, webhookMetrics *metrics.WebhookMetrics) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		outcome := "error"
		defer func() {
			webhookMetrics.Observe(paystackwebhook.Provider, outcome, time.Since(start))
		}()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable").WithPublicMessage(msgProcessingFailed))
			return
		}

		secret := ""
		if client != nil {
			secret = client.SigningSecret()
		}
		if secret == "" {
			outcome = "misconfigured"
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paystack secret key not configured").WithPublicMessage(msgSecretMissing))
			return
		}

		// A body that cannot be read in full cannot be verified.
		payload, readErr := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if readErr != nil || !paystack.Verify(payload, r.Header.Get(paystack.SignatureHeader), secret) {
			outcome = "invalid_signature"
			rejectCtx := logg.WithField(ctx, "remote_addr", r.RemoteAddr)
			cause := errors.New("signature mismatch")
			if readErr != nil {
				rejectCtx = logg.WithField(rejectCtx, "read_error", readErr.Error())
				cause = fmt.Errorf("unreadable body: %w", readErr)
			}
			logg.Warn(rejectCtx, "webhook.signature_rejected")
			responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "verify signature").WithPublicMessage(msgInvalidSignature))
			return
		}

		event, err := paystackwebhook.ParseEvent(payload)
		if err != nil {
			outcome = "invalid_payload"
			responses.WriteError(ctx, logg, w, parseError(err))
			return
		}
		ctx = logg.WithField(ctx, "paystack_event", event.Kind)

		if !event.IsChargeSuccess() {
			outcome = "ignored"
			logg.Info(ctx, "webhook.event_ignored")
			responses.WriteAck(w, http.StatusOK, msgEventReceived)
			return
		}

		ctx = logg.WithReference(ctx, event.Reference)
		result, err := svc.HandleChargeSuccess(ctx, event)
		if err != nil {
			outcome = failureOutcome(err)
			responses.WriteError(ctx, logg, w, processingError(err))
			return
		}

		switch result.Outcome {
		case paystackwebhook.OutcomeDuplicate:
			outcome = "duplicate"
			responses.WriteAck(w, http.StatusOK, msgAlreadyProcessed)
		default:
			outcome = "created"
			responses.WriteMessage(w, http.StatusCreated, msgOrderCreated)
		}
	}
}

func parseError(err error) *pkgerrors.Error {
	var fields paystackwebhook.FieldErrors
	if errors.As(err, &fields) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "charge.success missing fields").
			WithPublicMessage(msgMissingRequiredData).
			WithDetails(map[string]string(fields))
	}
	if errors.Is(err, paystackwebhook.ErrMissingRequiredData) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "charge.success missing fields").WithPublicMessage(msgMissingRequiredData)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload").WithPublicMessage(msgInvalidPayload)
}

func processingError(err error) *pkgerrors.Error {
	switch {
	case errors.Is(err, orders.ErrUserNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "resolve user").WithPublicMessage(msgUserNotFound)
	case errors.Is(err, notifications.ErrMissingOrderDetails):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compose order email").WithPublicMessage(msgMissingOrderDetails)
	case errors.Is(err, orders.ErrPersistence):
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order").WithPublicMessage(msgDatabaseError)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "process webhook").WithPublicMessage(msgProcessingFailed)
	}
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, orders.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, notifications.ErrMissingOrderDetails):
		return "email_invalid"
	case errors.Is(err, notifications.ErrSendFailed):
		return "email_failed"
	case errors.Is(err, orders.ErrPersistence):
		return "db_error"
	default:
		return "error"
	}
}
