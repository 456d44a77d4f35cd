package service

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/flexprice/paygate/internal/domain/events"
	"github.com/flexprice/paygate/internal/domain/ledger"
	ierr "github.com/flexprice/paygate/internal/errors"
	"github.com/flexprice/paygate/internal/publisher"
	"github.com/flexprice/paygate/internal/signature"
	"github.com/flexprice/paygate/internal/types"
)

// IngestRequest is one inbound webhook call, transport-agnostic: the gin
// handler and the Lambda proxy both reduce to this shape. Headers may use
// any casing; lookup is case-insensitive.
type IngestRequest struct {
	Body            []byte
	IsBase64Encoded bool
	Headers         map[string]string
}

// IngestionService is the HTTP-facing entry point of the pipeline: verify
// the signature, stage the event record, hand the raw payload to the
// queue. No business state is mutated here; that is strictly deferred to
// the consumer so queue redelivery can never double-apply effects.
type IngestionService interface {
	Ingest(ctx context.Context, req *IngestRequest) error
}

type ingestionService struct {
	ServiceParams
}

func NewIngestionService(params ServiceParams) IngestionService {
	return &ingestionService{ServiceParams: params}
}

func (s *ingestionService) Ingest(ctx context.Context, req *IngestRequest) error {
	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(string(body))
		if err != nil {
			return ierr.WithError(err).
				WithHint("Request body is not valid base64").
				Mark(ierr.ErrValidation)
		}
		body = decoded
	}

	sigHeader := lookupHeader(req.Headers, s.Config.Webhook.SignatureHeader)
	if !signature.Verify(body, sigHeader, s.Config.Webhook.Secret, s.Config.Webhook.Tolerance) {
		s.Logger.Warnw("webhook signature verification failed")
		return ierr.NewError("invalid webhook signature").
			WithHint("Signature verification failed").
			Mark(ierr.ErrPermissionDenied)
	}

	// Malformed bodies that pass the signature check still get staged with
	// synthesized identifiers; an authentic event is never silently dropped.
	event, parseErr := events.ParseInbound(body)
	if parseErr != nil {
		s.Logger.Warnw("failed to parse webhook payload, staging with synthesized id",
			"error", parseErr,
		)
	}

	now := time.Now().UTC()
	externalEventID := event.ID
	if externalEventID == "" {
		externalEventID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT)
	}
	tenantID := event.TenantID()

	record := &ledger.EventRecord{
		EventID:       externalEventID,
		TenantID:      tenantID,
		Type:          event.Type,
		Status:        types.EventStatusQueued,
		SchemaVersion: ledger.SchemaVersion,
		CreatedAt:     event.CreatedAt(now),
	}
	if err := s.LedgerRepo.StageEvent(ctx, record); err != nil {
		if !ierr.IsAlreadyExists(err) {
			return err
		}
		// Already staged by an earlier delivery; the conditional create is
		// the first of two dedup layers, the consumer's fence is the second.
		s.Logger.Debugw("event already staged",
			"external_event_id", externalEventID,
			"tenant_id", tenantID,
		)
	}

	// Publish the unmodified payload bytes. A duplicate publish on retry is
	// acceptable; a 2xx before a confirmed publish is not.
	err := s.Publisher.PublishRaw(ctx, body, publisher.Metadata{
		TenantID:        tenantID,
		ExternalEventID: externalEventID,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to enqueue webhook payload").
			Mark(ierr.ErrSystem)
	}

	s.Logger.Infow("webhook event enqueued",
		"external_event_id", externalEventID,
		"tenant_id", tenantID,
		"event_type", event.Type,
	)

	return nil
}

func lookupHeader(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
