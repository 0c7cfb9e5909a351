package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		message   string
		retryable bool
		details   bool
	}{
		{
			name:    "stock limit keeps details",
			err:     pkgerrors.New(pkgerrors.CodeStockLimit, "only 2 left").WithDetails(map[string]any{"available_stock": 2}),
			status:  http.StatusConflict,
			message: "only 2 left",
			details: true,
		},
		{
			name:      "submission is retryable",
			err:       pkgerrors.Wrap(pkgerrors.CodeSubmission, errors.New("dial tcp"), "sales service unreachable"),
			status:    http.StatusBadGateway,
			message:   "sales service unreachable",
			retryable: true,
		},
		{
			name:    "auth expired hides details",
			err:     pkgerrors.New(pkgerrors.CodeAuthExpired, "credential expired").WithDetails(map[string]any{"expired_at": "x"}),
			status:  http.StatusUnauthorized,
			message: "credential expired",
		},
		{
			name:    "state conflict",
			err:     pkgerrors.New(pkgerrors.CodeStateConflict, "a submission is already in flight"),
			status:  http.StatusUnprocessableEntity,
			message: "a submission is already in flight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tt.err)

			if w.Code != tt.status {
				t.Fatalf("expected status %d but got %d", tt.status, w.Code)
			}
			var body types.ErrorEnvelope
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error envelope: %v", err)
			}
			if body.Error.Message != tt.message {
				t.Fatalf("unexpected message %q", body.Error.Message)
			}
			if body.Error.Retryable != tt.retryable {
				t.Fatalf("expected retryable=%v", tt.retryable)
			}
			if (body.Error.Details != nil) != tt.details {
				t.Fatalf("unexpected details %v", body.Error.Details)
			}
		})
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message == "boom" {
		t.Fatal("internal messages must not leak")
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}
