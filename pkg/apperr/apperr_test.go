package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{MissingFields("pol", "pod"), http.StatusBadRequest},
		{Auth("invalid email or password"), http.StatusUnauthorized},
		{Forbidden(), http.StatusForbidden},
		{NotFound("enquiry"), http.StatusNotFound},
		{Storage(errors.New("connection refused")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestClientMessageHidesStorageCause(t *testing.T) {
	err := Storage(errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	if msg := ClientMessage(err); msg != "server error" {
		t.Errorf("storage cause leaked to client: %q", msg)
	}
	// The cause must still be available for server-side logs
	if err.Error() == "server error" {
		t.Error("expected the wrapped cause in the server-side error string")
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create enquiry: %w", NotFound("enquiry"))
	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind should see through fmt.Errorf wrapping")
	}
	if IsKind(wrapped, KindForbidden) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("IsKind matched a non-classified error")
	}
}

func TestMissingFieldsNamesFields(t *testing.T) {
	err := MissingFields("por", "pol")
	want := "missing required fields: por, pol"
	if err.Message != want {
		t.Errorf("got %q, want %q", err.Message, want)
	}
}
