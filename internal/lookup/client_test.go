package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestValidator(t *testing.T, h http.HandlerFunc) *RestyValidator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	v := NewRestyValidator(srv.URL, "secret", nil)
	v.httpClient.SetRetryCount(0)
	return v
}

func TestRestyValidator_SendsQueryAndDecodes(t *testing.T) {
	var gotPath, gotKey, gotPhone, gotCountry string
	v := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		q := r.URL.Query()
		gotKey, gotPhone, gotCountry = q.Get("apiKey"), q.Get("phone"), q.Get("country")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true}`))
	})

	ok, err := v.Validate(context.Background(), "+33612345678", "FR")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid")
	}
	if gotPath != "/validate" || gotKey != "secret" || gotPhone != "+33612345678" || gotCountry != "FR" {
		t.Fatalf("request path=%s key=%s phone=%s country=%s", gotPath, gotKey, gotPhone, gotCountry)
	}
}

func TestRestyValidator_InvalidNumber(t *testing.T) {
	v := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":false}`))
	})
	ok, err := v.Validate(context.Background(), "123", "")
	if err != nil || ok {
		t.Fatalf("Validate = %v, %v", ok, err)
	}
}

func TestRestyValidator_ServerError(t *testing.T) {
	v := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := v.Validate(context.Background(), "123", ""); err == nil {
		t.Fatalf("expected error on 500")
	}
}
