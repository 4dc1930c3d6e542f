package abstractapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T, body string) *AbstractReputationValidator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	v, err := NewAbstractReputationValidator("k")
	require.NoError(t, err)
	v.endpoint = srv.URL + "/v1/"
	return v
}

func TestValidateVerdicts(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"good", `{"email_reputation":"HIGH"}`, false},
		{"disposable", `{"email_reputation":"HIGH","is_disposable_email":true}`, true},
		{"role", `{"email_reputation":"MEDIUM","is_role_email":true}`, true},
		{"low", `{"email_reputation":"LOW"}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := newValidator(t, tc.body).Validate(context.Background(), "a@example.com")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrRejected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewValidatorRequiresKey(t *testing.T) {
	_, err := NewAbstractReputationValidator("")
	assert.Error(t, err)
}
