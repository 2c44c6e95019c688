package inertiaredirect

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusFound},
		{http.MethodPost, http.StatusFound},
		{http.MethodPut, http.StatusSeeOther},
		{http.MethodPatch, http.StatusSeeOther},
		{http.MethodDelete, http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(tt.method, "/", nil)
			w := httptest.NewRecorder()

			Redirect(w, r, "/next")

			assert.Equal(t, tt.want, StatusFor(tt.method))
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "/next", w.Header().Get("Location"))
		})
	}
}
