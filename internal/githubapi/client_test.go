package githubapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v55/github"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/gitsecureops/access-reconciler/internal/errors"
)

func ghResponse(status int) *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: status}}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		resp *github.Response
		err  error
		code apperrors.ErrCode
	}{
		{"nil response", nil, errors.New("dial tcp: refused"), apperrors.ErrCodeInternal},
		{"unauthorized", ghResponse(http.StatusUnauthorized), errors.New("401"), apperrors.ErrCodeUnauthorized},
		{"forbidden", ghResponse(http.StatusForbidden), errors.New("403"), apperrors.ErrCodeForbidden},
		{"rate limited", ghResponse(http.StatusForbidden), &github.RateLimitError{}, apperrors.ErrCodeRateLimited},
		{"not found", ghResponse(http.StatusNotFound), errors.New("404"), apperrors.ErrCodeNotFound},
		{"secondary rate limit", ghResponse(http.StatusTooManyRequests), errors.New("429"), apperrors.ErrCodeRateLimited},
		{"server error", ghResponse(http.StatusBadGateway), errors.New("502"), apperrors.ErrCodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyError("op failed", tc.resp, tc.err)

			var appErr *apperrors.AppError
			assert.ErrorAs(t, err, &appErr)
			assert.Equal(t, tc.code, appErr.Code)
		})
	}
}
