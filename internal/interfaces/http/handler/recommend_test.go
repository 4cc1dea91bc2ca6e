package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kltng/lcsh-validation-api/internal/application/recommend"
	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
	apperrors "github.com/kltng/lcsh-validation-api/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	ok := recommend.Outcome{Term: "ok", Set: entity.RecommendationSet{}}
	timeout := recommend.Outcome{Term: "t", Err: recommend.ErrRequestTimeout}
	upstream := recommend.Outcome{Term: "u", Err: fmt.Errorf("%w: status=503", recommend.ErrUpstreamUnavailable)}

	cases := []struct {
		name     string
		outcomes []recommend.Outcome
		want     int
	}{
		{"any success", []recommend.Outcome{timeout, ok, upstream}, http.StatusOK},
		{"all timeouts", []recommend.Outcome{timeout, timeout}, http.StatusGatewayTimeout},
		{"mixed failures", []recommend.Outcome{timeout, upstream}, http.StatusBadGateway},
		{"all upstream", []recommend.Outcome{upstream}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusFor(tc.outcomes); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err  error
		want apperrors.ErrorCode
	}{
		{fmt.Errorf("%w: term 0 is empty", recommend.ErrInvalidInput), apperrors.CodeInvalidParam},
		{recommend.ErrRequestTimeout, apperrors.CodeRequestTimeout},
		{fmt.Errorf("%w: no body", recommend.ErrUpstreamMalformed), apperrors.CodeUpstreamMalformed},
		{fmt.Errorf("%w: dial tcp", recommend.ErrUpstreamUnavailable), apperrors.CodeUpstreamUnavailable},
		{errors.New("unexpected"), apperrors.CodeInternalError},
	}
	for _, tc := range cases {
		if got := toAppError(tc.err); got.Code != tc.want {
			t.Fatalf("toAppError(%v) = %s want %s", tc.err, got.Code, tc.want)
		}
	}
}
