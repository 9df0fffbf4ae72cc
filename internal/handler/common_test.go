package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
	"github.com/iliyamo/gym-membership/internal/validation"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{validation.Field("name", "The name field is required."), http.StatusUnprocessableEntity},
		{errInvalidBody, http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{repository.ErrRefreshInvalid, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("check in: %w", service.ErrNoUsableMembership), http.StatusForbidden},
		{repository.ErrClassNotFound, http.StatusNotFound},
		{repository.ErrEmailExists, http.StatusConflict},
		{service.ErrSessionFull, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := respondError(c, nil, tc.err); err != nil {
			t.Fatalf("respondError(%v): %v", tc.err, err)
		}
		if rec.Code != tc.want {
			t.Fatalf("%v: status %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = respondError(c, nil, errors.New("dial tcp 10.0.0.3:3306: connection refused"))
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Fatalf("body = %v", body)
	}
}

func TestBodyID(t *testing.T) {
	for raw, want := range map[string]uint64{`7`: 7, `"12"`: 12} {
		got, err := bodyID(json.RawMessage(raw))
		if err != nil || got != want {
			t.Fatalf("bodyID(%s) = %d, %v", raw, got, err)
		}
	}
	for _, raw := range []string{``, `null`, `"abc"`, `0`, `-3`, `1.5`} {
		var verrs validation.Errors
		if _, err := bodyID(json.RawMessage(raw)); !errors.As(err, &verrs) {
			t.Fatalf("bodyID(%q) err = %v", raw, err)
		}
	}
}

func TestUserRequestAliases(t *testing.T) {
	name, rol := "Ana", "admin"
	req := userReq{Nombre: &name, Rol: &rol}
	req.normalize()
	if req.Name == nil || *req.Name != "Ana" || req.Role == nil || *req.Role != "admin" {
		t.Fatalf("aliases not applied: %+v", req)
	}
}
