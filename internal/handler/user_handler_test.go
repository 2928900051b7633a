package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ezazahamad2003/pre-funnel/internal/quota"
	"github.com/ezazahamad2003/pre-funnel/internal/repository"
	"github.com/ezazahamad2003/pre-funnel/internal/service"
)

func newUserFixture(t *testing.T) (*UserHandler, *service.UserService, repository.UsersRepository) {
	t.Helper()
	users := repository.NewMemoryUsersRepository()
	svc := service.NewUserService(users, repository.NewMemoryConnectionsRepository(), quota.NewMemoryTracker(quota.DefaultLimits()))
	return NewUserHandler(svc), svc, users
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestUserCreate(t *testing.T) {
	handler, _, _ := newUserFixture(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/users", `{"email":"Jane@Acme.COM","name":"Jane"}`), rec)
	if err := handler.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Email != "jane@acme.com" {
		t.Errorf("email must be stored normalized, got %q", envelope.Data.Email)
	}

	// Same address again, different case: conflict.
	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/users", `{"email":"jane@acme.com"}`), rec)
	_ = handler.Create(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/api/users", `{"email":"not-an-email"}`), rec)
	_ = handler.Create(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on invalid email, got %d", rec.Code)
	}
}

func TestUserConnections(t *testing.T) {
	handler, _, users := newUserFixture(t)
	user, err := users.Create(context.Background(), "jane@acme.com", "Jane")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(user.ID.String())
	if err := handler.Connections(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown user.
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	_ = handler.Connections(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	// Malformed id.
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")
	_ = handler.Connections(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserUsage(t *testing.T) {
	handler, _, users := newUserFixture(t)
	user, err := users.Create(context.Background(), "jane@acme.com", "Jane")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(user.ID.String())
	if err := handler.Usage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			UserID string `json:"user_id"`
			Shared []struct {
				Channel string `json:"channel"`
			} `json:"shared"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.UserID != user.ID.String() {
		t.Errorf("unexpected user_id %q", envelope.Data.UserID)
	}
	if len(envelope.Data.Shared) == 0 {
		t.Errorf("shared usage must list the metered channels")
	}
}
