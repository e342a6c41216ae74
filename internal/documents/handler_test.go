package documents

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var handlerNow = time.Date(2025, 1, 10, 22, 0, 0, 0, time.UTC)

func newDocumentsRouter(t *testing.T, userID string, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	h := NewHandler(svc, time.UTC)
	h.Now = func() time.Time { return handlerNow }
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateGetUpdateDeleteOverHTTP(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	router := newDocumentsRouter(t, "user-1", svc)

	resp := doJSON(router, http.MethodPost, "/api/v1/documents",
		`{"documentType":"Visa","documentName":"Residence visa","expiryDate":"2025-01-15","personName":"Aisha"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created writeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	doc := created.Document
	if doc.DaysUntilExpiry != 5 || doc.Status.Message != "Expires in 5 days" {
		t.Fatalf("unexpected decoration: %+v", doc)
	}
	if doc.Appearance.Color != "yellow" || doc.ExpiryDateDisplay != "Jan 15, 2025" {
		t.Fatalf("unexpected appearance: %+v", doc)
	}
	if doc.Relationship != RelationshipSelf || len(created.Documents) != 1 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	resp = doJSON(router, http.MethodGet, "/api/v1/documents/"+doc.ID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = doJSON(router, http.MethodPatch, "/api/v1/documents/"+doc.ID, `{"expiryDate":"2024-12-31"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated writeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Document.Status.Bucket != "expired" || updated.Document.Status.Message != "Expired 10 days ago" {
		t.Fatalf("unexpected status after update: %+v", updated.Document.Status)
	}

	resp = doJSON(router, http.MethodDelete, "/api/v1/documents/"+doc.ID, "")
	if resp.Code != http.StatusPreconditionRequired || !strings.Contains(resp.Body.String(), "confirmation_required") {
		t.Fatalf("expected 428 confirmation_required, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, http.MethodDelete, "/api/v1/documents/"+doc.ID+"?confirm=true", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), doc.ID) {
		t.Fatalf("deleted document still listed: %s", resp.Body.String())
	}

	resp = doJSON(router, http.MethodGet, "/api/v1/documents/"+doc.ID, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestCreateValidationErrorDetails(t *testing.T) {
	router := newDocumentsRouter(t, "user-1", NewService(NewMemoryRepo()))
	resp := doJSON(router, http.MethodPost, "/api/v1/documents", `{"documentType":"Passport"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Code)
	}
	for _, field := range []string{"documentName", "expiryDate", "personName"} {
		if _, ok := body.Error.Details[field]; !ok {
			t.Fatalf("expected %s in details, got %v", field, body.Error.Details)
		}
	}
}

func TestOtherUsersDocumentIsNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	owner := newDocumentsRouter(t, "owner", svc)
	intruder := newDocumentsRouter(t, "intruder", svc)

	resp := doJSON(owner, http.MethodPost, "/api/v1/documents",
		`{"documentType":"Passport","documentName":"P","expiryDate":"2030-01-01","personName":"A"}`)
	var created writeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, method := range []string{http.MethodGet, http.MethodPatch} {
		resp = doJSON(intruder, method, "/api/v1/documents/"+created.Document.ID, `{"notes":"x"}`)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, resp.Code)
		}
	}
	resp = doJSON(intruder, http.MethodDelete, "/api/v1/documents/"+created.Document.ID+"?confirm=true", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("delete: expected 404, got %d", resp.Code)
	}
}
