package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(2, 20, 41)
	if p.TotalPage != 3 {
		t.Fatalf("expected 3 pages, got %d", p.TotalPage)
	}
	if BuildPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size should yield zero pages")
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set("request_id", "req-1")

	NotFound(c, "Order not found")

	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.StatusCode != CodeNotFound || body.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSuccessOmitsPaginationUnlessPaged(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Success(c, gin.H{"id": 1})
	var plain map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &plain); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := plain["pagination"]; ok {
		t.Fatalf("plain success should not carry pagination: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	SuccessWithPage(c, []int{1, 2}, BuildPagination(1, 2, 3))
	var paged struct {
		StatusCode int        `json:"status_code"`
		Pagination Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &paged); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if paged.StatusCode != CodeOK || paged.Pagination.TotalPage != 2 || paged.Pagination.Total != 3 {
		t.Fatalf("unexpected paged body: %s", rec.Body.String())
	}
}
