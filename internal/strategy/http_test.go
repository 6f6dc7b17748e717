package strategy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

func httpConfig(check domain.HTTPCheck) *domain.AutomationConfig {
	return &domain.AutomationConfig{Type: domain.CheckTypeHTTP, HTTP: &check}
}

func TestHTTPExecutePassed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":{"ok":true},"version":"1.2.3"}`))
	}))
	defer srv.Close()

	s := NewHTTP(5 * time.Second)
	verdict, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{
		Endpoint:       srv.URL,
		ValidationPath: "status.ok",
		ExpectedValue:  true,
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPassed, verdict.Status)
	assert.Contains(t, verdict.Notes, "200")
}

func TestHTTPExecuteValidationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"ok":false}}`))
	}))
	defer srv.Close()

	s := NewHTTP(5 * time.Second)
	verdict, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{
		Endpoint:       srv.URL,
		ValidationPath: "status.ok",
		ExpectedValue:  true,
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, verdict.Status)
	// 失败说明要点名校验路径，便于排查
	assert.Contains(t, verdict.Notes, `"status.ok"`)
}

func TestHTTPExecutePathNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other":1}`))
	}))
	defer srv.Close()

	s := NewHTTP(5 * time.Second)
	verdict, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{
		Endpoint:       srv.URL,
		ValidationPath: "status.ok",
		ExpectedValue:  true,
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, verdict.Status)
	assert.Contains(t, verdict.Notes, "not found")
	assert.Contains(t, verdict.Notes, `"status.ok"`)
}

func TestHTTPExecuteUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTP(5 * time.Second)
	verdict, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{Endpoint: srv.URL}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, verdict.Status)
	assert.Contains(t, verdict.Notes, "500")
}

func TestHTTPExecuteCustomExpectedStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	s := NewHTTP(5 * time.Second)
	verdict, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{
		Endpoint:         srv.URL,
		ExpectedStatuses: []int{418},
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPassed, verdict.Status)
}

func TestHTTPExecuteSendsMethodHeadersBody(t *testing.T) {
	var gotMethod, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewHTTP(5 * time.Second)
	verdict, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{
		Endpoint: srv.URL,
		Method:   "post",
		Headers:  map[string]string{"Authorization": "Bearer tok"},
		Body:     `{"probe":true}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPassed, verdict.Status)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, `{"probe":true}`, gotBody)
}

func TestHTTPExecuteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 立刻关闭，制造连接失败

	s := NewHTTP(time.Second)
	// 连接失败是执行错误，不是 failed 结论
	_, err := s.Execute(context.Background(), httpConfig(domain.HTTPCheck{Endpoint: srv.URL}))
	assert.Error(t, err)
}

func TestHTTPExecuteMissingCheck(t *testing.T) {
	s := NewHTTP(time.Second)
	_, err := s.Execute(context.Background(), &domain.AutomationConfig{Type: domain.CheckTypeHTTP})
	assert.Error(t, err)
}

func TestStructurallyEqual(t *testing.T) {
	// 数值统一为 float64 后再比较，int 与 float64 不应被判为不同
	assert.True(t, structurallyEqual(float64(3), 3))
	assert.True(t, structurallyEqual(map[string]any{"a": float64(1)}, map[string]any{"a": 1}))
	assert.True(t, structurallyEqual("ok", "ok"))
	assert.False(t, structurallyEqual("1", 1))
	assert.False(t, structurallyEqual(true, false))
}

func TestLookupPath(t *testing.T) {
	doc := []byte(`{"a":{"b":{"c":42}},"arr":[1,2]}`)

	got, found := lookupPath(doc, "a.b.c")
	require.True(t, found)
	assert.Equal(t, float64(42), got)

	_, found = lookupPath(doc, "a.b.missing")
	assert.False(t, found)

	// 数组不支持下钻
	_, found = lookupPath(doc, "arr.0")
	assert.False(t, found)

	_, found = lookupPath([]byte("not json"), "a")
	assert.False(t, found)
}
