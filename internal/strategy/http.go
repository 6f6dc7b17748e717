package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// defaultExpectedStatuses 未配置期望状态码时的默认集合
var defaultExpectedStatuses = []int{200, 201, 204}

// HTTPStrategy HTTP 探测执行器
// 向目标端点发起请求，校验响应状态码，可选地校验响应 JSON 中
// 某个点分路径处的值是否与期望值结构相等
type HTTPStrategy struct {
	client *http.Client
}

// NewHTTP 创建 HTTP 探测执行器，timeout 为单次请求的超时上限
func NewHTTP(timeout time.Duration) *HTTPStrategy {
	return &HTTPStrategy{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPStrategy) Execute(ctx context.Context, cfg *domain.AutomationConfig) (Verdict, error) {
	check := cfg.HTTP
	if check == nil {
		return Verdict{}, fmt.Errorf("http strategy requires an http check config")
	}

	method := strings.ToUpper(check.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if check.Body != "" {
		body = strings.NewReader(check.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, check.Endpoint, body)
	if err != nil {
		return Verdict{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range check.Headers {
		req.Header.Set(k, v)
	}

	// 传输层失败（DNS、连接、超时）作为执行错误上抛，不是 failed 结论
	resp, err := s.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("request %s %s: %w", method, check.Endpoint, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("read response body: %w", err)
	}

	expected := check.ExpectedStatuses
	if len(expected) == 0 {
		expected = defaultExpectedStatuses
	}
	if !containsStatus(expected, resp.StatusCode) {
		return Verdict{
			Status: domain.StatusFailed,
			Notes:  fmt.Sprintf("%s %s returned status %d, expected one of %v", method, check.Endpoint, resp.StatusCode, expected),
		}, nil
	}

	// 可选 JSON 路径校验
	if check.ValidationPath != "" {
		got, found := lookupPath(respBody, check.ValidationPath)
		if !found {
			return Verdict{
				Status: domain.StatusFailed,
				Notes:  fmt.Sprintf("%s returned status %d but path %q not found in response", method, resp.StatusCode, check.ValidationPath),
			}, nil
		}
		if !structurallyEqual(got, check.ExpectedValue) {
			return Verdict{
				Status: domain.StatusFailed,
				Notes:  fmt.Sprintf("%s returned status %d but value at path %q did not match expected value", method, resp.StatusCode, check.ValidationPath),
			}, nil
		}
	}

	return Verdict{
		Status: domain.StatusPassed,
		Notes:  fmt.Sprintf("%s %s returned status %d", method, check.Endpoint, resp.StatusCode),
	}, nil
}

func containsStatus(set []int, code int) bool {
	for _, s := range set {
		if s == code {
			return true
		}
	}
	return false
}

// lookupPath 在 JSON 文档中按点分路径取值
// 只支持对象逐层下钻，不支持数组下标与通配符
func lookupPath(doc []byte, path string) (any, bool) {
	var root any
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, false
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// structurallyEqual 期望值与实际值的结构相等比较
// 两边统一经过一次 JSON 编解码，消除 int/float64 这类编码差异
func structurallyEqual(got, expected any) bool {
	return reflect.DeepEqual(normalize(got), normalize(expected))
}

func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
