package middleware

import "testing"

func TestParseBizCode_解析响应体code(t *testing.T) {
	code, ok := parseBizCode([]byte(`{"code":130,"msg":"not your turn"}`))
	if !ok || code != 130 {
		t.Fatalf("期望解析出 130, got=%d ok=%v", code, ok)
	}
}

func TestParseBizCode_缺少code字段(t *testing.T) {
	if _, ok := parseBizCode([]byte(`{"status":"ok"}`)); ok {
		t.Fatalf("期望缺少 code 时返回 false")
	}
	if _, ok := parseBizCode(nil); ok {
		t.Fatalf("期望空响应体返回 false")
	}
}
