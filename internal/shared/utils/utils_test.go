package utils

import "testing"

func TestRandSeq_长度与字符集(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := RandSeq(10)
		if !IsAlphanumeric(s, 10) {
			t.Fatalf("期望 10 位字母数字串, got=%q", s)
		}
	}
}

func TestIsAlphanumeric_拒绝非法字符(t *testing.T) {
	if IsAlphanumeric("abc/def123", 10) {
		t.Fatalf("期望包含 / 的串不合法")
	}
	if IsAlphanumeric("abc", 10) {
		t.Fatalf("期望长度不符不合法")
	}
}

func TestSnowflake_单调递增(t *testing.T) {
	s, err := NewSnowflake(3)
	if err != nil {
		t.Fatalf("期望创建成功, err=%v", err)
	}
	prev := s.NextID()
	for i := 0; i < 1000; i++ {
		next := s.NextID()
		if next <= prev {
			t.Fatalf("期望单调递增, prev=%d next=%d", prev, next)
		}
		prev = next
	}
}

func TestNewSnowflake_节点越界(t *testing.T) {
	if _, err := NewSnowflake(1 << 10); err == nil {
		t.Fatalf("期望节点越界返回错误")
	}
}
