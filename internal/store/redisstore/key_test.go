package redisstore

import "testing"

func TestKey(t *testing.T) {
	s := New(nil, WithPrefix("audit"))

	if got := s.key("Dog", "42"); got != "audit:Dog:42" {
		t.Errorf("expected audit:Dog:42, got %s", got)
	}
	if got := s.key("Dog", ""); got != "audit:Dog:_" {
		t.Errorf("expected audit:Dog:_, got %s", got)
	}
}
