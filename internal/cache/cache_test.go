package cache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCacheable(t *testing.T) {
	cases := []struct {
		name   string
		method string
		params string
		want   bool
	}{
		{"immutable by hash", "eth_getBlockByHash", `["0xabc",false]`, true},
		{"chain id", "eth_chainId", ``, true},
		{"balance at number", "eth_getBalance", `["0x1","0x10"]`, true},
		{"balance at latest", "eth_getBalance", `["0x1","latest"]`, false},
		{"balance no block", "eth_getBalance", `["0x1"]`, false},
		{"call at finalized", "eth_call", `[{"to":"0x1"},"finalized"]`, false},
		{"call at number", "eth_call", `[{"to":"0x1"},"0x1b4"]`, true},
		{"eip-1898 number", "eth_call", `[{"to":"0x1"},{"blockNumber":"0x1b4"}]`, true},
		{"eip-1898 hash", "eth_call", `[{"to":"0x1"},{"blockHash":"0xabc"}]`, true},
		{"storage at pending", "eth_getStorageAt", `["0x1","0x0","pending"]`, false},
		{"unknown method", "eth_sendRawTransaction", `["0x"]`, false},
	}
	for _, tc := range cases {
		var params json.RawMessage
		if tc.params != "" {
			params = json.RawMessage(tc.params)
		}
		if got := Cacheable(tc.method, params, nil); got != tc.want {
			t.Errorf("%s: Cacheable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCacheable_DisabledMethods(t *testing.T) {
	disabled := map[string]bool{"eth_chainId": true}
	if Cacheable("eth_chainId", nil, disabled) {
		t.Error("disabled method reported cacheable")
	}
}

func TestKey_DistinguishesMethodAndParams(t *testing.T) {
	a := Key("eth_getBalance", json.RawMessage(`["0x1","0x10"]`))
	b := Key("eth_getBalance", json.RawMessage(`["0x2","0x10"]`))
	c := Key("eth_getCode", json.RawMessage(`["0x1","0x10"]`))
	if a == b || a == c || b == c {
		t.Error("distinct calls map to the same key")
	}
	if a != Key("eth_getBalance", json.RawMessage(`["0x1","0x10"]`)) {
		t.Error("same call maps to different keys")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m, err := NewMemory(8, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	defer m.Close()

	m.Set("k", json.RawMessage(`"v"`))
	if v, ok := m.Get("k"); !ok || string(v) != `"v"` {
		t.Fatalf("Get = %s, %v; want \"v\", true", v, ok)
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := m.Get("k"); ok {
		t.Error("expired entry still served")
	}
}

func TestMemory_Eviction(t *testing.T) {
	m, err := NewMemory(2, time.Minute)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	defer m.Close()

	m.Set("a", json.RawMessage(`1`))
	m.Set("b", json.RawMessage(`2`))
	m.Set("c", json.RawMessage(`3`))

	if _, ok := m.Get("a"); ok {
		t.Error("oldest entry survived past capacity")
	}
	if _, ok := m.Get("c"); !ok {
		t.Error("newest entry evicted")
	}
}
