package redis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigJSON(t *testing.T) {
	var single RedisConfig
	require.NoError(t, json.Unmarshal([]byte(`{"host":"cache","port":6379,"password":"secret","namespace":"sadl"}`), &single))
	require.Equal(t, RedisConfig{Host: "cache", Port: 6379, Password: "secret", Namespace: "sadl"}, single)

	var sentinel RedisSentinelConfig
	require.NoError(t, json.Unmarshal([]byte(`{
		"sentinel_host": "sentinel", "sentinel_port": 26379, "password": "secret",
		"master_name": "primary", "sentinel_username": "watcher", "namespace": "sadl"
	}`), &sentinel))
	require.Equal(t, RedisSentinelConfig{
		SentinelHost:     "sentinel",
		SentinelPort:     26379,
		Password:         "secret",
		MasterName:       "primary",
		SentinelUsername: "watcher",
		Namespace:        "sadl",
	}, sentinel)
}

func TestKey(t *testing.T) {
	require.Equal(t, "sadl:decode:abc123", Key("sadl", "abc123"))
	require.Equal(t, ":decode:abc123", Key("", "abc123"))
}

func TestNewRedisClient_Fails(t *testing.T) {
	tests := []struct {
		name    string
		config  RedisConfig
		wantErr string
	}{
		{"empty config", RedisConfig{}, "invalid address"},
		{"port out of range", RedisConfig{Host: "localhost", Port: 99999}, "invalid address"},
		{"negative port", RedisConfig{Host: "localhost", Port: -1}, "invalid address"},
		{"unresolvable host", RedisConfig{Host: "invalid-redis-host-that-does-not-exist", Port: 6379}, "failed to connect to Redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisClient(&tt.config)
			require.Error(t, err)
			require.Nil(t, client)
			require.Contains(t, err.Error(), "failed to connect to Redis")
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRedisSentinelClient_Fails(t *testing.T) {
	tests := []struct {
		name    string
		config  RedisSentinelConfig
		wantErr string
	}{
		{"empty master name", RedisSentinelConfig{SentinelHost: "localhost", SentinelPort: 26379}, "master name is required"},
		{"empty host", RedisSentinelConfig{SentinelPort: 26379, MasterName: "primary"}, "invalid address"},
		{"port out of range", RedisSentinelConfig{SentinelHost: "localhost", SentinelPort: 99999, MasterName: "primary"}, "invalid address"},
		{"unresolvable host", RedisSentinelConfig{SentinelHost: "invalid-sentinel-host-that-does-not-exist", SentinelPort: 26379, MasterName: "primary"}, "through Sentinel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisSentinelClient(&tt.config)
			require.Error(t, err)
			require.Nil(t, client)
			require.Contains(t, err.Error(), "failed to connect to Redis through Sentinel")
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
