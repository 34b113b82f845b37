package config

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestNewsTokenFallbackChain(t *testing.T) {
	cfg := &Config{Token6551: "b", TwitterToken: "c"}
	assert.Equal(t, "b", cfg.NewsToken())

	cfg = &Config{OpennewsToken: "a", Token6551: "b"}
	assert.Equal(t, "a", cfg.NewsToken())

	cfg = &Config{TwitterToken: "c"}
	assert.Equal(t, "c", cfg.NewsToken())

	assert.Equal(t, "", (&Config{}).NewsToken())
}

func TestTwitterTokenFallbackChain(t *testing.T) {
	cfg := &Config{OpennewsToken: "a", Token6551: "b"}
	assert.Equal(t, "a", cfg.TwitterTokenResolved())

	cfg = &Config{TwitterToken: "c", OpennewsToken: "a"}
	assert.Equal(t, "c", cfg.TwitterTokenResolved())

	cfg = &Config{Token6551: "b"}
	assert.Equal(t, "b", cfg.TwitterTokenResolved())
}

func TestUpstreamTimeoutFloor(t *testing.T) {
	cfg := &Config{UpstreamTimeoutMS: 500}
	assert.Equal(t, 2*time.Second, cfg.UpstreamTimeout())

	cfg = &Config{UpstreamTimeoutMS: 10000}
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout())
}

func TestWatchlistUsers(t *testing.T) {
	cfg := &Config{XMonitorUsers: " alice , ,bob,"}
	assert.Equal(t, []string{"alice", "bob"}, cfg.WatchlistUsers())

	assert.Equal(t, []string(nil), (&Config{}).WatchlistUsers())
}
