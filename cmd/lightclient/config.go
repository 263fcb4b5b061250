package main

import (
	"log"
	"os"
	"strconv"
)

// envOrDefault and envFloat are the daemon-knob helpers for settings that
// aren't worth a CLI flag (gossip score weights), kept in the same shape
// as the fuzzer harness's config helpers.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}
