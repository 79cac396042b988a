package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustMinLen(value []byte, min int, envName string) {
	if len(value) < min {
		log.Fatalf("env %s must be at least %d bytes", envName, min)
	}
}
