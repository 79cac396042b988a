package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("PHONEHUB_TEST_STR", "value")
	t.Setenv("PHONEHUB_TEST_INT", "42")
	t.Setenv("PHONEHUB_TEST_BAD_INT", "forty")
	t.Setenv("PHONEHUB_TEST_DUR", "90s")
	t.Setenv("PHONEHUB_TEST_BAD_DUR", "-5m")

	assert.Equal(t, "value", EnvDefault("PHONEHUB_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("PHONEHUB_TEST_MISSING", "def"))

	assert.Equal(t, 42, EnvIntDefault("PHONEHUB_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("PHONEHUB_TEST_BAD_INT", 1))

	assert.Equal(t, 90*time.Second, EnvDurationDefault("PHONEHUB_TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("PHONEHUB_TEST_BAD_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("PHONEHUB_TEST_MISSING", time.Minute))
}
