package utils

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with nil values", func(t *testing.T) {
		config := NewConfig(nil)
		require.NotNil(t, config)
		assert.Len(t, config.Keys(), 0)
	})

	t.Run("with values", func(t *testing.T) {
		values := map[string]string{
			"key1": "value1",
			"key2": "value2",
		}
		config := NewConfig(values)

		assert.Equal(t, "value1", config.Get("key1"))
		assert.Equal(t, "value2", config.Get("key2"))

		// Verify it's a copy, not a reference
		values["key1"] = "modified"
		assert.NotEqual(t, "modified", config.Get("key1"))
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONTROLFILL_TEST_KEY=from_file\n"), 0644))

	t.Setenv("CONTROLFILL_TEST_SET", "from_env")
	defer os.Unsetenv("CONTROLFILL_TEST_KEY")

	config, err := NewConfigFromEnv(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from_file", config.Get("CONTROLFILL_TEST_KEY"))
	assert.Equal(t, "from_env", config.Get("CONTROLFILL_TEST_SET"))
}

func TestNewConfigFromEnv_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONTROLFILL_OVERRIDE=file\n"), 0644))

	t.Setenv("CONTROLFILL_OVERRIDE", "env")

	config, err := NewConfigFromEnv(envFile)
	require.NoError(t, err)
	assert.Equal(t, "env", config.Get("CONTROLFILL_OVERRIDE"))
}

func TestNewConfigFromEnv_Malformed(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BROKEN='unterminated\n"), 0644))

	_, err := NewConfigFromEnv(envFile)
	assert.Error(t, err)
}

func TestConfigGetWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"existing": "value",
		"empty":    "",
	})

	assert.Equal(t, "value", config.GetWithDefault("existing", "default"))
	assert.Equal(t, "default", config.GetWithDefault("missing", "default"))
	assert.Equal(t, "default", config.GetWithDefault("empty", "default"))
}

func TestConfigGetBool(t *testing.T) {
	config := NewConfig(map[string]string{
		"true_bool":    "true",
		"false_bool":   "false",
		"true_1":       "1",
		"true_yes":     "YES",
		"true_enabled": "enabled",
		"false_off":    "off",
		"invalid":      "invalid_bool",
	})

	tests := []struct {
		key      string
		expected bool
	}{
		{"true_bool", true},
		{"false_bool", false},
		{"true_1", true},
		{"true_yes", true},
		{"true_enabled", true},
		{"false_off", false},
		{"invalid", false},
		{"missing", false},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			assert.Equal(t, test.expected, config.GetBool(test.key), "GetBool(%s)", test.key)
		})
	}
}

func TestConfigLookupNumbers(t *testing.T) {
	config := NewConfig(map[string]string{
		"retries":     " 7 ",
		"negative":    "-10",
		"bad_int":     "three",
		"temperature": "0.5",
		"bad_float":   "warm",
		"pacing":      "45",
		"bad_pacing":  "soon",
	})

	n, ok, err := config.LookupInt("retries")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok, err = config.LookupInt("negative")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -10, n)

	_, ok, err = config.LookupInt("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = config.LookupInt("bad_int")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_int")

	f, ok, err := config.LookupFloat("temperature")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.5, f)

	_, _, err = config.LookupFloat("bad_float")
	assert.Error(t, err)

	d, ok, err := config.LookupDuration("pacing")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 45*time.Second, d)

	_, ok, err = config.LookupDuration("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = config.LookupDuration("bad_pacing")
	assert.Error(t, err)
}

func TestConfigGetDuration(t *testing.T) {
	config := NewConfig(map[string]string{
		"seconds":  "30",
		"duration": "1m30s",
		"invalid":  "soon",
	})

	d, err := config.GetDuration("seconds")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	d, err = config.GetDuration("duration")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = config.GetDuration("invalid")
	assert.Error(t, err)

	_, err = config.GetDuration("missing")
	assert.Error(t, err)
}

func TestConfigRequire(t *testing.T) {
	config := NewConfig(map[string]string{
		"ASKSAGE_USERNAME": "user@example.com",
		"ASKSAGE_API_KEY":  "",
	})

	assert.NoError(t, config.Require("ASKSAGE_USERNAME"))

	err := config.Require("ASKSAGE_USERNAME", "ASKSAGE_API_KEY", "CSV_PATH")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASKSAGE_API_KEY, CSV_PATH")
	assert.NotContains(t, err.Error(), "ASKSAGE_USERNAME")
}

func TestConfigSet(t *testing.T) {
	config := NewConfig(nil)

	config.Set("new_key", "new_value")
	assert.Equal(t, "new_value", config.Get("new_key"))

	config.Set("new_key", "updated_value")
	assert.Equal(t, "updated_value", config.Get("new_key"))
}

func TestConfigThreadSafety(t *testing.T) {
	config := NewConfig(map[string]string{"counter": "0"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				config.Set("key", "value")
				config.Get("key")
				_, _, _ = config.LookupInt("counter")
				_, _ = config.GetDuration("key")
			}
		}(i)
	}
	wg.Wait()
}
