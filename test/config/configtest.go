package config

import (
	"time"

	"github.com/spf13/pflag"
)

// MockConfigHook implements config.Hook. GetStringMock and friends are
// optional; Values backs every getter that has no mock.
type MockConfigHook struct {
	Values map[string]any

	GetStringMock   func(key string) string
	GetBoolMock     func(key string) bool
	GetIntMock      func(key string) int
	GetDurationMock func(key string) time.Duration
	BindFlagMock    func(string, *pflag.Flag) error
	SetMock         func(k string, v any)
}

func (m *MockConfigHook) value(key string) (any, bool) {
	v, ok := m.Values[key]
	return v, ok
}

func (m *MockConfigHook) GetString(key string) string {
	if m.GetStringMock != nil {
		return m.GetStringMock(key)
	}
	if v, ok := m.value(key); ok {
		s, _ := v.(string)
		return s
	}
	return ""
}

func (m *MockConfigHook) GetBool(key string) bool {
	if m.GetBoolMock != nil {
		return m.GetBoolMock(key)
	}
	if v, ok := m.value(key); ok {
		b, _ := v.(bool)
		return b
	}
	return false
}

func (m *MockConfigHook) GetInt(key string) int {
	if m.GetIntMock != nil {
		return m.GetIntMock(key)
	}
	if v, ok := m.value(key); ok {
		i, _ := v.(int)
		return i
	}
	return 0
}

func (m *MockConfigHook) GetIntOrElse(key string, orElse int) int {
	if _, ok := m.value(key); ok || m.GetIntMock != nil {
		return m.GetInt(key)
	}
	return orElse
}

func (m *MockConfigHook) GetDuration(key string) time.Duration {
	if m.GetDurationMock != nil {
		return m.GetDurationMock(key)
	}
	if v, ok := m.value(key); ok {
		d, _ := v.(time.Duration)
		return d
	}
	return 0
}

func (m *MockConfigHook) Set(key string, value any) {
	if m.SetMock != nil {
		m.SetMock(key, value)
		return
	}
	if m.Values == nil {
		m.Values = map[string]any{}
	}
	m.Values[key] = value
}

func (m *MockConfigHook) BindFlag(configPath string, f *pflag.Flag) error {
	if m.BindFlagMock == nil {
		return nil
	}
	return m.BindFlagMock(configPath, f)
}

func (m *MockConfigHook) GetEnvironment() string {
	return "test"
}

func (m *MockConfigHook) GetPaths() []string {
	return nil
}
