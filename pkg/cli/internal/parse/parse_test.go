package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValue(t *testing.T) {
	tests := []struct {
		in         string
		key, value string
		ok         bool
	}{
		{"SOAPAction: GetItem", "SOAPAction", "GetItem", true},
		{"X-Anchor:user@example.com", "X-Anchor", "user@example.com", true},
		{"Url: http://a:8080/x", "Url", "http://a:8080/x", true},
		{"novalue", "", "", false},
		{": orphan", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, v, ok := KeyValue(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, k)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestHeaders(t *testing.T) {
	h, err := Headers([]string{"A: 1", "B:2", "A: 3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, h)

	h, err = Headers(nil)
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = Headers([]string{"broken"})
	assert.Error(t, err)
}
