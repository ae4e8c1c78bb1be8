package aprs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsQConstruct(t *testing.T) {
	for _, q := range []string{"qAC", "qAX", "qAU", "qAo", "qAO", "qAS", "qAr", "qAR", "qAZ"} {
		assert.True(t, IsQConstruct(q), q)
	}
	for _, q := range []string{"qAB", "qac", "QAC", "q", "qA", "qARX"} {
		assert.False(t, IsQConstruct(q), q)
	}
}

func TestSanitizePath(t *testing.T) {
	in := []string{"WIDE1*", "qAC", "SRV", "qBOGUS", "TCPIP*"}
	assert.Equal(t, []string{"WIDE1*", "qAC", "SRV", "TCPIP*"}, SanitizePath(in))
}

func TestAppendQConstruct(t *testing.T) {
	path := AppendQConstruct([]string{"WIDE1*"}, QRfGate, "GW-10")
	assert.Equal(t, []string{"WIDE1*", "qAR", "GW-10"}, path)
}

func TestStripForRF(t *testing.T) {
	// the q-construct and its server call go, the rest stays
	in := []string{"WIDE2-1", "qAC", "SRV"}
	assert.Equal(t, []string{"WIDE2-1"}, StripForRF(in))

	in = []string{"TCPIP*", "qAX", "SRV2", "WIDE1-1"}
	assert.Equal(t, []string{"WIDE1-1"}, StripForRF(in))

	assert.Empty(t, StripForRF([]string{"qAS", "SRV"}))
}

func TestHasQConstruct(t *testing.T) {
	assert.True(t, HasQConstruct([]string{"WIDE1-1", "qAR", "GW"}))
	assert.True(t, HasQConstruct([]string{"qBAD"}))
	assert.False(t, HasQConstruct([]string{"WIDE1-1", "TCPIP*"}))
}
