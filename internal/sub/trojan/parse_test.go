package trojan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/subagg-go/internal/model"
)

func TestParseURI(t *testing.T) {
	n, ok := ParseURI("trojan://secret@example.com:443?sni=cdn.example.com#JP%20Tokyo")
	require.True(t, ok)
	assert.Equal(t, "JP Tokyo", n.Name)
	assert.Equal(t, model.TypeTrojan, n.Type)
	assert.Equal(t, "example.com", n.Server)
	assert.Equal(t, 443, n.Port)
	assert.Equal(t, &model.Trojan{Password: "secret", SNI: "cdn.example.com"}, n.Trojan)
}

func TestParseURI_DefaultNameAndPeer(t *testing.T) {
	n, ok := ParseURI("trojan://secret@[2001:db8::1]:8443?peer=p.example")
	require.True(t, ok)
	assert.Equal(t, "trojan-2001:db8::1:8443", n.Name)
	assert.Equal(t, "p.example", n.Trojan.SNI)
}

func TestParseURI_Rejects(t *testing.T) {
	for _, line := range []string{
		"trojan://example.com:443",
		"trojan://@example.com:443",
		"trojan://pw@example.com",
		"trojan://pw@01.1.1.1:443",
		"ss://pw@example.com:443",
		"trojan://pw@exa mple.com:443",
	} {
		_, ok := ParseURI(line)
		assert.False(t, ok, "line %q", line)
	}
}
