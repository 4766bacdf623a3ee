package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{host: "", port: 8080, want: "127.0.0.1:8080"},
		{host: "127.0.0.1", port: 9000, want: "127.0.0.1:9000"},
		{host: "0.0.0.0", port: 8080, want: "0.0.0.0:8080"},
		{host: "::1", port: 8080, want: "[::1]:8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, listenAddr(tt.host, tt.port))
	}
}

func TestServeCmd_DefaultsToLoopback(t *testing.T) {
	assert.Equal(t, defaultHost, serveCmd.Flags().Lookup("host").DefValue)
	assert.Equal(t, defaultHost, mcpServeCmd.Flags().Lookup("host").DefValue)
	assert.Equal(t, "127.0.0.1", defaultHost)
}

func TestServeCmd_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, err := execute(t, "serve")
	assert.ErrorIs(t, err, errAnalysisNotConfigured)
}
