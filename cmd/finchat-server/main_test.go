package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddrForLocalClient(t *testing.T) {
	cases := []struct {
		listen string
		want   string
	}{
		{":8080", "127.0.0.1:8080"},
		{"127.0.0.1:8080", "127.0.0.1:8080"},
		{"0.0.0.0:9000", "0.0.0.0:9000"},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, addrForLocalClient(c.listen), "listen=%q", c.listen)
	}
}
