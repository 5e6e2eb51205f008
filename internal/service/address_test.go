package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zlatko/internal/model"
)

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"alice@corp.com", "alice@corp.com"},
		{"Alice Smith <alice@corp.com>", "alice@corp.com"},
		{`"Smith, Alice" <alice@corp.com>`, "alice@corp.com"},
		{"  <bob@x.com>  ", "bob@x.com"},
		{"broken <bob@x.com", "broken <bob@x.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractAddress(tt.header), tt.header)
	}
}

func TestClassifyDirection(t *testing.T) {
	assert.Equal(t, model.DirectionInbound, ClassifyDirection("alice@corp.com", "alice@corp.com"))
	assert.Equal(t, model.DirectionOutbound, ClassifyDirection("me@agency.com", "alice@corp.com"))
	assert.Equal(t, model.DirectionInbound, ClassifyDirection("Alice <ALICE@Corp.com>", "alice@corp.com"))
	assert.Equal(t, model.DirectionOutbound, ClassifyDirection("", "alice@corp.com"))
	assert.Equal(t, model.DirectionOutbound, ClassifyDirection("alice@corp.com", ""))
}

func TestClassifyDirectionSubstringMatch(t *testing.T) {
	// a longer unrelated address containing the prospect address is inbound
	assert.Equal(t, model.DirectionInbound, ClassifyDirection("malice@corp.com", "alice@corp.com"))
}
