package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	assert.Equal(t, "", Err(nil).Value.String())
}

func TestSecret(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"長いキーは先頭5文字のみ", "AIzaSyExampleKey", "AIzaS***"},
		{"短いキーは完全に隠す", "abc", "***"},
		{"空は ?", "", "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Secret(tt.in)
			assert.Equal(t, "secret", attr.Key)
			assert.Equal(t, tt.want, attr.Value.String())
		})
	}
}

func TestModule(t *testing.T) {
	attr := Module("studio")
	assert.Equal(t, "mod", attr.Key)
	assert.Equal(t, "studio", attr.Value.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("prompt", "short", 10).Value.String())
	assert.Equal(t, "abcde...(8 chars)", Truncate("prompt", "abcdefgh", 5).Value.String())
	assert.Equal(t, "猫猫...(3 chars)", Truncate("prompt", "猫猫猫", 2).Value.String())
	assert.Equal(t, "abcdefgh", Truncate("prompt", "abcdefgh", 0).Value.String())
}
