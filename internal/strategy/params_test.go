package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Accessors(t *testing.T) {
	p := Params{"window": 20, "ratio": 0.5, "big": int64(3), "on": true, "mode": "fade"}

	assert.Equal(t, 20, p.Int("window", 0))
	assert.Equal(t, 20.0, p.Float("window", 0))
	assert.Equal(t, 0.5, p.Float("ratio", 0))
	assert.Equal(t, 3, p.Int("big", 0))
	assert.True(t, p.Bool("on", false))
	assert.Equal(t, "fade", p.String("mode", ""))

	assert.Equal(t, 7, p.Int("absent", 7))
	assert.Equal(t, 1.5, p.Float("absent", 1.5))
	assert.False(t, p.Bool("absent", false))
}

func TestParams_WrongTypePanics(t *testing.T) {
	p := Params{"window": "twenty", "ratio": 0.5}

	assert.Panics(t, func() { p.Int("window", 0) })
	assert.Panics(t, func() { p.Int("ratio", 0) }, "fractional value is not an integer")
	assert.Panics(t, func() { p.Bool("ratio", false) })
}

func TestParams_CloneAndMerge(t *testing.T) {
	p := Params{"a": 1}
	c := p.Clone()
	c["a"] = 2
	assert.Equal(t, 1, p["a"])

	m := p.Merge(Params{"b": true})
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	assert.Len(t, p, 1)

	var nilParams Params
	assert.NotNil(t, nilParams.Clone())
}
