package arith

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	a, err := ByName("linear")
	require.NoError(t, err)
	assert.Equal(t, LinearName, a.Name())

	a, err = ByName("")
	require.NoError(t, err)
	assert.Equal(t, LogName, a.Name())

	_, err = ByName("decibel")
	assert.Error(t, err)
}

func TestLogAdd(t *testing.T) {
	assert.InDelta(t, math.Log(0.75), LogAdd(math.Log(0.5), math.Log(0.25)), 1e-12)
	assert.Equal(t, 3.0, LogAdd(3, math.Inf(-1)))
	assert.True(t, math.IsInf(LogAdd(math.Inf(-1), math.Inf(-1)), -1))
	// the smaller operand is dropped below the cut-off
	assert.Equal(t, 0.0, LogAdd(0, -25))
}

func TestModesAgree(t *testing.T) {
	lin, lg := Linear{}, Log{}
	ps := []float64{0.1, 0.02, 0.3}

	var lv, gv []float64
	for _, p := range ps {
		lv = append(lv, lin.FromProb(p))
		gv = append(gv, lg.FromProb(p))
	}
	assert.InDelta(t, lin.Sum(lv), lg.ToProb(lg.Sum(gv)), 1e-12)
	assert.InDelta(t, lin.Mul(lv[0], lv[1]), lg.ToProb(lg.Mul(gv[0], gv[1])), 1e-12)
	assert.InDelta(t, lin.Div(lv[0], lv[2]), lg.ToProb(lg.Div(gv[0], gv[2])), 1e-12)
	assert.InDelta(t, lin.Add(lv[1], lv[2]), lg.ToProb(lg.Add(gv[1], gv[2])), 1e-12)
	assert.InDelta(t, lin.Smooth(3, 10, 0.3, 50), lg.ToProb(lg.Smooth(3, 10, 0.3, 50)), 1e-12)

	assert.Equal(t, lin.Zero(), lin.Sum(nil))
	assert.True(t, math.IsInf(lg.Sum(nil), -1))
	assert.Equal(t, 1.0, lg.ToProb(lg.One()))
}
