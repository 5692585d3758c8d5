package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/box2pix/box2pix"
)

func TestRunCheck(t *testing.T) {
	vs := nn.NewVarStore(device())
	net, err := box2pix.New(vs.Root(), box2pix.NewConfig(20, false))
	require.NoError(t, err)

	assert.NoError(t, runCheck(net, 128, 64))
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("DEBUG"))
	assert.NoError(t, setupLogging("warn"))
	assert.Error(t, setupLogging("loud"))
}
