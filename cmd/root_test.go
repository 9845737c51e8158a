package cmd

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel_AcceptsKnownLevels(t *testing.T) {
	orig := logLevel
	defer func() { logLevel = orig }()

	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
	}
	for in, want := range cases {
		logLevel = in
		assert.Equal(t, want, parseLogLevel(), in)
	}
}

func TestRootCmd_RegistersRunSubcommand(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "run" {
			found = true
		}
	}
	assert.True(t, found, "run subcommand must be registered")
}
