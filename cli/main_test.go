package main

import (
	"testing"
)

func TestCLIVersion(t *testing.T) {
	e := newExecutor(t, false)
	e.Run(t, "vdr-go", "--version")
	e.checkNextLine(t, "^vdr-go")
	e.checkNextLine(t, "^Version: "+testVersion)
	e.checkNextLine(t, "^GoVersion:")
	e.checkEOF(t)
}
