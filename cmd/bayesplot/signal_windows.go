//go:build windows

package main

import "os"

// shutdownSignals are the signals that stop a running server.
// SIGTERM does not exist on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
