// Package sdb implements the device transport on top of the sdb executable.
//
// Each primitive (shell, push, forward, root) spawns one sdb process, waits
// for it and returns its captured output. Timeouts are applied here, per
// call, so the deployment logic above stays free of them.
package sdb
