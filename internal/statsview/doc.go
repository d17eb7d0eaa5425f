// Package statsview serves live runtime statistics of the emulator over
// HTTP. It is only functional when built with the statsview tag:
//
//	go build -tags statsview ./cmd/kiwi
//
// After launch, graphs are viewable at
//
//	localhost:12600/debug/statsview
//
// and the standard pprof endpoints at
//
//	localhost:12600/debug/pprof/
package statsview

// Address the statistics server listens on
const Address = "localhost:12600"

const url = "/debug/statsview"
