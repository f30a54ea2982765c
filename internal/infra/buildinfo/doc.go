// Package buildinfo provides build information for keymesh.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/keymesh/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/keymesh/internal/infra/buildinfo.Commit=abc123"
//
// The Go version comes from the runtime.
package buildinfo
