// Package version reports the harness build, used as the default service
// version on exported telemetry.
//
// The version can be pinned at link time:
//
//	go test -ldflags "-X github.com/kbukum/rxscenario/version.Version=1.0.0" ./...
package version
