package svcinstall

import "runtime"

// Version is the current version of the svcinstall module
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string `json:"version" yaml:"version"`
	// Backends lists the backends compiled for this host
	Backends []string `json:"backends" yaml:"backends"`
	// Platform is GOOS/GOARCH
	Platform string `json:"platform" yaml:"platform"`
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	backends := []string{BackendWrapper.String(), BackendMemory.String()}
	switch runtime.GOOS {
	case "windows":
		backends = append(backends, BackendSCM.String())
	case "linux":
		backends = append(backends, BackendSystemd.String(), BackendRunit.String())
	default:
		backends = append(backends, BackendRunit.String())
	}
	return VersionInfo{
		Version:  Version,
		Backends: backends,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}
