package buildinfo

import "runtime/debug"

var (
	version = "dev"
	commit  = ""
)

// SetVersion allows build scripts to override the CLI version information.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// Version returns the semantic version associated with the build, falling
// back to the module version embedded by the Go toolchain.
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Commit reports the VCS revision the binary was built from, if known.
func Commit() string {
	if commit != "" {
		return commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			if len(setting.Value) > 12 {
				return setting.Value[:12]
			}
			return setting.Value
		}
	}
	return ""
}
