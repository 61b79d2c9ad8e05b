package version

var CurrentCommit string

// BuildVersion is the local build version, set by build system
const BuildVersion = "1.0.0"

var UserVersion = BuildVersion + CurrentCommit

// Version is what the Version RPC call reports.
type Version struct {
	Version string
}

func (v Version) String() string {
	return v.Version
}
