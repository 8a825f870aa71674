// Package buildinfo holds what the linker stamps into the binary.
package buildinfo

const unstamped = "unknown"

// Context is filled from main's -ldflags variables. A nil Context is
// valid and reports every value as unknown.
type Context struct {
	Version   string // git tag, e.g. v0.3.0
	BuildDate string // RFC 3339 date of the build
}

func (c *Context) GetVersion() string {
	if c == nil {
		return unstamped
	}
	return orUnknown(c.Version)
}

func (c *Context) GetBuildDate() string {
	if c == nil {
		return unstamped
	}
	return orUnknown(c.BuildDate)
}

// Release names the build in error reports, e.g. sanctuary@v0.3.0.
func (c *Context) Release() string {
	return "sanctuary@" + c.GetVersion()
}

func orUnknown(s string) string {
	if s == "" {
		return unstamped
	}
	return s
}
