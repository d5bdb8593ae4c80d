package layer

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// BaseLayer describes the immutable host image itself. It wraps no
// container and is never started or stopped, only described.
type BaseLayer struct {
	Name     string
	ID       string
	Version  string
	BuildPin string
}

// DescribeBase reads the host image identity from an os-release file,
// conventionally /etc/os-release, and attaches the reproducible-build pin
// recorded in state.
func DescribeBase(osReleasePath, buildPin string) (BaseLayer, error) {
	f, err := ini.Load(osReleasePath)
	if err != nil {
		return BaseLayer{}, fmt.Errorf("failed to read os-release: %w", err)
	}

	section := f.Section("")
	return BaseLayer{
		Name:     section.Key("PRETTY_NAME").String(),
		ID:       section.Key("ID").String(),
		Version:  section.Key("VERSION_ID").String(),
		BuildPin: buildPin,
	}, nil
}
