// Package version is a condensed descendant of nabbar-golib/version: the
// teacher tracks package path extraction, syslog-ready headers and full
// SPDX license boilerplate for a general-purpose library; this runtime only
// needs enough to print a one-line banner and answer --version, so the
// getter surface below keeps the names the teacher uses and drops the
// reflection-based root-package-path lookup that has no caller here.
package version

import (
	"fmt"
	"strings"
)

// License identifies the license a build is distributed under.
type License uint8

const (
	License_None License = iota
	License_MIT
	License_Apache_v2
	License_GNU_GPL_v3
)

func (l License) String() string {
	switch l {
	case License_MIT:
		return "MIT License"
	case License_Apache_v2:
		return "Apache License 2.0"
	case License_GNU_GPL_v3:
		return "GNU GPL v3"
	default:
		return "Unlicensed"
	}
}

func (l License) boiler() string {
	switch l {
	case License_MIT:
		return "MIT License\nPermission is hereby granted, free of charge, to use, copy, modify and distribute this software."
	case License_Apache_v2:
		return "Apache License 2.0\nLicensed under the Apache License, Version 2.0."
	case License_GNU_GPL_v3:
		return "GNU GPL v3\nThis program is free software under the terms of the GNU General Public License."
	default:
		return "No license declared."
	}
}

// Version carries the build metadata one cmd/* binary stamps into main.go
// at link time (or leaves at its zero value in dev builds).
type Version struct {
	license     License
	pkg         string
	description string
	date        string
	build       string
	release     string
	author      string
	prefix      string
}

// NewVersion constructs a Version. date/build are normally injected via
// -ldflags at release build time; left empty in a `go run` dev build.
func NewVersion(license License, pkg, description, date, build, release, author, prefix string) *Version {
	return &Version{
		license:     license,
		pkg:         pkg,
		description: description,
		date:        date,
		build:       build,
		release:     release,
		author:      author,
		prefix:      prefix,
	}
}

func (v *Version) GetPackage() string     { return v.pkg }
func (v *Version) GetDescription() string { return v.description }
func (v *Version) GetDate() string        { return v.date }
func (v *Version) GetBuild() string       { return v.build }
func (v *Version) GetRelease() string     { return v.release }
func (v *Version) GetAuthor() string      { return v.author }
func (v *Version) GetPrefix() string      { return v.prefix }
func (v *Version) GetLicenseName() string { return v.license.String() }
func (v *Version) GetLicenseBoiler(extra ...License) string {
	parts := []string{v.license.boiler()}
	for _, e := range extra {
		parts = append(parts, e.boiler())
	}
	return strings.Join(parts, "\n\n")
}

// GetAppId is a short "name release" identifier suitable for a User-Agent
// or a connect-time handshake banner.
func (v *Version) GetAppId() string {
	return fmt.Sprintf("%s %s", v.pkg, v.release)
}

// GetHeader is the one-line banner; cmd/echo uses it as the command's
// Version string.
func (v *Version) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s) - %s", v.pkg, v.release, v.build, v.description)
}

// GetInfo is the multi-line form; cmd/echo prints it for --version.
func (v *Version) GetInfo() string {
	return fmt.Sprintf(
		"Package: %s\nRelease: %s\nBuild: %s\nDate: %s\nAuthor: %s\nLicense: %s",
		v.pkg, v.release, v.build, v.date, v.author, v.license,
	)
}
