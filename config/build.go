// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"strings"
	"sync"
)

// BuildVersion is the latest tagged release of msginline.
const BuildVersion string = "v0.3.0"

// develVersion is the main module version of a binary built from a checkout.
const develVersion = "(devel)"

type buildInfo struct {
	ModuleVersion string
	VcsRevision   string
	VcsTime       string
	VcsModified   bool
}

// Revision identifies the binary: "<date>-<short hash>" with "+dirty" for a
// modified checkout, the module version for "go install pkg@version" builds,
// or "unknown".
func (b *buildInfo) Revision() string {
	if len(b.VcsRevision) >= 8 {
		date, _, _ := strings.Cut(b.VcsTime, "T")

		s := date + "-" + b.VcsRevision[:8]
		if b.VcsModified {
			s += "+dirty"
		}

		return s
	}

	if b.ModuleVersion != "" && b.ModuleVersion != develVersion {
		return b.ModuleVersion
	}

	return "unknown"
}

var currentBuildInfo = sync.OnceValue(func() buildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return buildInfo{}
	}

	return newBuildInfo(bi)
})

func newBuildInfo(bi *debug.BuildInfo) buildInfo {
	settings := make(map[string]string, len(bi.Settings))
	for _, kv := range bi.Settings {
		settings[kv.Key] = kv.Value
	}

	return buildInfo{
		ModuleVersion: bi.Main.Version,
		VcsRevision:   settings["vcs.revision"],
		VcsTime:       settings["vcs.time"],
		VcsModified:   settings["vcs.modified"] == "true",
	}
}

// Revision returns the revision of the running binary.
func Revision() string {
	b := currentBuildInfo()

	return b.Revision()
}

func (b *buildInfo) load() {
	*b = currentBuildInfo()
}
