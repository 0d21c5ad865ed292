// Copyright 2025 OpenDesign Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import "golang.org/x/mod/semver"

// Version is the engine release version.
const Version = "v0.3.0"

// Compatible reports whether a client built against clientVersion can talk
// to this engine: same major version, client not newer than the engine.
func Compatible(clientVersion string) bool {
	if !semver.IsValid(clientVersion) {
		return false
	}
	if semver.Major(clientVersion) != semver.Major(Version) {
		return false
	}
	return semver.Compare(clientVersion, Version) <= 0
}
