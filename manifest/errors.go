// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package manifest

import "errors"

var (
	// ErrPathRequired is returned when a manifest or lock path is empty.
	ErrPathRequired = errors.New("path required")

	// ErrCorrupt indicates the manifest file exists but cannot be parsed.
	ErrCorrupt = errors.New("manifest corrupt")

	// ErrConfigMismatch indicates the manifest was built under a different
	// configuration than the current run. Mixing the two would produce
	// incomparable chunks, so the caller must rebuild instead.
	ErrConfigMismatch = errors.New("manifest configuration mismatch")

	// ErrLocked indicates another process holds the run lock.
	ErrLocked = errors.New("ingestion already running")
)
