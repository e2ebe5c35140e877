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


// Package config loads and validates the canonit YAML configuration.
//
// The file groups chunking bounds, screening thresholds, the embedder
// selection, and the store backend. A missing file means defaults: the
// offline hashing embedder over a local badger store, so a fresh checkout
// works without any external service. Config.Snapshot feeds the manifest's
// configuration fingerprint; changing anything it covers forces --rebuild.
package config
