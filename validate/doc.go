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


// Package validate screens externally sourced chunks against the
// authoritative corpus before they are stored.
//
// The Validator applies three ordered checks, short-circuiting on the
// first failure:
//
//  1. Relevance: cosine similarity to the nearest extracted topic must
//     meet the relevance threshold, otherwise the chunk is off-subject.
//  2. Contradiction: the chunk is compared to its most similar
//     authoritative chunks; high similarity combined with a negation
//     asymmetry, or moderate similarity with lexical overlap and opposite
//     polarity, classifies the chunk as contradicting the authoritative
//     source.
//  3. Duplicate: similarity to any authoritative chunk at or above the
//     duplicate threshold means the chunk adds no new information.
//
// Rejection is an expected outcome, not an error: every check records the
// score and the records it compared against, and callers tally rejections
// per check for the ingestion report. Authoritative chunks never pass
// through this package.
//
// Contradiction detection is heuristic. Negation markers (including
// zero quantities such as "0 days") are matched per token, and polarity
// is the presence or absence of those markers; the thresholds and the
// lexical overlap floor are configurable for tuning this boundary.
package validate
