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


package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/canonit/core"
)

func TestFilter_Matches(t *testing.T) {
	docId := core.IDFromContent("authoritative/policy.pdf")
	meta := &core.ChunkMetadata{
		DocumentId: docId,
		Origin:     core.OriginAuthoritative,
		Topic:      "Leave",
	}

	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{"nil filter matches everything", nil, true},
		{"empty filter matches everything", &Filter{}, true},
		{"origin match", &Filter{Origin: core.OriginAuthoritative}, true},
		{"origin mismatch", &Filter{Origin: core.OriginExternal}, false},
		{"document match", &Filter{DocumentId: docId}, true},
		{"document mismatch", &Filter{DocumentId: core.ID(999)}, false},
		{"topic match", &Filter{Topics: []string{"Pay", "Leave"}}, true},
		{"topic mismatch", &Filter{Topics: []string{"Pay"}}, false},
		{"all fields match", &Filter{Origin: core.OriginAuthoritative, DocumentId: docId, Topics: []string{"Leave"}}, true},
		{"one field mismatch rejects", &Filter{Origin: core.OriginAuthoritative, DocumentId: core.ID(1)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(meta))
		})
	}
}

func TestFilter_MatchesNilMetadata(t *testing.T) {
	filter := &Filter{Origin: core.OriginExternal}
	assert.False(t, filter.Matches(nil))
}
