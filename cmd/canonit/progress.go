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


package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/ingest"
	"github.com/poiesic/canonit/manifest"
)

// barMonitor renders ingestion progress as a terminal bar, with one line
// per rejected document so rejections stay visible after the bar moves on.
type barMonitor struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

var _ ingest.Monitor = (*barMonitor)(nil)

func newBarMonitor(out io.Writer) *barMonitor {
	return &barMonitor{out: out}
}

func (m *barMonitor) RunStarted(total int) {
	m.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(m.out),
		progressbar.OptionSetDescription(color.BlueString("Ingesting")),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (m *barMonitor) DocumentStarted(_ *core.SourceDocument) {}

func (m *barMonitor) DocumentFinished(doc *core.SourceDocument, state string, _ manifest.Tally) {
	if m.bar == nil {
		return
	}
	switch state {
	case ingest.StateRejectedFormat, ingest.StateRejectedValidation:
		m.bar.Clear()
		fmt.Fprintln(m.out, color.RedString("✗ %s (%s)", doc.Path, state))
	}
	m.bar.Add(1)
}

func (m *barMonitor) RunFinished(_ *ingest.Report) {
	if m.bar != nil {
		m.bar.Finish()
		fmt.Fprintln(m.out)
	}
}
