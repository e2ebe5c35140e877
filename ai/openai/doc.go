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


// Package openai implements ai.Embedder against OpenAI-compatible APIs.
//
// Works with any service exposing the /v1/embeddings endpoint: Ollama,
// LocalAI, vLLM, or OpenAI itself. Requests are rate limited according to
// ai.Config.RequestsPerSecond so batch ingestion does not overwhelm local
// model servers.
//
// The API token is read from the environment variable named by
// ai.Config.APIKeyEnv; services that ignore authentication get the
// placeholder token "none".
package openai
