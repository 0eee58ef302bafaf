// Copyright 2024 The refactorctl Authors
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

// Package plugins assembles the Plugin Registry (C4) this module ships
// out of the box. A host embedding the engine that needs a different
// or narrower set of ecosystems constructs its own [plugin.Registry]
// directly instead of calling [Default].
package plugins

import (
	"github.com/typemill-go/refactorctl/internal/plugin"
	"github.com/typemill-go/refactorctl/internal/plugins/rust"
	"github.com/typemill-go/refactorctl/internal/plugins/web"
)

// Default returns a registry with every ecosystem plugin this module
// ships registered against it.
func Default() *plugin.Registry {
	r := plugin.NewRegistry()
	r.Register(rust.New())
	r.Register(web.New())
	return r
}
