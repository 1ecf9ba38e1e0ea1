/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io"
	"strings"

	md "github.com/russross/blackfriday/v2"

	"github.com/Comcast/predicate/core"
)

// WriteCallReference writes an HTML reference for every call the
// factory knows, rendered from the calls' Markdown docs.
func WriteCallReference(w io.Writer, factory *core.CallFactory, title string) error {
	if title == "" {
		title = "Predicate call reference"
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n", title)
	for _, name := range factory.Names() {
		fmt.Fprintf(&doc, "## %s\n\n", name)
		if d := factory.Doc(name); d != "" {
			fmt.Fprintf(&doc, "%s\n\n", d)
		} else {
			fmt.Fprintf(&doc, "Undocumented.\n\n")
		}
	}

	html := md.Run([]byte(doc.String()))

	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style type="text/css">
body { font-family: sans-serif; margin: 2em; max-width: 50em; }
code { background-color: #f4f4f4; padding: 0 0.2em; }
</style>
</head>
<body>
`, title)
	if _, err := w.Write(html); err != nil {
		return err
	}
	fmt.Fprintf(w, "</body>\n</html>\n")
	return nil
}
