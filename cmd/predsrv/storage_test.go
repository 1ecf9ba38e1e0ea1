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

package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestStorage(t *testing.T) {
	dir, err := ioutil.TempDir("", "predsrv-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	s, err := NewStorage(filepath.Join(dir, "rules.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	src := []byte("rules:\n  - id: r\n    predicate: \"(true)\"\n")
	if err = s.SaveRuleSet("test", src); err != nil {
		t.Fatal(err)
	}
	if err = s.SaveRuleSet("other", []byte("rules: []\n")); err != nil {
		t.Fatal(err)
	}

	srcs, err := s.LoadRuleSets()
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 2 || !bytes.Equal(srcs["test"], src) {
		t.Fatalf("got %v", srcs)
	}

	if err = s.RemRuleSet("other"); err != nil {
		t.Fatal(err)
	}
	srcs, err = s.LoadRuleSets()
	if err != nil {
		t.Fatal(err)
	}
	if len(srcs) != 1 {
		t.Fatalf("got %v", srcs)
	}
}
