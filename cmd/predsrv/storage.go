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
	"log"
	"time"

	bolt "go.etcd.io/bbolt"
)

var ruleSetsBucket = []byte("rulesets")

// Storage persists rule set sources, so a restarted predsrv can
// recompile what it was serving.
type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(ruleSetsBucket)
		return err
	})
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("Storage."+format, args...)
	}
}

// SaveRuleSet stores a rule set's source (YAML) under its name.
func (s *Storage) SaveRuleSet(name string, bs []byte) error {
	s.logf("SaveRuleSet %s (%d bytes)", name, len(bs))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ruleSetsBucket).Put([]byte(name), bs)
	})
}

// RemRuleSet removes a stored rule set.
func (s *Storage) RemRuleSet(name string) error {
	s.logf("RemRuleSet %s", name)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ruleSetsBucket).Delete([]byte(name))
	})
}

// LoadRuleSets returns every stored rule set source by name.
func (s *Storage) LoadRuleSets() (map[string][]byte, error) {
	srcs := make(map[string][]byte, 8)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ruleSetsBucket).Cursor()
		for name, bs := c.First(); name != nil; name, bs = c.Next() {
			cp := make([]byte, len(bs))
			copy(cp, bs)
			srcs[string(name)] = cp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("LoadRuleSets found %d rule sets", len(srcs))

	return srcs, nil
}
