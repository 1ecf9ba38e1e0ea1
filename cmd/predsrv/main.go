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

// predsrv compiles rule sets into a predicate DAG and serves
// per-transaction evaluation over websockets and (optionally) MQTT.
//
//	predsrv -ruleset rules.yaml
//	predsrv -client ws://localhost:8383/ws/api
//
// Rule sets are persisted in a Bolt database, so a bare restart serves
// what it served before.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/oracle"
	"github.com/Comcast/predicate/util"
)

func main() {
	var (
		listen      = flag.String("listen", ":8383", "HTTP/websocket listen address")
		dbFile      = flag.String("db", "predsrv.db", "rule set database filename")
		ruleSet     = flag.String("ruleset", "", "rule set source: filename or URL")
		ruleSetName = flag.String("ruleset-name", "", "name to store the rule set under (default: its base name)")

		mqttBroker  = flag.String("mqtt", "", "MQTT broker (e.g. tcp://localhost:1883); empty disables MQTT")
		mqttId      = flag.String("mqtt-id", "predsrv", "MQTT client id")
		mqttOps     = flag.String("mqtt-ops", "predsrv/ops", "MQTT ops topic")
		mqttResults = flag.String("mqtt-results", "predsrv/results", "MQTT results topic")

		sweep  = flag.String("sweep", "0 * * * * * *", "cron schedule for the transaction sweeper")
		maxAge = flag.Duration("max-age", 10*time.Minute, "idle transactions older than this are dropped")

		client  = flag.String("client", "", "run as a client of this websocket URL instead of serving")
		verbose = flag.Bool("v", false, "verbosity")
	)
	flag.Parse()
	util.Logging = *verbose

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *client != "" {
		if err := WebSocketClient(ctx, *client); err != nil {
			log.Fatal(err)
		}
		return
	}

	storage, err := NewStorage(*dbFile)
	if err != nil {
		log.Fatal(err)
	}
	storage.Debug = *verbose
	if err = storage.Open(); err != nil {
		log.Fatal(err)
	}
	defer storage.Close()

	if *ruleSet != "" {
		bs, err := fetchRuleSet(ctx, *ruleSet)
		if err != nil {
			log.Fatal(err)
		}
		name := *ruleSetName
		if name == "" {
			name = filepath.Base(*ruleSet)
		}
		if err = storage.SaveRuleSet(name, bs); err != nil {
			log.Fatal(err)
		}
	}

	o, err := compile(storage)
	if err != nil {
		log.Fatal(err)
	}

	s := NewService(o, storage)

	go func() {
		for err := range s.Errors {
			log.Printf("predsrv error: %v", err)
		}
	}()

	if err = s.WebSocketService(ctx); err != nil {
		log.Fatal(err)
	}
	if *mqttBroker != "" {
		if err = s.MQTTService(ctx, *mqttBroker, *mqttId, *mqttOps, *mqttResults); err != nil {
			log.Fatal(err)
		}
	}
	if err = s.Sweeper(ctx, *sweep, *maxAge); err != nil {
		log.Fatal(err)
	}

	log.Printf("predsrv listening on %s with rules %v", *listen, o.RuleIds())
	log.Fatal(http.ListenAndServe(*listen, nil))
}

// compile loads every stored rule set into a fresh oracle and compiles
// it.
func compile(storage *Storage) (*oracle.Oracle, error) {
	srcs, err := storage.LoadRuleSets()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(srcs))
	for name := range srcs {
		names = append(names, name)
	}
	sort.Strings(names)

	o := oracle.New(nil)
	for _, name := range names {
		rs, err := oracle.ParseRuleSet(srcs[name])
		if err != nil {
			return nil, fmt.Errorf("rule set %s: %v", name, err)
		}
		if err = o.LoadRuleSet(rs); err != nil {
			return nil, fmt.Errorf("rule set %s: %v", name, err)
		}
	}

	rep := core.NewReporter()
	err = o.Compile(rep)
	for _, r := range rep.Reports() {
		level := "warning"
		if r.Error {
			level = "error"
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", level, r.Message)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
